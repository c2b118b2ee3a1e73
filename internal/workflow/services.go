package workflow

import (
	"context"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/session"
	"pautas-cli/internal/store"
	"pautas-cli/internal/theme"

	"github.com/rs/zerolog/log"
)

// Services wires one profile's backend client, session and workflows.
type Services struct {
	Store   store.Store
	Client  *apiclient.Client
	Session *session.Session
	Theme   *theme.Controller

	Orders *Orders
	Tasks  *Tasks
	Admin  *Admin
}

type ServicesOptions struct {
	Store     store.Store
	Client    *apiclient.Client
	Prefs     theme.LocalPrefs
	ThemeSync bool
}

// OpenServices rehydrates the profile session and installs its token.
// Logging out, by command or forced, clears the client's token and the
// saved TUI view settings.
func OpenServices(ctx context.Context, opts ServicesOptions) (*Services, error) {
	if err := opts.Store.Ensure(); err != nil {
		return nil, err
	}
	sess, err := session.Open(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	c := opts.Client
	if u := sess.User(); u.Authenticated {
		c.SetToken(u.Token)
	}
	sess.OnLogout(func() { c.SetToken("") })
	st := opts.Store
	sess.OnLogout(func() {
		if err := st.RemoveTUIState(); err != nil {
			log.Warn().Err(err).Msg("remove tui state on logout")
		}
	})

	prefs := opts.Prefs
	if prefs == nil {
		prefs = theme.ConfigPrefs{}
	}
	var themeOpts []theme.Option
	if opts.ThemeSync {
		themeOpts = append(themeOpts, theme.WithSync(c))
	}

	return &Services{
		Store:   opts.Store,
		Client:  c,
		Session: sess,
		Theme:   theme.New(sess, prefs, themeOpts...),
		Orders:  NewOrders(c, sess),
		Tasks:   NewTasks(c, sess),
		Admin:   NewAdmin(c, sess),
	}, nil
}

// Logout ends the session for this profile.
func (s *Services) Logout(ctx context.Context) error {
	return s.Session.Logout(ctx)
}
