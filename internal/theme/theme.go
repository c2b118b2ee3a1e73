// Package theme resolves and toggles the light/dark preference.
package theme

import (
	"context"
	"fmt"

	"pautas-cli/internal/model"
	"pautas-cli/internal/session"
	"pautas-cli/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// LocalPrefs stores the preference used while nobody is logged in.
type LocalPrefs interface {
	LoadTheme() (model.Theme, error)
	SaveTheme(model.Theme) error
}

// Syncer pushes the preference to the user's backend profile.
type Syncer interface {
	SyncTheme(ctx context.Context, code int, t model.Theme) error
}

// ConfigPrefs keeps the local preference in the global config file.
type ConfigPrefs struct{}

func (ConfigPrefs) LoadTheme() (model.Theme, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return model.ThemeLight, err
	}
	return model.ParseTheme(cfg.Theme), nil
}

func (ConfigPrefs) SaveTheme(t model.Theme) error {
	return store.UpdateConfig(func(cfg *store.GlobalConfig) { cfg.Theme = string(t) })
}

// ApplyToTerminal points lipgloss adaptive colors at the chosen palette.
func ApplyToTerminal(t model.Theme) {
	lipgloss.SetHasDarkBackground(t == model.ThemeDark)
}

type Controller struct {
	sess  *session.Session
	local LocalPrefs
	sync  Syncer
	apply func(model.Theme)
}

type Option func(*Controller)

// WithSync enables pushing toggles to the backend.
func WithSync(s Syncer) Option {
	return func(c *Controller) { c.sync = s }
}

// WithApply replaces the renderer hook (tests).
func WithApply(fn func(model.Theme)) Option {
	return func(c *Controller) { c.apply = fn }
}

func New(sess *session.Session, local LocalPrefs, opts ...Option) *Controller {
	c := &Controller{sess: sess, local: local, apply: ApplyToTerminal}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Current is the authenticated user's preference, else the local one.
func (c *Controller) Current() model.Theme {
	if u := c.sess.User(); u.Authenticated {
		return model.ParseTheme(string(u.Theme))
	}
	t, err := c.local.LoadTheme()
	if err != nil {
		log.Warn().Err(err).Msg("read local theme preference")
		return model.ThemeLight
	}
	return t
}

// Apply pushes the current preference to the renderer.
func (c *Controller) Apply() model.Theme {
	t := c.Current()
	c.apply(t)
	return t
}

// Toggle flips the preference, applies it and persists it. When a syncer is
// configured and a user is logged in, the backend profile is updated too; a
// failed push keeps the local change and raises a warning notification.
func (c *Controller) Toggle(ctx context.Context) (model.Theme, error) {
	next := c.Current().Toggle()
	c.apply(next)

	if err := c.local.SaveTheme(next); err != nil {
		return next, fmt.Errorf("save theme: %w", err)
	}

	u := c.sess.User()
	if !u.Authenticated {
		return next, nil
	}
	u.Theme = next
	if err := c.sess.SetUser(ctx, u); err != nil {
		return next, err
	}
	if c.sync == nil {
		return next, nil
	}
	if err := c.sync.SyncTheme(ctx, u.Code, next); err != nil {
		log.Warn().Err(err).Int("user", u.Code).Msg("theme sync failed")
		if err := c.sess.Notify(ctx, model.NotifyWarning, "Tema", "No se pudo guardar el tema en el servidor.", 3000); err != nil {
			log.Warn().Err(err).Msg("persist theme warning")
		}
	}
	return next, nil
}
