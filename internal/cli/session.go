package cli

import (
	"pautas-cli/internal/session"
	"pautas-cli/internal/store"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the stored session state",
	}
	cmd.AddCommand(newSessionShowCmd(app))
	cmd.AddCommand(newSessionSlicesCmd(app))
	cmd.AddCommand(newSessionChatCmd(app))
	cmd.AddCommand(newSessionDismissCmd(app))
	return cmd
}

func newSessionShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every session slice (the token is omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			// Expire a stale notification before printing it.
			_, _ = svc.Session.ActiveNotification(cmd.Context())
			st := svc.Session.Snapshot()
			st.User.Token = ""
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"dir":   svc.Store.Dir,
				"api":   svc.Client.BaseURL(),
				"state": st,
			}})
		},
	}
}

func newSessionSlicesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "slices",
		Short: "List persisted slices with their last write time",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			rows, err := svc.Store.ListSlices(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			out := make([]map[string]any, 0, len(rows))
			for _, r := range rows {
				if r.Key == session.KeyUser {
					// Never print the stored token.
					out = append(out, map[string]any{"key": r.Key, "updatedAt": r.UpdatedAt})
					continue
				}
				out = append(out, map[string]any{"key": r.Key, "updatedAt": r.UpdatedAt, "json": r.JSON})
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
}

func newSessionChatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open or close the chat panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Session.ToggleChat(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": svc.Session.Chat()})
		},
	}
}

func newSessionDismissCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss the current notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Session.DismissNotification(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"dismissed": true}})
		},
	}
}

func newProfilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage profiles (one session and backend per profile)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := store.ListProfiles()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			current := cfg.CurrentProfile
			if current == "" {
				current = store.DefaultProfile
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"current": current, "profiles": names}})
		},
	})
	cmd.AddCommand(newProfilesUseCmd(app))
	return cmd
}

func newProfilesUseCmd(app *App) *cobra.Command {
	var server string
	var apiBase string

	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Make a profile current, optionally pinning its backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeProfileName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir, err := store.ProfileDir(name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := (store.Store{Dir: dir}).Ensure(); err != nil {
				return writeErr(cmd, err)
			}
			err = store.UpdateConfig(func(cfg *store.GlobalConfig) {
				cfg.CurrentProfile = name
				if server == "" && apiBase == "" {
					return
				}
				if cfg.Profiles == nil {
					cfg.Profiles = map[string]store.ProfileRef{}
				}
				ref := cfg.Profiles[name]
				if server != "" {
					ref.Server = server
				}
				if apiBase != "" {
					ref.APIBase = apiBase
				}
				cfg.Profiles[name] = ref
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"current": name, "dir": dir}})
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Pin the backend origin, e.g. http://host:8000")
	cmd.Flags().StringVar(&apiBase, "api-base", "", "Pin the API prefix (default /api)")
	return cmd
}
