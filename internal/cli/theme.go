package cli

import (
	"pautas-cli/internal/model"

	"github.com/spf13/cobra"
)

func newThemeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the light/dark preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": themeData(svc.Theme.Current(), svc.Session.User())})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := svc.Theme.Toggle(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			data := themeData(t, svc.Session.User())
			if n, ok := svc.Session.ActiveNotification(cmd.Context()); ok && n.Kind == model.NotifyWarning {
				data["warning"] = n.Message
			}
			return writeOut(cmd, app, map[string]any{"data": data})
		},
	})
	return cmd
}

func themeData(t model.Theme, u model.User) map[string]any {
	source := "local"
	if u.Authenticated {
		source = "user"
	}
	return map[string]any{"theme": t, "source": source}
}
