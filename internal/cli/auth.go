package cli

import (
	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"

	"github.com/spf13/cobra"
)

// publicUser is the session user without the token.
type publicUser struct {
	Name        string      `json:"name"`
	Code        int         `json:"code"`
	Role        string      `json:"role"`
	RoleID      model.Role  `json:"user_type"`
	SpecialtyID int         `json:"specialty_id"`
	Specialty   string      `json:"specialty"`
	Theme       model.Theme `json:"theme"`
}

func toPublicUser(u model.User) publicUser {
	return publicUser{
		Name:        u.Name,
		Code:        u.Code,
		Role:        u.Role.DisplayName(),
		RoleID:      u.Role,
		SpecialtyID: u.SpecialtyID,
		Specialty:   model.SpecialtyName(u.SpecialtyID),
		Theme:       u.Theme,
	}
}

func homeHints(route string) []string {
	switch route {
	case "admin":
		return []string{"pautas users list", "pautas specialties list", "pautas upload <file.pdf>"}
	case "dashboard":
		return []string{"pautas summary", "pautas orders list --filter unassigned"}
	case "orders":
		return []string{"pautas orders list", "pautas orders show <code>"}
	}
	return nil
}

func newLoginCmd(app *App) *cobra.Command {
	var user string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session for this profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			route, err := workflow.Login(cmd.Context(), svc.Client, svc.Session, user, password)
			if err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"user":  toPublicUser(svc.Session.User()),
					"route": route.String(),
				},
				"_hints": homeHints(route.String()),
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User code")
	cmd.Flags().StringVar(&password, "password", envOr("PAUTAS_PASSWORD", ""), "Password (or PAUTAS_PASSWORD)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Logout(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"loggedOut": true}})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.services(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			u := svc.Session.User()
			if !u.Authenticated {
				return writeErr(cmd, errLoginRequired)
			}
			return writeOut(cmd, app, map[string]any{"data": toPublicUser(u)})
		},
	}
}
