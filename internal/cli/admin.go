package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pautas-cli/internal/format"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	"github.com/spf13/cobra"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "User administration (admin)",
	}
	cmd.AddCommand(newUsersListCmd(app))
	cmd.AddCommand(newUsersAddCmd(app))
	cmd.AddCommand(newUsersEditCmd(app))
	cmd.AddCommand(newUsersDeactivateCmd(app))
	return cmd
}

func newUsersListCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Admin.RefreshUsers(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: usersTable(workflow.SearchUsers(svc.Admin.Users, search))})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter by code, name, role or specialty")
	return cmd
}

func newUsersAddCmd(app *App) *cobra.Command {
	var in model.NewAccount
	var role int
	var specialty int
	var theme string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			if cmd.Flags().Changed("role") {
				in.RoleID = &role
			}
			if cmd.Flags().Changed("specialty") {
				in.SpecialtyID = &specialty
			}
			in.Status = 1
			in.Theme = model.ParseTheme(theme).Wire()
			if err := svc.Admin.AddUser(cmd.Context(), in); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, format.Envelope{
				Data:  map[string]any{"code": in.Code, "nombre": in.Name, "created": true},
				Hints: []string{"pautas users list"},
			})
		},
	}

	cmd.Flags().IntVar(&in.Code, "code", 0, "User code (login id)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Initial password")
	cmd.Flags().IntVar(&role, "role", 0, "0=admin 1=supervisor 2=maintainer")
	cmd.Flags().IntVar(&specialty, "specialty", 0, "Specialty id")
	cmd.Flags().StringVar(&theme, "theme", "light", "light|dark")
	return cmd
}

func newUsersEditCmd(app *App) *cobra.Command {
	var name, password string
	var role, specialty, status int

	cmd := &cobra.Command{
		Use:   "edit <code>",
		Short: "Update a user; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("user code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			var patch model.AccountPatch
			fl := cmd.Flags()
			if fl.Changed("name") {
				patch.Name = &name
			}
			if fl.Changed("password") {
				patch.Password = &password
			}
			if fl.Changed("role") {
				patch.RoleID = &role
			}
			if fl.Changed("specialty") {
				patch.SpecialtyID = &specialty
			}
			if fl.Changed("status") {
				patch.Status = &status
			}
			if patch == (model.AccountPatch{}) {
				return writeErr(cmd, fmt.Errorf("nothing to update"))
			}
			if err := svc.Admin.EditUser(cmd.Context(), code, patch); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"code": code, "updated": true}})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	cmd.Flags().IntVar(&role, "role", 0, "0=admin 1=supervisor 2=maintainer")
	cmd.Flags().IntVar(&specialty, "specialty", 0, "Specialty id")
	cmd.Flags().IntVar(&status, "status", 1, "1=active 0=inactive")
	return cmd
}

func newUsersDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Deactivate a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("user code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Admin.DeactivateUser(cmd.Context(), code); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"code": code, "estado": 0}})
		},
	}
}

func newSpecialtiesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "specialties",
		Aliases: []string{"especialidades"},
		Short:   "Specialty administration (admin)",
	}
	cmd.AddCommand(newSpecialtiesListCmd(app))
	cmd.AddCommand(newSpecialtiesAddCmd(app))
	cmd.AddCommand(newSpecialtiesEditCmd(app))
	cmd.AddCommand(newSpecialtiesDeactivateCmd(app))
	return cmd
}

func newSpecialtiesListCmd(app *App) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List specialties",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Admin.RefreshSpecialties(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: specialtiesTable(workflow.SearchSpecialties(svc.Admin.Specialties, search))})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter by code, name or description")
	return cmd
}

func newSpecialtiesAddCmd(app *App) *cobra.Command {
	var in model.Specialty

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a specialty",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			in.Status = 1
			if err := svc.Admin.AddSpecialty(cmd.Context(), in); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"nombre": in.Name, "created": true}})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	return cmd
}

func newSpecialtiesEditCmd(app *App) *cobra.Command {
	var name, description string
	var status int

	cmd := &cobra.Command{
		Use:   "edit <code>",
		Short: "Update a specialty; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("specialty code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			var patch model.SpecialtyPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}
			if patch == (model.SpecialtyPatch{}) {
				return writeErr(cmd, fmt.Errorf("nothing to update"))
			}
			if err := svc.Admin.EditSpecialty(cmd.Context(), code, patch); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"code": code, "updated": true}})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().IntVar(&status, "status", 1, "1=active 0=inactive")
	return cmd
}

func newSpecialtiesDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Deactivate a specialty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("specialty code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Admin.DeactivateSpecialty(cmd.Context(), code); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"code": code, "estado": 0}})
		},
	}
}

func newUploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Import orders from a PDF export (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteAdmin)
			if err != nil {
				return writeErr(cmd, err)
			}
			path := args[0]
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return writeErr(cmd, workflow.ErrNotPDF)
			}
			f, err := os.Open(path)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			res, err := svc.Admin.Upload(cmd.Context(), filepath.Base(path), f)
			if err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}
}
