package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/config"
	"pautas-cli/internal/format"
	"pautas-cli/internal/logging"
	"pautas-cli/internal/router"
	"pautas-cli/internal/store"
	"pautas-cli/internal/tui"
	"pautas-cli/internal/workflow"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Profile    string
	Server     string
	PrettyJSON bool
	Format     string
	Verbose    bool

	cfg       *config.Config
	svc       *workflow.Services
	logCloser io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "pautas",
		Short:        "Maintenance order (pautas) client: CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  pautas

  # Log in and list your orders
  pautas login --user 55 --password ****
  pautas orders list --filter assigned

  # Supervisor: assign an order
  pautas orders assign 1234 --to 55 --priority 2
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.close()
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("PAUTAS_DIR", ""), "Path to the session dir (advanced: overrides profile resolution)")
	cmd.PersistentFlags().StringVar(&app.Profile, "profile", envOr("PAUTAS_PROFILE", ""), "Profile name (default: 'default')")
	cmd.PersistentFlags().StringVar(&app.Server, "server", "", "Backend API base URL, e.g. http://host:8000/api (overrides PAUTAS_SERVER/PAUTAS_API_BASE)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PAUTAS_FORMAT", "json"), "Output format (json|edn|table)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Mirror logs to stderr")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newOrdersCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newChecklistCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newSpecialtiesCmd(app))
	cmd.AddCommand(newSummaryCmd(app))
	cmd.AddCommand(newUploadCmd(app))
	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newProfilesCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	svc, err := app.services(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(cmd.Context(), svc)
}

// storeFor resolves the session dir:
// 1) --dir
// 2) --profile
// 3) ~/.pautas/config.json currentProfile
// 4) the default profile
func (app *App) storeFor() (store.Store, error) {
	if app.Dir != "" {
		return store.Store{Dir: app.Dir}, nil
	}
	if app.Profile == "" {
		if cfg, err := store.LoadConfig(); err == nil && cfg.CurrentProfile != "" {
			app.Profile = cfg.CurrentProfile
		} else {
			app.Profile = store.DefaultProfile
		}
	}
	dir, err := store.ProfileDir(app.Profile)
	if err != nil {
		return store.Store{}, err
	}
	app.Dir = dir
	return store.Store{Dir: dir}, nil
}

// baseURL picks --server, then the environment, then the profile pin.
func (app *App) baseURL(cfg *config.Config) string {
	if s := strings.TrimSpace(app.Server); s != "" {
		return strings.TrimRight(s, "/")
	}
	if os.Getenv("PAUTAS_SERVER") == "" && os.Getenv("PAUTAS_API_BASE") == "" && app.Profile != "" {
		if gc, err := store.LoadConfig(); err == nil {
			if ref, ok := gc.Profiles[app.Profile]; ok && ref.Server != "" {
				pinned := &config.Config{Server: ref.Server, APIBase: ref.APIBase}
				if pinned.APIBase == "" {
					pinned.APIBase = cfg.APIBase
				}
				return pinned.BaseURL()
			}
		}
	}
	return cfg.BaseURL()
}

// services opens the profile session once per command.
func (app *App) services(ctx context.Context) (*workflow.Services, error) {
	if app.svc != nil {
		return app.svc, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	app.cfg = cfg

	st, err := app.storeFor()
	if err != nil {
		return nil, err
	}
	if err := st.Ensure(); err != nil {
		return nil, err
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(st.Dir, "pautas.log")
	}
	closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: logFile, Console: app.Verbose})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	app.logCloser = closer

	client := apiclient.New(app.baseURL(cfg),
		apiclient.WithTimeout(cfg.HTTPTimeout()),
		apiclient.WithProbe(apiclient.ProbePolicy{
			Interval:    cfg.ProbeInterval(),
			MaxInterval: cfg.ProbeMaxInterval(),
			MaxAttempts: cfg.ProbeMaxAttempts,
		}),
	)
	svc, err := workflow.OpenServices(ctx, workflow.ServicesOptions{
		Store:     st,
		Client:    client,
		ThemeSync: cfg.ThemeSync,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", st.Dir).Str("api", client.BaseURL()).Msg("session opened")
	app.svc = svc
	return svc, nil
}

// authorized opens the session and checks that the user may use route.
func (app *App) authorized(ctx context.Context, route router.Route) (*workflow.Services, error) {
	svc, err := app.services(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := workflow.Restore(ctx, svc.Client, svc.Session, now()); err != nil {
		if errors.Is(err, workflow.ErrSessionExpired) {
			return nil, errLoginRequired
		}
		return nil, err
	}
	d := router.Guard(route, svc.Session.Snapshot())
	if d.Route == router.RouteLogin {
		return nil, errLoginRequired
	}
	if d.Redirected {
		return nil, forbiddenError{role: svc.Session.User().Role.String(), route: route.String()}
	}
	return svc, nil
}

func (app *App) close() {
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
