package tui

import (
	"context"

	"pautas-cli/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the interactive client on the profile's services and blocks
// until the user quits or ctx ends.
func Run(ctx context.Context, svc *workflow.Services) error {
	if ctx == nil {
		ctx = context.Background()
	}
	applyColorProfilePreference()
	applyThemePreference(svc.Theme.Current())

	// A previous process may have died mid-request.
	logPersist("control", svc.Session.SetLoading(ctx, false))

	m := newAppModel(ctx, svc)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
