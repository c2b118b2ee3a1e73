package cli

import (
	"path/filepath"

	"pautas-cli/internal/format"
	"pautas-cli/internal/model"
	"pautas-cli/internal/report"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	"github.com/spf13/cobra"
)

type summaryView struct {
	SupervisorCode int                   `json:"supervisor_code"`
	SpecialtyID    int                   `json:"specialty_id"`
	Progress       int                   `json:"progress"`
	Status         workflow.StatusCounts `json:"status"`
	Totals         model.SummaryTotals   `json:"totals"`
	Maintainers    maintainersTable      `json:"assigned_maintainers"`
	File           string                `json:"file,omitempty"`
}

func (v summaryView) Headers() []string { return v.Maintainers.Headers() }
func (v summaryView) Rows() [][]string  { return v.Maintainers.Rows() }

func newSummaryCmd(app *App) *cobra.Command {
	var sortMode string
	var xlsx string
	var xlsxDir string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Supervisor dashboard: progress per maintainer",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := workflow.ParseSortMode(sortMode)
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := svc.Client.OrdersSummary(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			v := summaryView{
				SupervisorCode: s.SupervisorCode,
				SpecialtyID:    s.SpecialtyID,
				Progress:       workflow.Percent(s.Totals.OrdersCompleted, s.Totals.Orders),
				Status:         workflow.Aggregate(*s),
				Totals:         s.Totals,
				Maintainers:    maintainersTable(workflow.SortMaintainers(s.Maintainers, mode)),
			}

			path := xlsx
			if path == "" && xlsxDir != "" {
				path = filepath.Join(xlsxDir, report.DefaultFileName(*s, now()))
			}
			if path != "" {
				if err := report.SaveSummary(path, *s, mode, now()); err != nil {
					return writeErr(cmd, err)
				}
				v.File = path
			}
			return writeOut(cmd, app, format.Envelope{Data: v})
		},
	}

	cmd.Flags().StringVar(&sortMode, "sort", "progress", "progress|orders|name")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Also export the summary to this .xlsx file")
	cmd.Flags().StringVar(&xlsxDir, "xlsx-dir", "", "Export to <dir>/resumen_<supervisor>_<date>.xlsx")
	return cmd
}
