package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/format"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func parseCode(what, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive number", what, s)
	}
	return n, nil
}

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"pautas", "order"},
		Short:   "Order (pauta) commands",
	}
	cmd.AddCommand(newOrdersListCmd(app))
	cmd.AddCommand(newOrdersShowCmd(app))
	cmd.AddCommand(newOrdersAssignCmd(app))
	cmd.AddCommand(newOrdersCancelCmd(app))
	cmd.AddCommand(newOrdersObsCmd(app))
	cmd.AddCommand(newOrdersMaintainersCmd(app))
	cmd.AddCommand(newOrdersAnnexesCmd(app))
	return cmd
}

func newOrdersListCmd(app *App) *cobra.Command {
	var search string
	var filter string
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders (10 per page)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := workflow.ParseFilter(filter)
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteOrders)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Orders.Refresh(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}

			v := workflow.NewListView()
			v.SetSearch(search)
			v.SetFilter(f)
			res := v.Apply(svc.Orders.List)
			if page > 1 {
				if !v.GoTo(page, res.TotalPages) {
					return writeErr(cmd, fmt.Errorf("page %d out of range (1-%d)", page, max(res.TotalPages, 1)))
				}
				res = v.Apply(svc.Orders.List)
			}

			var hints []string
			if res.Page < res.TotalPages {
				hints = append(hints, fmt.Sprintf("pautas orders list --page %d", res.Page+1))
			}
			if len(res.Items) > 0 {
				hints = append(hints, fmt.Sprintf("pautas orders show %d", res.Items[0].Code))
			}
			return writeOut(cmd, app, format.Envelope{Data: ordersTable(res), Hints: hints})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive search on code, description, hours, task count and task descriptions")
	cmd.Flags().StringVar(&filter, "filter", "all", "all|assigned|unassigned")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	return cmd
}

type orderView struct {
	Code           int               `json:"code"`
	Description    string            `json:"description"`
	Status         string            `json:"status"`
	StatusID       model.OrderStatus `json:"status_id"`
	Priority       *int              `json:"prioridad"`
	StartDate      string            `json:"fecha_inicial"`
	DueDate        string            `json:"fecha_vencimiento"`
	AssignedBy     string            `json:"assigned_by"`
	AssignedTo     string            `json:"assigned_to"`
	Observation    string            `json:"obs_orden,omitempty"`
	CancelReason   string            `json:"obs_orden_cancelada,omitempty"`
	Duration       string            `json:"duration"`
	Annexes        []string          `json:"anexos"`
	Tasks          []taskView        `json:"tasks"`
	ChecklistReady bool              `json:"checklist"`
}

type taskView struct {
	Number        int    `json:"n"`
	Description   string `json:"description"`
	Workshop      string `json:"workshop,omitempty"`
	Hours         string `json:"hours,omitempty"`
	ExpectedValue string `json:"expected_value,omitempty"`
	Status        string `json:"status"`
	Started       string `json:"init_task"`
	Ended         string `json:"end_task"`
	ObsSupervisor string `json:"obs_assigned_by,omitempty"`
	ObsMaintainer string `json:"obs_assigned_to,omitempty"`
}

func toOrderView(d *model.OrderDetail) orderView {
	o := d.Order
	v := orderView{
		Code:           o.Code,
		Description:    o.Data.Description(),
		Status:         o.Status.Label(),
		StatusID:       o.Status,
		Priority:       o.Priority,
		StartDate:      model.FormatDate(o.StartDate),
		DueDate:        model.FormatDate(o.DueDate),
		AssignedBy:     d.AssignedByName,
		AssignedTo:     d.AssignedToName,
		Observation:    o.Observation,
		CancelReason:   o.CancelReason,
		Duration:       model.FormatDuration(o.TotalDurationSeconds),
		Annexes:        o.Data.Protocols(),
		ChecklistReady: len(o.Checklist) > 0,
	}
	if v.Annexes == nil {
		v.Annexes = []string{}
	}
	defs := o.Data.Tasks()
	n := max(len(defs), len(d.Tasks))
	for i := 1; i <= n; i++ {
		tv := taskView{Number: i, Status: model.TaskPending.Label(), Started: "N/A", Ended: "N/A"}
		if i <= len(defs) {
			tv.Description = defs[i-1].Description()
			tv.Workshop = defs[i-1].Workshop()
			tv.Hours = defs[i-1].EstimatedHours()
			tv.ExpectedValue = defs[i-1].ExpectedValue()
		}
		if t, ok := d.TaskByNumber(i); ok {
			tv.Status = t.Status.Label()
			tv.Started = model.FormatDate(t.InitTask)
			tv.Ended = model.FormatDate(t.EndTask)
			tv.ObsSupervisor = t.ObsAssignedBy
			tv.ObsMaintainer = t.ObsAssignedTo
		}
		v.Tasks = append(v.Tasks, tv)
	}
	return v
}

func orderHints(role model.Role, d *model.OrderDetail) []string {
	code := d.Order.Code
	if d.Order.Status.Closed() {
		if d.Order.Status == model.OrderCompleted {
			return []string{fmt.Sprintf("pautas checklist show %d", code)}
		}
		return nil
	}
	if role == model.RoleMaintainer {
		return []string{fmt.Sprintf("pautas tasks start %d <n>", code)}
	}
	return []string{
		fmt.Sprintf("pautas orders assign %d --to <maintainer>", code),
		fmt.Sprintf("pautas orders obs %d <n> --text <obs>", code),
		fmt.Sprintf("pautas orders cancel %d --reason <motivo> --yes", code),
	}
}

func newOrdersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show one order with its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteOrderDetail)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := svc.Orders.Detail(cmd.Context(), code)
			if err != nil {
				if apiclient.IsStatus(err, 404) {
					return writeErr(cmd, errNotFound("order", code))
				}
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: toOrderView(d), Hints: orderHints(svc.Session.User().Role, d)})
		},
	}
}

func newOrdersAssignCmd(app *App) *cobra.Command {
	var to int
	var priority string
	var obs string

	cmd := &cobra.Command{
		Use:   "assign <code>",
		Short: "Assign an order to a maintainer (supervisor)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			err = svc.Orders.Assign(cmd.Context(), code, to, obs, priority)
			if errors.Is(err, workflow.ErrRefetch) {
				log.Warn().Err(err).Int("order", code).Msg("assigned; list not reloaded")
			} else if err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			var assigned *model.Order
			for i := range svc.Orders.List {
				if svc.Orders.List[i].Code == code {
					assigned = &svc.Orders.List[i]
				}
			}
			return writeOut(cmd, app, format.Envelope{
				Data:  map[string]any{"code": code, "assigned_to": to, "prioridad": workflow.ParsePriority(priority), "order": assigned},
				Hints: []string{fmt.Sprintf("pautas orders show %d", code)},
			})
		},
	}

	cmd.Flags().IntVar(&to, "to", 0, "Maintainer code")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority 1-3 (blank or invalid = none)")
	cmd.Flags().StringVar(&obs, "obs", "", "Observation for the maintainer")
	return cmd
}

func newOrdersCancelCmd(app *App) *cobra.Command {
	var reason string
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel <code>",
		Short: "Cancel an order; its unfinished tasks are cancelled too (supervisor)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			answers := workflow.Answers{Confirmed: yes}
			if cmd.Flags().Changed("reason") {
				answers.Text = &reason
			}
			if err := svc.Orders.Cancel(cmd.Context(), code, answers); err != nil && !errors.Is(err, workflow.ErrRefetch) {
				if errors.Is(err, workflow.ErrAborted) {
					return writeErr(cmd, fmt.Errorf("cancel aborted: pass --yes and --reason"))
				}
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"code": code, "cancelled": true, "reason": reason}})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason (required, may be empty)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the cancellation")
	return cmd
}

func newOrdersObsCmd(app *App) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "obs <code> <task-number>",
		Short: "Set the observation on a task (supervisor note, or own note for maintainers)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			n, err := parseCode("task number", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteOrderDetail)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := svc.Orders.Detail(cmd.Context(), code)
			if err != nil {
				return writeErr(cmd, err)
			}
			side := apiclient.ObservationSupervisor
			if svc.Session.User().Role == model.RoleMaintainer {
				side = apiclient.ObservationMaintainer
			}
			// The text flag is the confirmation; without it nothing is sent.
			answers := workflow.Answers{Confirmed: cmd.Flags().Changed("text"), Text: &text}
			d, err = svc.Orders.SetObservation(cmd.Context(), d, n, side, answers)
			if err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, format.Envelope{Data: toOrderView(d)})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Observation text (replaces the current one)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newOrdersMaintainersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "maintainers",
		Short: "List maintainers of the supervisor's specialty",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteDashboard)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Orders.LoadMaintainers(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: usersTable(svc.Orders.Maintainers)})
		},
	}
}

func newOrdersAnnexesCmd(app *App) *cobra.Command {
	var width int
	var dark bool

	cmd := &cobra.Command{
		Use:     "anexos <code>",
		Aliases: []string{"annexes"},
		Short:   "Show an order's protocol annexes (rendered markdown with --format table)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteOrderDetail)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := svc.Orders.Detail(cmd.Context(), code)
			if err != nil {
				if apiclient.IsStatus(err, 404) {
					return writeErr(cmd, errNotFound("order", code))
				}
				return writeErr(cmd, err)
			}
			annexes := svc.Session.Order().Annexes
			if strings.EqualFold(app.Format, "table") {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), format.RenderMarkdown(format.AnnexesMarkdown(code, annexes), width, dark))
				return err
			}
			if annexes == nil {
				annexes = []string{}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"code": d.Order.Code, "anexos": annexes}})
		},
	}

	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for rendered output")
	cmd.Flags().BoolVar(&dark, "dark", false, "Use the dark palette for rendered output")
	return cmd
}
