package cli

import (
	"errors"
	"fmt"

	"pautas-cli/internal/format"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task execution commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksStartCmd(app))
	cmd.AddCommand(newTasksCurrentCmd(app))
	cmd.AddCommand(newTasksFinishCmd(app))
	cmd.AddCommand(newTasksObsCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <order-code>",
		Short: "List the execution records of an order's tasks",
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
			tasks, err := svc.Client.ListTasks(cmd.Context(), code)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: tasksTable(tasks)})
		},
	}
}

func newTasksStartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "start <order-code> <task-number>",
		Short: "Start (or reopen) a task and make it the current task",
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
			svc, err := app.authorized(cmd.Context(), router.RouteTask)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := svc.Orders.Detail(cmd.Context(), code)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := svc.Tasks.Open(cmd.Context(), d, n)
			if err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{
					"task":   svc.Session.Task(),
					"status": res.Status.Label(),
					"start":  res,
				},
				Hints: []string{"pautas tasks finish --ack [--obs <text>] [--measurement si|no|na]"},
			})
		},
	}
}

func newTasksCurrentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the task in progress for this session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteTask)
			if err != nil {
				return writeErr(cmd, err)
			}
			tc := svc.Session.Task()
			if tc.OrderID == 0 {
				return writeErr(cmd, workflow.ErrNoActiveTask)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"task":   tc,
				"form":   workflow.NewFinishForm(tc),
				"anexos": svc.Session.Order().Annexes,
			}})
		},
	}
}

func newTasksFinishCmd(app *App) *cobra.Command {
	var ack bool
	var obs string
	var measurement string
	var from string
	var to string
	var expected string

	cmd := &cobra.Command{
		Use:   "finish",
		Short: "Finish the current task",
		Long:  "Finish the current task. --ack confirms the protocol was read and the task performed. When the backend reports the order completed, fill the checklist next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := workflow.ParseMeasurement(measurement)
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteTask)
			if err != nil {
				return writeErr(cmd, err)
			}
			form := workflow.NewFinishForm(svc.Session.Task())
			form.Acknowledged = ack
			form.Observation = obs
			form.Measurement = m
			form.RangeFrom = from
			form.RangeTo = to
			if cmd.Flags().Changed("expected") {
				form.ExpectedValue = expected
			}

			tc := svc.Session.Task()
			out, res, err := svc.Tasks.Finish(cmd.Context(), form)
			if err != nil {
				if errors.Is(err, workflow.ErrNotAcknowledged) {
					return writeErr(cmd, fmt.Errorf("%w (pass --ack)", err))
				}
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}

			var hints []string
			if out == workflow.ShowChecklist {
				hints = []string{"pautas checklist fill --answers si,si,si,si,si,si,si"}
			} else {
				hints = []string{fmt.Sprintf("pautas orders show %d", tc.OrderID)}
			}
			return writeOut(cmd, app, format.Envelope{
				Data:  map[string]any{"next": out.String(), "finish": res},
				Hints: hints,
			})
		},
	}

	cmd.Flags().BoolVar(&ack, "ack", false, "Confirm the protocol was read and the task performed")
	cmd.Flags().StringVar(&obs, "obs", "", "Observation")
	cmd.Flags().StringVar(&measurement, "measurement", "", "Found value: si|no|na")
	cmd.Flags().StringVar(&from, "from", "", "Measured range from")
	cmd.Flags().StringVar(&to, "to", "", "Measured range to")
	cmd.Flags().StringVar(&expected, "expected", "", "Expected value (defaults to the task's)")
	return cmd
}

func newTasksObsCmd(app *App) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "obs",
		Short: "Set your observation on the current task",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteTask)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := svc.Tasks.Observe(cmd.Context(), text); err != nil {
				return writeErr(cmd, surfaced(cmd.Context(), svc, err))
			}
			tc := svc.Session.Task()
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"order": tc.OrderID, "task": tc.TaskID, "obs": text}})
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Observation text")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
