package cli

import (
	"errors"
	"fmt"
	"strings"

	"pautas-cli/internal/checklist"
	"pautas-cli/internal/format"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	"github.com/spf13/cobra"
)

type checklistFlags struct {
	answers        string
	notes          []string
	overall        string
	supervisorName string
	supervisorDate string
	supervisorSign string
}

func (f *checklistFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.answers, "answers", "", "Comma-separated answers for the 7 questions: si|no|na (blank keeps the current one)")
	cmd.Flags().StringArrayVar(&f.notes, "note", nil, "Per-question observation as <n>=<text> (repeatable)")
	cmd.Flags().StringVar(&f.overall, "overall", "", "Other observations")
	cmd.Flags().StringVar(&f.supervisorName, "supervisor-name", "", "Supervisor name (supervisors/admins only)")
	cmd.Flags().StringVar(&f.supervisorDate, "supervisor-date", "", "Sign-off date (supervisors/admins only)")
	cmd.Flags().StringVar(&f.supervisorSign, "supervisor-sign", "", "Signature code (supervisors/admins only)")
}

func (f *checklistFlags) apply(cmd *cobra.Command, form *checklist.Form) error {
	if strings.TrimSpace(f.answers) != "" {
		parts := strings.Split(f.answers, ",")
		if len(parts) > checklist.NumQuestions {
			return fmt.Errorf("--answers: got %d answers, the checklist has %d questions", len(parts), checklist.NumQuestions)
		}
		for i, p := range parts {
			if strings.TrimSpace(p) == "" {
				continue
			}
			a, err := checklist.ParseAnswer(p)
			if err != nil {
				return fmt.Errorf("--answers: question %d: %w", i+1, err)
			}
			if err := form.Select(i+1, a); err != nil {
				return err
			}
		}
	}
	for _, note := range f.notes {
		k, v, ok := strings.Cut(note, "=")
		if !ok {
			return fmt.Errorf("--note %q: want <n>=<text>", note)
		}
		n, err := parseCode("question number", k)
		if err != nil {
			return err
		}
		if err := form.SetObservation(n, v); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("overall") {
		if err := form.SetOverall(f.overall); err != nil {
			return err
		}
	}
	sup := map[checklist.SupervisorField]string{}
	if cmd.Flags().Changed("supervisor-name") {
		sup[checklist.SupervisorNombre] = f.supervisorName
	}
	if cmd.Flags().Changed("supervisor-date") {
		sup[checklist.SupervisorFecha] = f.supervisorDate
	}
	if cmd.Flags().Changed("supervisor-sign") {
		sup[checklist.SupervisorFirma] = f.supervisorSign
	}
	for field, v := range sup {
		if err := form.SetSupervisor(field, v); err != nil {
			return err
		}
	}
	return nil
}

type checklistRowView struct {
	N        int    `json:"n"`
	Question string `json:"item"`
	Answer   string `json:"estado"`
	Obs      string `json:"obs"`
}

type checklistView struct {
	Title       string             `json:"title"`
	Meta        checklist.Meta     `json:"meta"`
	Rows        []checklistRowView `json:"answers"`
	Overall     string             `json:"otras_observaciones"`
	Supervisor  any                `json:"supervisor"`
	Missing     []int              `json:"missing"`
	CanFinalize bool               `json:"canFinalize"`
	Signed      bool               `json:"signed"`
}

func toChecklistView(f *checklist.Form) checklistView {
	v := checklistView{
		Title:       checklist.Title,
		Meta:        f.Meta,
		Overall:     f.Overall,
		Supervisor:  f.Supervisor,
		Missing:     f.Missing(),
		CanFinalize: f.CanFinalize(),
		Signed:      f.Signed(),
	}
	if v.Missing == nil {
		v.Missing = []int{}
	}
	for i, r := range f.Rows {
		v.Rows = append(v.Rows, checklistRowView{N: i + 1, Question: checklist.Questions[i], Answer: r.Answer().Estado(), Obs: r.Obs})
	}
	return v
}

func newChecklistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "End-of-maintenance checklist",
	}
	cmd.AddCommand(newChecklistFillCmd(app))
	cmd.AddCommand(newChecklistShowCmd(app))
	cmd.AddCommand(newChecklistReviewCmd(app))
	return cmd
}

func submitChecklist(cmd *cobra.Command, app *App, svc *workflow.Services, form *checklist.Form) error {
	res, err := workflow.SubmitChecklist(cmd.Context(), svc.Session, svc.Client, form)
	if err != nil {
		if errors.Is(err, checklist.ErrIncomplete) {
			return writeErr(cmd, fmt.Errorf("%w: unanswered questions %v", err, form.Missing()))
		}
		return writeErr(cmd, surfaced(cmd.Context(), svc, err))
	}
	return writeOut(cmd, app, format.Envelope{
		Data:  map[string]any{"message": res.Message, "orden": form.Meta.OrderID},
		Hints: []string{"pautas orders list"},
	})
}

func newChecklistFillCmd(app *App) *cobra.Command {
	var flags checklistFlags

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill and submit the checklist for the task just finished",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.authorized(cmd.Context(), router.RouteChecklist)
			if err != nil {
				return writeErr(cmd, err)
			}
			if svc.Session.Task().OrderID == 0 {
				return writeErr(cmd, fmt.Errorf("%w; use `pautas checklist review <code>` for a stored checklist", workflow.ErrNoActiveTask))
			}
			form := workflow.StartChecklist(svc.Session, now())
			if err := flags.apply(cmd, form); err != nil {
				return writeErr(cmd, err)
			}
			return submitChecklist(cmd, app, svc, form)
		},
	}
	flags.register(cmd)
	return cmd
}

func newChecklistShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-code>",
		Short: "Show the checklist stored on an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteChecklist)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := svc.Orders.Detail(cmd.Context(), code)
			if err != nil {
				return writeErr(cmd, err)
			}
			form, err := workflow.ReviewChecklist(cmd.Context(), svc.Session, d, now())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: toChecklistView(form)})
		},
	}
}

func newChecklistReviewCmd(app *App) *cobra.Command {
	var flags checklistFlags

	cmd := &cobra.Command{
		Use:   "review <order-code>",
		Short: "Edit and resubmit the checklist stored on an order (supervisor sign-off)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseCode("order code", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			svc, err := app.authorized(cmd.Context(), router.RouteChecklist)
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := svc.Orders.Detail(cmd.Context(), code)
			if err != nil {
				return writeErr(cmd, err)
			}
			form, err := workflow.ReviewChecklist(cmd.Context(), svc.Session, d, now())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := flags.apply(cmd, form); err != nil {
				return writeErr(cmd, err)
			}
			return submitChecklist(cmd, app, svc, form)
		},
	}
	flags.register(cmd)
	return cmd
}
