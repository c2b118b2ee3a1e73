package workflow

import (
	"context"
	"fmt"
	"strings"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/model"
	"pautas-cli/internal/session"

	"github.com/rs/zerolog/log"
)

// Measurement is the found-value enum of the finish form.
type Measurement string

const (
	MeasurementNone Measurement = "0"
	MeasurementYes  Measurement = "1"
	MeasurementNo   Measurement = "2"
	MeasurementNA   Measurement = "3"
)

func ParseMeasurement(s string) (Measurement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "none":
		return MeasurementNone, nil
	case "1", "si", "sí", "yes":
		return MeasurementYes, nil
	case "2", "no":
		return MeasurementNo, nil
	case "3", "na", "n/a", "no aplica":
		return MeasurementNA, nil
	default:
		return MeasurementNone, fmt.Errorf("unknown measurement %q (want si|no|na)", s)
	}
}

func (m Measurement) Label() string {
	switch m {
	case MeasurementYes:
		return "Si"
	case MeasurementNo:
		return "No"
	case MeasurementNA:
		return "No Aplica"
	default:
		return "Seleccione"
	}
}

// FinishForm is the maintainer's report attached to a finished task.
type FinishForm struct {
	Acknowledged  bool        `json:"checkbox"`
	Observation   string      `json:"obs"`
	Measurement   Measurement `json:"medicion"`
	RangeFrom     string      `json:"rangoDesde"`
	RangeTo       string      `json:"rangoHasta"`
	ExpectedValue string      `json:"valorEsperado"`
}

// NewFinishForm pre-fills the expected value from the task definition.
func NewFinishForm(t model.TaskContext) FinishForm {
	expected := ""
	if t.Data != nil {
		expected = t.Data.ExpectedValue()
	}
	return FinishForm{Measurement: MeasurementNone, ExpectedValue: expected}
}

// Outcome is where the UI goes after a task is finished.
type Outcome int

const (
	BackToDetail Outcome = iota
	ShowChecklist
)

func (o Outcome) String() string {
	if o == ShowChecklist {
		return "checklist"
	}
	return "detail"
}

type TasksAPI interface {
	StartTask(ctx context.Context, code, n int) (*model.TaskStartResponse, error)
	FinishTask(ctx context.Context, code, n int, data any) (*model.TaskFinishResponse, error)
	ListTasks(ctx context.Context, code int) ([]model.Task, error)
	SetTaskObservation(ctx context.Context, code, n int, side apiclient.ObservationSide, text string) (*model.ObservationResponse, error)
}

// Tasks drives a maintainer through one task: open, report, finish.
type Tasks struct {
	api  TasksAPI
	sess *session.Session
}

func NewTasks(api TasksAPI, sess *session.Session) *Tasks {
	return &Tasks{api: api, sess: sess}
}

// Open focuses task n of the order and starts it on the backend. Finished
// tasks and closed orders cannot be opened.
func (t *Tasks) Open(ctx context.Context, d *model.OrderDetail, n int) (*model.TaskStartResponse, error) {
	if d.Order.Status.Closed() {
		return nil, ErrOrderClosed
	}
	if !hasTask(d, n) {
		return nil, ErrNoSuchTask
	}
	rec, _ := d.TaskByNumber(n)
	if rec.Status == model.TaskFinished {
		return nil, ErrTaskFinished
	}

	var def model.TaskDef
	if defs := d.Order.Data.Tasks(); n <= len(defs) {
		def = defs[n-1]
	}
	supCode := 0
	if d.Order.AssignedBy != nil {
		supCode = *d.Order.AssignedBy
	}
	tc := model.TaskContext{
		TaskID:            n,
		OrderID:           d.Order.Code,
		Data:              def,
		Protocol:          d.Order.Data.Protocols().At(n - 1),
		Observation:       rec.ObsAssignedBy,
		OrderObservation:  d.Order.Observation,
		DetailDescription: d.Order.Data.Description(),
		SupervisorName:    d.AssignedByName,
		SupervisorCode:    supCode,
	}
	if err := t.sess.SetTask(ctx, tc); err != nil {
		return nil, err
	}
	oc := t.sess.Order()
	oc.Active = d.Order.Code
	oc.TaskID = n
	if err := t.sess.SetOrder(ctx, oc); err != nil {
		return nil, err
	}

	// An in-progress task is reopened without restarting it.
	if rec.Status == model.TaskInProgress {
		return &model.TaskStartResponse{
			OrderCode:   d.Order.Code,
			TaskNumber:  n,
			Status:      rec.Status,
			InitTask:    rec.InitTask,
			OrderStatus: d.Order.Status,
		}, nil
	}
	res, err := t.api.StartTask(ctx, d.Order.Code, n)
	if err != nil {
		fail(ctx, t.sess, fmt.Sprintf("No se pudo iniciar la tarea %d.", n))
		return nil, err
	}
	log.Info().Int("order", d.Order.Code).Int("task", n).Msg("task started")
	return res, nil
}

// Finish submits the form for the task in the session. The outcome follows
// the order status the backend reports, not local task counting.
func (t *Tasks) Finish(ctx context.Context, form FinishForm) (Outcome, *model.TaskFinishResponse, error) {
	tc := t.sess.Task()
	if tc.OrderID == 0 || tc.TaskID == 0 {
		return BackToDetail, nil, ErrNoActiveTask
	}
	if !form.Acknowledged {
		return BackToDetail, nil, ErrNotAcknowledged
	}
	if form.Measurement == "" {
		form.Measurement = MeasurementNone
	}
	form.Observation = strings.TrimSpace(form.Observation)

	res, err := t.api.FinishTask(ctx, tc.OrderID, tc.TaskID, form)
	if err != nil {
		fail(ctx, t.sess, fmt.Sprintf("No se pudo finalizar la tarea %d.", tc.TaskID))
		return BackToDetail, nil, err
	}
	log.Info().Int("order", tc.OrderID).Int("task", tc.TaskID).Int("order_status", int(res.OrderStatus)).Msg("task finished")

	if res.OrderStatus == model.OrderCompleted {
		notify(ctx, t.sess, model.NotifySuccess, "Orden completada", "Complete el checklist de mantenimiento.", NoticeDuration)
		return ShowChecklist, res, nil
	}
	notify(ctx, t.sess, model.NotifySuccess, "Tarea finalizada", fmt.Sprintf("Tarea %d finalizada.", tc.TaskID), NoticeDuration)
	return BackToDetail, res, nil
}

// Observe sets the maintainer's own note on the task in the session.
func (t *Tasks) Observe(ctx context.Context, text string) error {
	tc := t.sess.Task()
	if tc.OrderID == 0 || tc.TaskID == 0 {
		return ErrNoActiveTask
	}
	if _, err := t.api.SetTaskObservation(ctx, tc.OrderID, tc.TaskID, apiclient.ObservationMaintainer, text); err != nil {
		fail(ctx, t.sess, "No se pudo guardar la observación.")
		return err
	}
	return nil
}

// Close drops the task focus, e.g. after the checklist is submitted.
func (t *Tasks) Close(ctx context.Context) error {
	if err := t.sess.SetTask(ctx, model.TaskContext{}); err != nil {
		return err
	}
	oc := t.sess.Order()
	oc.TaskID = 0
	return t.sess.SetOrder(ctx, oc)
}
