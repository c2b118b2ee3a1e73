// Package checklist implements the end-of-maintenance checklist a maintainer
// fills when an order's last task is finished and a supervisor later reviews.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pautas-cli/internal/model"
)

const Title = "CHECK LIST TERMINO DE MANTENCIÓN"

// Questions are fixed; answers are positional.
var Questions = [...]string{
	"¿Verifico que retiro todas las herramientas utilizadas en la mantencion y limpio antes de guardar?",
	"¿Verifico que retiro todos los insumos utilizados en la maquina? (Ejm: Grasas, trapos, envases, carton, etc).",
	"¿Verifico que retiro todos los repuestos en la maquina y los deja en lugar correcto?",
	"¿Verifico que se encuentran puestas todas las tapas y protecciones?",
	"¿Dejo limpio y ordenado los sectores donde trabajo?",
	"¿Retiro todos los dispositivos de bloqueo y/o lockout?",
	"¿Probo el equipo antes de la puesta en marcha?",
}

const NumQuestions = len(Questions)

const dateLayout = "2006-01-02"

var (
	ErrIncomplete = errors.New("checklist incomplete: every question needs an answer")
	ErrReadOnly   = errors.New("supervisor section is read-only for this user")
	ErrSigned     = fmt.Errorf("%w: checklist already signed by a supervisor", ErrReadOnly)
	ErrOutOfRange = errors.New("question number out of range")
)

// RejectedError is returned when the backend accepted the request but did
// not confirm the update.
type RejectedError struct {
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return "checklist not saved"
	}
	return "checklist not saved: " + e.Detail
}

type Answer int

const (
	Unset Answer = iota
	Si
	No
	NA
)

// Estado is the stored form of an answer.
func (a Answer) Estado() string {
	switch a {
	case Si:
		return "SI"
	case No:
		return "NO"
	case NA:
		return "NA"
	default:
		return ""
	}
}

// ParseAnswer accepts si/no/na in any case (also "n/a").
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "si", "sí", "s", "yes", "y":
		return Si, nil
	case "no", "n":
		return No, nil
	case "na", "n/a", "no aplica":
		return NA, nil
	case "":
		return Unset, nil
	default:
		return Unset, fmt.Errorf("invalid answer %q (want si|no|na)", s)
	}
}

// Row holds the three mutually exclusive flags for one question.
type Row struct {
	Si  bool   `json:"si"`
	No  bool   `json:"no"`
	NA  bool   `json:"na"`
	Obs string `json:"obs"`
}

func (r Row) Answer() Answer {
	switch {
	case r.Si:
		return Si
	case r.No:
		return No
	case r.NA:
		return NA
	default:
		return Unset
	}
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeReview
)

type Meta struct {
	TaskID         int    `json:"task_id"`
	DetalleMant    string `json:"detalle_mant"`
	OrderID        int    `json:"order_id"`
	MantenedorCode int    `json:"mantenedor_code"`
	MantenedorName string `json:"mantenedor_name"`
	Fecha          string `json:"fecha"`
}

// SupervisorField names one field of the sign-off block.
type SupervisorField string

const (
	SupervisorNombre SupervisorField = "nombre"
	SupervisorFecha  SupervisorField = "fecha"
	SupervisorFirma  SupervisorField = "firma"
)

type Form struct {
	Mode       Mode
	Meta       Meta
	Rows       [NumQuestions]Row
	Overall    string
	Supervisor model.ChecklistSupervisor

	supervisorEditable bool
	signed             bool
}

// NewForTask starts an empty checklist for the task the maintainer just finished.
func NewForTask(task model.TaskContext, user model.User, today time.Time) *Form {
	return &Form{
		Mode: ModeCreate,
		Meta: Meta{
			TaskID:         task.TaskID,
			DetalleMant:    task.DetailDescription,
			OrderID:        task.OrderID,
			MantenedorCode: user.Code,
			MantenedorName: user.Name,
			Fecha:          today.Format(dateLayout),
		},
		supervisorEditable: user.Role != model.RoleMaintainer,
	}
}

// FromDocument loads a stored checklist for review. An unsigned sign-off
// block is prefilled with the reviewer; a signed one is kept and the whole
// form becomes read-only. fallbackOrder is used when the document has no
// order id.
func FromDocument(doc model.ChecklistDocument, reviewer model.User, today time.Time, fallbackOrder int) *Form {
	f := &Form{
		Mode: ModeReview,
		Meta: Meta{
			TaskID:         doc.TaskID,
			DetalleMant:    doc.DetalleMant,
			OrderID:        doc.OrderID,
			MantenedorCode: doc.MantenedorCode,
			MantenedorName: doc.MantenedorName,
			Fecha:          doc.Fecha,
		},
		Overall: doc.OtrasObservaciones,
		Supervisor: model.ChecklistSupervisor{
			Nombre: reviewer.Name,
			Fecha:  today.Format(dateLayout),
			Firma:  strconv.Itoa(reviewer.Code),
		},
		supervisorEditable: reviewer.Role != model.RoleMaintainer,
	}
	if doc.Supervisor.Signed() {
		f.Supervisor = doc.Supervisor
		f.supervisorEditable = false
		f.signed = true
	}
	if f.Meta.OrderID == 0 {
		f.Meta.OrderID = fallbackOrder
	}
	for i, ans := range doc.Answers {
		pos := i
		if ans.Item >= 1 && ans.Item <= NumQuestions {
			pos = ans.Item - 1
		}
		if pos >= NumQuestions {
			continue
		}
		a, _ := ParseAnswer(ans.Estado)
		f.Rows[pos] = rowFor(a)
		f.Rows[pos].Obs = ans.Obs
	}
	return f
}

func rowFor(a Answer) Row {
	return Row{Si: a == Si, No: a == No, NA: a == NA}
}

func index(n int) (int, error) {
	if n < 1 || n > NumQuestions {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}
	return n - 1, nil
}

// Select sets the answer for question n (1-based). The other two flags of
// that question are cleared.
func (f *Form) Select(n int, a Answer) error {
	if f.signed {
		return ErrSigned
	}
	i, err := index(n)
	if err != nil {
		return err
	}
	if a == Unset {
		return fmt.Errorf("question %d: an answer is required", n)
	}
	obs := f.Rows[i].Obs
	f.Rows[i] = rowFor(a)
	f.Rows[i].Obs = obs
	return nil
}

func (f *Form) SetObservation(n int, text string) error {
	if f.signed {
		return ErrSigned
	}
	i, err := index(n)
	if err != nil {
		return err
	}
	f.Rows[i].Obs = text
	return nil
}

func (f *Form) SetOverall(text string) error {
	if f.signed {
		return ErrSigned
	}
	f.Overall = text
	return nil
}

func (f *Form) SupervisorEditable() bool { return f.supervisorEditable }

// Signed reports whether the form was loaded with a supervisor sign-off.
func (f *Form) Signed() bool { return f.signed }

func (f *Form) SetSupervisor(field SupervisorField, value string) error {
	if f.signed {
		return ErrSigned
	}
	if !f.supervisorEditable {
		return ErrReadOnly
	}
	switch field {
	case SupervisorNombre:
		f.Supervisor.Nombre = value
	case SupervisorFecha:
		f.Supervisor.Fecha = value
	case SupervisorFirma:
		f.Supervisor.Firma = value
	default:
		return fmt.Errorf("unknown supervisor field %q", field)
	}
	return nil
}

// Missing lists unanswered question numbers (1-based).
func (f *Form) Missing() []int {
	var out []int
	for i, r := range f.Rows {
		if r.Answer() == Unset {
			out = append(out, i+1)
		}
	}
	return out
}

func (f *Form) CanFinalize() bool { return len(f.Missing()) == 0 }

// Document serializes the form. It fails while any question is unanswered.
func (f *Form) Document() (model.ChecklistDocument, error) {
	if !f.CanFinalize() {
		return model.ChecklistDocument{}, ErrIncomplete
	}
	answers := make([]model.ChecklistAnswer, 0, NumQuestions)
	for i, r := range f.Rows {
		answers = append(answers, model.ChecklistAnswer{
			Item:   i + 1,
			Estado: r.Answer().Estado(),
			Obs:    strings.TrimSpace(r.Obs),
		})
	}
	return model.ChecklistDocument{
		TaskID:             f.Meta.TaskID,
		DetalleMant:        f.Meta.DetalleMant,
		OrderID:            f.Meta.OrderID,
		MantenedorCode:     f.Meta.MantenedorCode,
		MantenedorName:     f.Meta.MantenedorName,
		Fecha:              f.Meta.Fecha,
		Answers:            answers,
		OtrasObservaciones: strings.TrimSpace(f.Overall),
		Supervisor:         f.Supervisor,
	}, nil
}

// Submitter stores a checklist document; *apiclient.Client implements it.
type Submitter interface {
	UpdateChecklist(ctx context.Context, code int, doc any) (*model.MessageResponse, error)
}

// Submit sends the document for the form's order. Nothing is sent while the
// form is incomplete.
func (f *Form) Submit(ctx context.Context, s Submitter) (*model.MessageResponse, error) {
	if f.signed {
		return nil, ErrSigned
	}
	doc, err := f.Document()
	if err != nil {
		return nil, err
	}
	if f.Meta.OrderID == 0 {
		return nil, errors.New("checklist has no order")
	}
	res, err := s.UpdateChecklist(ctx, f.Meta.OrderID, doc)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Message == "" {
		detail := ""
		if res != nil {
			detail = res.Detail
		}
		return res, &RejectedError{Detail: detail}
	}
	return res, nil
}

// DecodeStored converts the checkListDict map stored on an order into a
// document. ok is false when nothing was stored; err is set when something
// was stored but could not be read.
func DecodeStored(raw map[string]any) (doc model.ChecklistDocument, ok bool, err error) {
	if len(raw) == 0 {
		return model.ChecklistDocument{}, false, nil
	}
	if err := remarshal(raw, &doc); err != nil {
		return model.ChecklistDocument{}, false, fmt.Errorf("decode stored checklist: %w", err)
	}
	return doc, len(doc.Answers) > 0, nil
}
