package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type OrderStatus int

const (
	OrderPending    OrderStatus = 0
	OrderInProgress OrderStatus = 1
	OrderCompleted  OrderStatus = 2
	OrderCancelled  OrderStatus = 3
)

func (s OrderStatus) Label() string {
	switch s {
	case OrderPending:
		return "Pendiente"
	case OrderInProgress:
		return "En Proceso"
	case OrderCompleted:
		return "Completada"
	case OrderCancelled:
		return "Cancelada"
	default:
		return "Desconocido"
	}
}

// Closed reports whether the order accepts no further work.
func (s OrderStatus) Closed() bool {
	return s == OrderCompleted || s == OrderCancelled
}

type TaskStatus int

const (
	TaskPending    TaskStatus = 0
	TaskInProgress TaskStatus = 1
	TaskFinished   TaskStatus = 2
	TaskCancelled  TaskStatus = 3
)

func (s TaskStatus) Label() string {
	switch s {
	case TaskPending:
		return "Pendiente"
	case TaskInProgress:
		return "En Progreso"
	case TaskFinished:
		return "Finalizada"
	case TaskCancelled:
		return "Cancelada"
	default:
		return "Desconocido"
	}
}

// TaskDef is one row of the task table imported from the source system.
type TaskDef map[string]any

func (d TaskDef) str(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (d TaskDef) Description() string { return d.str("Descripcion") }
func (d TaskDef) Workshop() string { return d.str("Taller") }
func (d TaskDef) EstimatedHours() string { return d.str("Hs Estim") }
func (d TaskDef) ExpectedValue() string { return d.str("Valor esperado") }
func (d TaskDef) StandardTask() string { return d.str("Tarea Standard") }
func (d TaskDef) Sequence() string { return d.str("Numero sec oper") }

// Protocols holds the per-task safety annexes. The backend sends either a
// list of strings or an empty string when the source record had none.
type Protocols []string

func (p *Protocols) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*p = nil
		} else {
			*p = Protocols{s}
		}
		return nil
	}
	var xs []string
	if err := json.Unmarshal(b, &xs); err != nil {
		return err
	}
	*p = xs
	return nil
}

// At returns the annex for the zero-based task index or "".
func (p Protocols) At(i int) string {
	if i < 0 || i >= len(p) {
		return ""
	}
	return p[i]
}

// Order is a list entry from GET /ordenes.
type Order struct {
	Code           int         `json:"code"`
	StartDate      *string     `json:"fecha_inicial,omitempty"`
	DueDate        *string     `json:"fecha_vencimiento,omitempty"`
	FrequencyDays  *int        `json:"frecuencia_dias,omitempty"`
	EstimatedHours float64     `json:"horas_estimadas"`
	TaskCount      int         `json:"task_number"`
	Priority       *int        `json:"prioridad"`
	AssignedBy     *int        `json:"assigned_by"`
	AssignedByName string      `json:"assigned_by_name,omitempty"`
	AssignedTo     *int        `json:"assigned_to"`
	AssignedToName string      `json:"assigned_to_name,omitempty"`
	Status         OrderStatus `json:"status"`
	Specialty      string      `json:"speciality"`
	SpecialtyID    int         `json:"specialty_id"`
	Observation    string      `json:"obs_orden"`
	Description    string      `json:"descripcion,omitempty"`
	Tasks          []TaskDef   `json:"tareas,omitempty"`
	ServiceType    string      `json:"tipo_servicio,omitempty"`
	Protocols      Protocols   `json:"protocolos,omitempty"`
}

func (o Order) Assigned() bool { return o.AssignedTo != nil && *o.AssignedTo != 0 }

// OrderRecord is the full order row returned inside GET /ordenes/{code}.
type OrderRecord struct {
	Code                 int            `json:"code"`
	StartDate            *string        `json:"fecha_inicial,omitempty"`
	DueDate              *string        `json:"fecha_vencimiento,omitempty"`
	FrequencyDays        *int           `json:"frecuencia_dias,omitempty"`
	EstimatedHours       float64        `json:"horas_estimadas"`
	TaskCount            int            `json:"task_number"`
	Priority             *int           `json:"prioridad"`
	AssignedBy           *int           `json:"assigned_by"`
	AssignedTo           *int           `json:"assigned_to"`
	Status               OrderStatus    `json:"status"`
	Specialty            string         `json:"speciality"`
	SpecialtyID          int            `json:"specialty_id"`
	Observation          string         `json:"obs_orden"`
	CancelReason         string         `json:"obs_orden_cancelada,omitempty"`
	TotalDurationSeconds *float64       `json:"total_duration_seconds,omitempty"`
	Data                 SourceData     `json:"data"`
	Checklist            map[string]any `json:"checkListDict,omitempty"`
}

// SourceData wraps the free-form record parsed from the imported PDF.
type SourceData struct {
	Fields map[string]any `json:"data"`
}

// Field returns a display string for a source field, "N/A" when missing.
func (d SourceData) Field(key string) string {
	v, ok := d.Fields[key]
	if !ok || v == nil {
		return "N/A"
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return "N/A"
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (d SourceData) Description() string { return d.Field("Descripcion") }

// Tasks decodes the "Tareas" table from the source record.
func (d SourceData) Tasks() []TaskDef {
	raw, ok := d.Fields["Tareas"].([]any)
	if !ok {
		return nil
	}
	out := make([]TaskDef, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			out = append(out, TaskDef(m))
		}
	}
	return out
}

func (d SourceData) Protocols() Protocols {
	switch t := d.Fields["Protocolos"].(type) {
	case []any:
		out := make(Protocols, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) != "" {
			return Protocols{t}
		}
	}
	return nil
}

// Task is the execution record for one task of an order.
type Task struct {
	OrderCode       int            `json:"order_code"`
	Number          int            `json:"task_number"`
	CompletedBy     *int           `json:"completed_by,omitempty"`
	InitTask        *string        `json:"init_task,omitempty"`
	EndTask         *string        `json:"end_task,omitempty"`
	ObsAssignedBy   string         `json:"obs_assigned_by"`
	ObsAssignedTo   string         `json:"obs_assigned_to"`
	Data            map[string]any `json:"data,omitempty"`
	Status          TaskStatus     `json:"status"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`
}

// OrderDetail is the body of GET /ordenes/{code}.
type OrderDetail struct {
	Order          OrderRecord `json:"orden"`
	AssignedByName string      `json:"assigned_by_name,omitempty"`
	AssignedToName string      `json:"assigned_to_name,omitempty"`
	Tasks          []Task      `json:"tasks"`
}

// TaskByNumber returns the execution record for a one-based task number.
func (d OrderDetail) TaskByNumber(n int) (Task, bool) {
	for _, t := range d.Tasks {
		if t.Number == n {
			return t, true
		}
	}
	return Task{}, false
}

// FormatDate renders a backend timestamp as dd-mm-yyyy, "N/A" if missing.
func FormatDate(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "N/A"
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("02-01-2006")
		}
	}
	return v
}

// FormatDuration renders seconds as "1h 02m" / "3m 04s".
func FormatDuration(sec *float64) string {
	if sec == nil {
		return "N/A"
	}
	d := time.Duration(*sec * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// TaskStartResponse is the body of PATCH .../start.
type TaskStartResponse struct {
	OrderCode   int         `json:"order_code"`
	TaskNumber  int         `json:"task_number"`
	Status      TaskStatus  `json:"status"`
	InitTask    *string     `json:"init_task,omitempty"`
	OrderStatus OrderStatus `json:"order_status"`
	Detail      string      `json:"detail,omitempty"`
}

// TaskFinishResponse is the body of PATCH .../finish.
type TaskFinishResponse struct {
	OrderCode   int            `json:"order_code"`
	TaskNumber  int            `json:"task_number"`
	Status      TaskStatus     `json:"status"`
	InitTask    *string        `json:"init_task,omitempty"`
	EndTask     *string        `json:"end_task,omitempty"`
	OrderStatus OrderStatus    `json:"order_status"`
	Data        map[string]any `json:"data,omitempty"`
}

type AssignRequest struct {
	AssignedTo  int    `json:"assigned_to"`
	Observation string `json:"obs_orden"`
	Priority    *int   `json:"prioridad"`
}

// MessageResponse is the generic {"message": ..., "orden": ...} reply.
type MessageResponse struct {
	Message string `json:"message"`
	Order   int    `json:"orden,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type ObservationResponse struct {
	OrderCode     int    `json:"order_code"`
	TaskNumber    int    `json:"task_number"`
	ObsAssignedBy string `json:"obs_assigned_by,omitempty"`
	ObsAssignedTo string `json:"obs_assigned_to,omitempty"`
}

type UploadResponse struct {
	Orders []int `json:"ordenes"`
}
