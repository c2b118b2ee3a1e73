package model

// Summary is the supervisor dashboard payload from GET /ordenes/summary.
type Summary struct {
	SupervisorCode int                  `json:"supervisor_code"`
	SpecialtyID    int                  `json:"specialty_id"`
	Maintainers    []MaintainerProgress `json:"assigned_maintainers"`
	Totals         SummaryTotals        `json:"totals"`
}

type SummaryTotals struct {
	Orders               int     `json:"orders"`
	OrdersCompleted      int     `json:"orders_completed"`
	OrdersCancelled      int     `json:"orders_cancelled"`
	Tasks                int     `json:"tasks"`
	TasksCompleted       int     `json:"tasks_completed"`
	TasksCancelled       int     `json:"tasks_cancelled"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	EstimatedHours       float64 `json:"horas_estimadas"`
}

type MaintainerProgress struct {
	Code             int             `json:"code"`
	Name             *string         `json:"nombre"`
	OrdersTotal      int             `json:"orders_total"`
	OrdersCompleted  int             `json:"orders_completed"`
	OrdersCancelled  int             `json:"orders_cancelled"`
	OrdersInProgress int             `json:"orders_in_progress"`
	OrdersPending    int             `json:"orders_pending"`
	TasksTotal       int             `json:"tasks_total"`
	TasksCompleted   int             `json:"tasks_completed"`
	TasksCancelled   int             `json:"tasks_cancelled"`
	Orders           []OrderProgress `json:"orders"`
}

// DisplayName falls back to the code when the backend has no name on file.
func (m MaintainerProgress) DisplayName() string {
	if m.Name != nil && *m.Name != "" {
		return *m.Name
	}
	if m.Code == 0 {
		return "Sin asignar"
	}
	return "Mantenedor " + itoa(m.Code)
}

type OrderProgress struct {
	Code                 int         `json:"code"`
	Status               OrderStatus `json:"status"`
	TasksCompleted       int         `json:"tasks_completed"`
	TasksCancelled       int         `json:"tasks_cancelled"`
	TasksTotal           int         `json:"tasks_total"`
	EstimatedHours       float64     `json:"horas_estimadas"`
	TotalDurationSeconds *float64    `json:"total_duration_seconds"`
}
