package model

import (
	"strconv"
	"time"
)

// OrderContext is the "order" session slice: what the UI is focused on.
type OrderContext struct {
	Active        int      `json:"active"`
	CountTotal    int      `json:"countTotal"`
	CountAssigned int      `json:"countAssigned"`
	TaskID        int      `json:"task_id"`
	Annexes       []string `json:"anexos"`
	AnnexesActive bool     `json:"anexosActive"`
}

// TaskContext is the "task" session slice: the task a maintainer is executing.
type TaskContext struct {
	TaskID            int     `json:"task_id"`
	OrderID           int     `json:"order_id"`
	Data              TaskDef `json:"data,omitempty"`
	Protocol          string  `json:"protocolo"`
	Observation       string  `json:"obs"`
	OrderObservation  string  `json:"obs_orden"`
	DetailDescription string  `json:"detalle_mant"`
	SupervisorName    string  `json:"name_supervisor"`
	SupervisorCode    int     `json:"code_supervisor"`
}

type ChatState struct {
	Open   bool `json:"isOpen"`
	Unread int  `json:"msgCountUnread"`
}

type ControlState struct {
	Loading      bool   `json:"isLoading"`
	Error        bool   `json:"isError"`
	ErrorMessage string `json:"errorMessage"`
}

type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

type Notification struct {
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Kind       NotificationKind `json:"type_notification"`
	DurationMs int              `json:"duration"`
	Active     bool             `json:"active"`
	ShownAt    time.Time        `json:"shownAt,omitempty"`
}

// Expired reports whether an active notification has outlived its duration.
func (n Notification) Expired(now time.Time) bool {
	if !n.Active {
		return true
	}
	if n.DurationMs <= 0 || n.ShownAt.IsZero() {
		return false
	}
	return !now.Before(n.ShownAt.Add(time.Duration(n.DurationMs) * time.Millisecond))
}

func itoa(n int) string { return strconv.Itoa(n) }
