package workflow

import (
	"context"
	"errors"

	"pautas-cli/internal/model"
	"pautas-cli/internal/session"

	"github.com/rs/zerolog/log"
)

// User-facing messages shown through notifications or prompts.
const (
	MsgMissingSelection   = "Por favor, seleccione una pauta y un mantenedor."
	MsgMissingCredentials = "Por favor ingrese su usuario y contraseña."
	MsgBadCredentials     = "Usuario o contraseña incorrectos."
	MsgCancelConfirm      = "¿Estás seguro de que deseas cancelar la orden? Las tareas no completadas serán canceladas."
	MsgCancelReason       = "Ingrese las motivo de cancelación:"
	MsgObsConfirm         = "¿Desea agregar o modificar las observaciones para esta tarea?"
	MsgObsPrompt          = "Ingrese las observaciones:"
	MsgSessionExpired     = "La sesión expiró. Ingrese nuevamente."
)

var (
	ErrMissingSelection   = errors.New("order and maintainer must both be selected")
	ErrMissingCredentials = errors.New("user code and password are required")
	ErrAborted            = errors.New("aborted by user")
	ErrOrderClosed        = errors.New("order is completed or cancelled")
	ErrTaskFinished       = errors.New("task already finished")
	ErrNoSuchTask         = errors.New("order has no such task")
	ErrNoActiveTask       = errors.New("no task in progress")
	ErrNotAcknowledged    = errors.New("confirm the task was performed before finishing it")
	ErrNotPDF             = errors.New("only .pdf files can be imported")
	ErrDeactivateSelf     = errors.New("cannot deactivate the logged-in user")
	// ErrRefetch means the change was saved but reloading the list failed.
	ErrRefetch            = errors.New("change saved; reloading the list failed")
)

// Notification durations in milliseconds.
const (
	NoticeDuration = 3000
	ErrorDuration  = 5000
)

// notify raises a notification. The screen keeps working when the session
// store cannot persist it, so that failure is only logged.
func notify(ctx context.Context, sess *session.Session, kind model.NotificationKind, title, message string, durationMs int) {
	if err := sess.Notify(ctx, kind, title, message, durationMs); err != nil {
		log.Warn().Err(err).Str("title", title).Msg("persist notification")
	}
}

// fail raises a control error, shown as an error notification.
func fail(ctx context.Context, sess *session.Session, message string) {
	if err := sess.Fail(ctx, message); err != nil {
		log.Warn().Err(err).Str("message", message).Msg("persist control error")
	}
}

// persisted logs a session write that failed after the backend call went through.
func persisted(what string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("slice", what).Msg("persist session state")
	}
}
