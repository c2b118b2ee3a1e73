package workflow

import (
	"context"
	"errors"
	"time"

	"pautas-cli/internal/checklist"
	"pautas-cli/internal/model"
	"pautas-cli/internal/session"

	"github.com/rs/zerolog/log"
)

// StartChecklist opens a fresh checklist for the task in the session.
func StartChecklist(sess *session.Session, now time.Time) *checklist.Form {
	return checklist.NewForTask(sess.Task(), sess.User(), now)
}

// ReviewChecklist loads the checklist stored on an order for the current
// reviewer, or a fresh one when none was stored yet. A stored checklist that
// cannot be read is an error; starting blank would overwrite it on submit.
func ReviewChecklist(ctx context.Context, sess *session.Session, d *model.OrderDetail, now time.Time) (*checklist.Form, error) {
	doc, ok, err := checklist.DecodeStored(d.Order.Checklist)
	if err != nil {
		log.Warn().Err(err).Int("order", d.Order.Code).Msg("stored checklist unreadable")
		fail(ctx, sess, "No se pudo leer el checklist guardado de la orden.")
		return nil, err
	}
	if ok {
		return checklist.FromDocument(doc, sess.User(), now, d.Order.Code), nil
	}
	f := checklist.NewForTask(model.TaskContext{
		OrderID:           d.Order.Code,
		DetailDescription: d.Order.Data.Description(),
	}, sess.User(), now)
	f.Mode = checklist.ModeReview
	return f, nil
}

// SubmitChecklist sends the form. On success the task focus is dropped
// and the caller returns to the order list; a rejection detail is shown as
// a notification.
func SubmitChecklist(ctx context.Context, sess *session.Session, s checklist.Submitter, f *checklist.Form) (*model.MessageResponse, error) {
	res, err := f.Submit(ctx, s)
	var rejected *checklist.RejectedError
	switch {
	case errors.Is(err, checklist.ErrIncomplete), errors.Is(err, checklist.ErrReadOnly):
		return nil, err
	case errors.As(err, &rejected):
		msg := rejected.Detail
		if msg == "" {
			msg = "El checklist no fue aceptado."
		}
		notify(ctx, sess, model.NotifyError, "Checklist", msg, ErrorDuration)
		return res, err
	case err != nil:
		fail(ctx, sess, "No se pudo enviar el checklist.")
		return nil, err
	}
	log.Info().Int("order", f.Meta.OrderID).Msg("checklist submitted")
	notify(ctx, sess, model.NotifySuccess, "Checklist", res.Message, NoticeDuration)
	persisted("task", sess.SetTask(ctx, model.TaskContext{}))
	oc := sess.Order()
	oc.TaskID = 0
	persisted("order", sess.SetOrder(ctx, oc))
	return res, nil
}
