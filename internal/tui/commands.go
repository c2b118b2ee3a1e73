package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pautas-cli/internal/model"
	"pautas-cli/internal/report"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

const noticeTickInterval = 250 * time.Millisecond

type noticeTickMsg struct{}

func noticeTick() tea.Cmd {
	return tea.Tick(noticeTickInterval, func(time.Time) tea.Msg { return noticeTickMsg{} })
}

// Results of backend calls. Each carries copies so the model never reads
// workflow state that a later command may be writing.
type (
	routeMsg struct {
		route router.Route
		err   error
	}
	ordersMsg struct {
		orders []model.Order
		err    error
	}
	detailMsg struct {
		detail *model.OrderDetail
		err    error
	}
	maintainersMsg struct {
		list []model.Account
		err  error
	}
	assignedMsg struct {
		code int
		err  error
	}
	cancelledMsg struct{ err error }
	taskOpenedMsg struct {
		task model.TaskContext
		err  error
	}
	taskFinishedMsg struct {
		outcome workflow.Outcome
		orderID int
		err     error
	}
	noteSavedMsg     struct{ err error }
	checklistSentMsg struct{ err error }
	summaryMsg       struct {
		summary *model.Summary
		err     error
	}
	exportedMsg struct {
		path string
		err  error
	}
	adminMsg struct {
		users       []model.Account
		specialties []model.Specialty
		err         error
	}
	themeMsg  struct{ err error }
	logoutMsg struct{ err error }
)

func (m appModel) restoreCmd() tea.Cmd {
	ctx, svc, now := m.requestCtx(), m.svc, m.now()
	return func() tea.Msg {
		route, err := workflow.Restore(ctx, svc.Client, svc.Session, now)
		return routeMsg{route: route, err: err}
	}
}

func (m appModel) loginCmd(code, password string) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		route, err := workflow.Login(ctx, svc.Client, svc.Session, code, password)
		return routeMsg{route: route, err: err}
	}
}

func (m appModel) logoutCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		return logoutMsg{err: svc.Logout(ctx)}
	}
}

func (m appModel) toggleThemeCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		_, err := svc.Theme.Toggle(ctx)
		return themeMsg{err: err}
	}
}

func (m appModel) loadOrdersCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		err := svc.Orders.Refresh(ctx)
		return ordersMsg{orders: append([]model.Order(nil), svc.Orders.List...), err: err}
	}
}

func (m appModel) loadDetailCmd(code int) tea.Cmd {
	if code == 0 {
		return nil
	}
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		d, err := svc.Orders.Detail(ctx, code)
		return detailMsg{detail: d, err: err}
	}
}

func (m appModel) loadMaintainersCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		err := svc.Orders.LoadMaintainers(ctx)
		return maintainersMsg{list: append([]model.Account(nil), svc.Orders.Maintainers...), err: err}
	}
}

func (m appModel) assignCmd(code, maintainer int, obs, priority string) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		return assignedMsg{code: code, err: svc.Orders.Assign(ctx, code, maintainer, obs, priority)}
	}
}

func (m appModel) cancelCmd(code int, reason string) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		return cancelledMsg{err: svc.Orders.Cancel(ctx, code, workflow.Answers{Confirmed: true, Text: &reason})}
	}
}

func (m appModel) observationCmd(d *model.OrderDetail, n int, text string) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	side := sideFor(svc.Session.User().Role)
	return func() tea.Msg {
		nd, err := svc.Orders.SetObservation(ctx, d, n, side, workflow.Answers{Confirmed: true, Text: &text})
		return detailMsg{detail: nd, err: err}
	}
}

func (m appModel) openTaskCmd(d *model.OrderDetail, n int) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		_, err := svc.Tasks.Open(ctx, d, n)
		return taskOpenedMsg{task: svc.Session.Task(), err: err}
	}
}

func (m appModel) finishTaskCmd(form workflow.FinishForm) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	orderID := svc.Session.Task().OrderID
	return func() tea.Msg {
		outcome, _, err := svc.Tasks.Finish(ctx, form)
		return taskFinishedMsg{outcome: outcome, orderID: orderID, err: err}
	}
}

func (m appModel) taskNoteCmd(text string) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		return noteSavedMsg{err: svc.Tasks.Observe(ctx, text)}
	}
}

func (m appModel) submitChecklistCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	form := m.checklist.form
	return func() tea.Msg {
		_, err := workflow.SubmitChecklist(ctx, svc.Session, svc.Client, form)
		return checklistSentMsg{err: err}
	}
}

func (m appModel) loadSummaryCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		s, err := svc.Client.OrdersSummary(ctx)
		return summaryMsg{summary: s, err: err}
	}
}

func (m appModel) exportSummaryCmd() tea.Cmd {
	s := m.dash.summary
	if s == nil {
		return nil
	}
	mode, at := m.dash.sort, m.now()
	return func() tea.Msg {
		dir, err := os.Getwd()
		if err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, report.DefaultFileName(*s, at))
		return exportedMsg{path: path, err: report.SaveSummary(path, *s, mode, at)}
	}
}

func (m appModel) loadAdminCmd() tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		err := errors.Join(svc.Admin.RefreshUsers(ctx), svc.Admin.RefreshSpecialties(ctx))
		return adminMsg{
			users:       append([]model.Account(nil), svc.Admin.Users...),
			specialties: append([]model.Specialty(nil), svc.Admin.Specialties...),
			err:         err,
		}
	}
}

// adminCmd runs one admin mutation and returns the refreshed lists.
func (m appModel) adminCmd(op func(ctx context.Context) error) tea.Cmd {
	ctx, svc := m.requestCtx(), m.svc
	return func() tea.Msg {
		err := op(ctx)
		return adminMsg{
			users:       append([]model.Account(nil), svc.Admin.Users...),
			specialties: append([]model.Specialty(nil), svc.Admin.Specialties...),
			err:         err,
		}
	}
}

func (m appModel) uploadCmd(path string) tea.Cmd {
	svc := m.svc
	return m.adminCmd(func(ctx context.Context) error {
		if !isPDF(path) {
			return workflow.ErrNotPDF
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		_, err = svc.Admin.Upload(ctx, filepath.Base(path), f)
		return err
	})
}

// handleResult applies a finished backend call.
func (m appModel) handleResult(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case routeMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			m.view = viewLogin
			m.login.pass.SetValue("")
			return m, nil
		}
		m.refreshNote()
		m.login = newLoginState()
		if msg.route == router.RouteLogin {
			m.view = viewLogin
			return m, nil
		}
		return m.navigate(msg.route)

	case logoutMsg:
		m.busy = false
		m.surface(msg.err)
		m.orders = newOrdersState(m.svc.Store)
		m.detail = detailState{}
		m.dash = newDashboardState(m.svc.Store)
		m.admin = newAdminState()
		return m.navigate(router.RouteLogin)

	case themeMsg:
		m.busy = false
		m.surface(msg.err)
		return m, nil

	case ordersMsg:
		m.busy = false
		m.surface(msg.err)
		m.orders.all = msg.orders
		m.orders.apply()
		return m, nil

	case detailMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			if m.detail.order == nil {
				return m.navigate(router.RouteOrders)
			}
			return m, nil
		}
		m.refreshNote()
		m.detail.set(msg.detail)
		m.view = viewDetail
		return m, nil

	case maintainersMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		return m.pickMaintainer(msg.list), nil

	case assignedMsg:
		m.busy = false
		if errors.Is(msg.err, workflow.ErrRefetch) {
			log.Warn().Err(msg.err).Int("order", msg.code).Msg("assigned; list not reloaded")
		} else if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		m.refreshNote()
		return m.startBusy(m.loadDetailCmd(msg.code))

	case cancelledMsg:
		m.busy = false
		if errors.Is(msg.err, workflow.ErrRefetch) {
			log.Warn().Err(msg.err).Msg("cancelled; list not reloaded")
		} else if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		m.refreshNote()
		m.detail = detailState{}
		return m.navigate(router.RouteOrders)

	case taskOpenedMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		m.refreshNote()
		return m.navigate(router.RouteTask)

	case noteSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		logPersist("notification", m.svc.Session.Notify(m.ctx, model.NotifySuccess, "Observación", "Observación guardada.", workflow.NoticeDuration))
		m.refreshNote()
		return m, nil

	case taskFinishedMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		m.refreshNote()
		if msg.outcome == workflow.ShowChecklist {
			m.checklist = newChecklistState(workflow.StartChecklist(m.svc.Session, m.now()))
			return m.navigate(router.RouteChecklist)
		}
		return m.startBusy(m.loadDetailCmd(msg.orderID))

	case checklistSentMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		m.refreshNote()
		if m.svc.Session.User().IsMaintainer() {
			m.detail = detailState{}
			return m.navigate(router.RouteOrders)
		}
		return m.navigate(router.RouteOrderDetail)

	case summaryMsg:
		m.busy = false
		m.surface(msg.err)
		if msg.summary != nil {
			m.dash.summary = msg.summary
			m.dash.clamp()
		}
		return m, nil

	case exportedMsg:
		m.busy = false
		if msg.err != nil {
			m.surface(msg.err)
			return m, nil
		}
		logPersist("notification", m.svc.Session.Notify(m.ctx, model.NotifySuccess, "Resumen", "Exportado a "+msg.path, workflow.NoticeDuration))
		m.refreshNote()
		return m, nil

	case adminMsg:
		m.busy = false
		m.surface(msg.err)
		m.admin.users = msg.users
		m.admin.specialties = msg.specialties
		m.admin.clamp()
		return m, nil
	}
	return m, nil
}
