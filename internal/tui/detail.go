package tui

import (
	"fmt"
	"strconv"
	"strings"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/format"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/workflow"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type detailState struct {
	order  *model.OrderDetail
	cursor int

	// Assignment in progress.
	assignTo int
}

func (s *detailState) set(d *model.OrderDetail) {
	s.order = d
	if n := s.taskCount(); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
}

func (s detailState) taskCount() int {
	if s.order == nil {
		return 0
	}
	return max(len(s.order.Order.Data.Tasks()), len(s.order.Tasks))
}

// taskNumber is the one-based number of the selected task.
func (s detailState) taskNumber() int { return s.cursor + 1 }

func sideFor(role model.Role) apiclient.ObservationSide {
	if role == model.RoleMaintainer {
		return apiclient.ObservationMaintainer
	}
	return apiclient.ObservationSupervisor
}

func (m appModel) updateDetail(msg tea.KeyMsg) (appModel, tea.Cmd) {
	d := m.detail.order
	if d == nil {
		if msg.String() == "esc" {
			return m.navigate(router.RouteOrders)
		}
		return m, nil
	}
	role := m.svc.Session.User().Role

	switch msg.String() {
	case "esc":
		return m.navigate(router.RouteOrders)
	case "up", "k":
		if m.detail.cursor > 0 {
			m.detail.cursor--
		}
	case "down", "j":
		if m.detail.cursor < m.detail.taskCount()-1 {
			m.detail.cursor++
		}
	case "r":
		return m.startBusy(m.loadDetailCmd(d.Order.Code))
	case "x":
		return m.showAnnexes(), nil
	case "K":
		if d.Order.Status == model.OrderCompleted {
			form, err := workflow.ReviewChecklist(m.ctx, m.svc.Session, d, m.now())
			if err != nil {
				m.surface(err)
				return m, nil
			}
			m.checklist = newChecklistState(form)
			return m.navigate(router.RouteChecklist)
		}
	case "o":
		return m.askObservation()
	case "enter", "s":
		if role == model.RoleMaintainer {
			return m.startBusy(m.openTaskCmd(d, m.detail.taskNumber()))
		}
	case "a":
		if role == model.RoleSupervisor {
			if d.Order.Status.Closed() {
				m.surface(workflow.ErrOrderClosed)
				return m, nil
			}
			return m.startBusy(m.loadMaintainersCmd())
		}
	case "c":
		if role == model.RoleSupervisor {
			return m.askCancel(), nil
		}
	}
	return m, nil
}

func (m appModel) detailHelp() string {
	parts := []string{"↑/↓: tarea", "o: observación", "x: anexos", "r: recargar"}
	switch m.svc.Session.User().Role {
	case model.RoleMaintainer:
		parts = append([]string{"enter: iniciar tarea"}, parts...)
	case model.RoleSupervisor:
		parts = append([]string{"a: asignar", "c: cancelar"}, parts...)
	}
	if m.detail.order != nil && m.detail.order.Order.Status == model.OrderCompleted {
		parts = append(parts, "K: checklist")
	}
	return strings.Join(parts, "   ")
}

func (m appModel) showAnnexes() appModel {
	d := m.detail.order
	oc := m.svc.Session.Order()
	oc.AnnexesActive = true
	logPersist("order", m.svc.Session.SetOrder(m.ctx, oc))

	m.modal = modalAnnexes
	m.modalTitle = "Anexos"
	m.modalBody = format.RenderMarkdown(format.AnnexesMarkdown(d.Order.Code, oc.Annexes), modalBodyWidth(m.width), m.svc.Theme.Current() == model.ThemeDark)
	return m
}

// askObservation asks for confirmation, then for the text prefilled with
// the current note of this side.
func (m appModel) askObservation() (appModel, tea.Cmd) {
	d := m.detail.order
	if d.Order.Status.Closed() {
		m.surface(workflow.ErrOrderClosed)
		return m, nil
	}
	n := m.detail.taskNumber()
	rec, ok := d.TaskByNumber(n)
	if !ok {
		m.surface(workflow.ErrNoSuchTask)
		return m, nil
	}
	current := rec.ObsAssignedBy
	if m.svc.Session.User().Role == model.RoleMaintainer {
		current = rec.ObsAssignedTo
	}
	title := fmt.Sprintf("Tarea %d", n)
	return m.confirm(title, workflow.MsgObsConfirm, func(m appModel) (appModel, tea.Cmd) {
		return m.ask(title, workflow.MsgObsPrompt, current, false, func(m appModel, text string) (appModel, tea.Cmd) {
			return m.startBusy(m.observationCmd(d, n, text))
		})
	}), nil
}

func (m appModel) askCancel() appModel {
	code := m.detail.order.Order.Code
	title := fmt.Sprintf("Cancelar orden %d", code)
	return m.confirmDestructive(title, workflow.MsgCancelConfirm, func(m appModel) (appModel, tea.Cmd) {
		return m.ask(title, workflow.MsgCancelReason, "", false, func(m appModel, reason string) (appModel, tea.Cmd) {
			return m.startBusy(m.cancelCmd(code, reason))
		})
	})
}

// pickMaintainer runs the assignment: maintainer, then priority, then the
// note for the maintainer.
func (m appModel) pickMaintainer(maintainers []model.Account) appModel {
	d := m.detail.order
	if d == nil {
		return m
	}
	code := d.Order.Code
	return m.choose(fmt.Sprintf("Asignar orden %d", code), maintainerItems(maintainers), func(m appModel, it list.Item) (appModel, tea.Cmd) {
		mi, ok := it.(maintainerItem)
		if !ok {
			return m, nil
		}
		m.detail.assignTo = mi.account.Code
		prio := ""
		if d.Order.Priority != nil && *d.Order.Priority > 0 {
			prio = strconv.Itoa(*d.Order.Priority)
		}
		return m.ask("Prioridad", "Prioridad (1-3, vacío para ninguna):", prio, false, func(m appModel, priority string) (appModel, tea.Cmd) {
			return m.ask("Observación", "Observación para el mantenedor:", d.Order.Observation, false, func(m appModel, obs string) (appModel, tea.Cmd) {
				return m.startBusy(m.assignCmd(code, m.detail.assignTo, obs, priority))
			})
		})
	})
}

func (m appModel) viewDetail(width int) string {
	d := m.detail.order
	if d == nil {
		return styleMuted().Render("Cargando pauta…")
	}
	o := d.Order
	prio := "-"
	if o.Priority != nil && *o.Priority > 0 {
		prio = strconv.Itoa(*o.Priority)
	}
	head := renderKV(width, [][2]string{
		{"Código", strconv.Itoa(o.Code)},
		{"Descripción", o.Data.Description()},
		{"Estado", o.Status.Label()},
		{"Prioridad", prio},
		{"Inicio", model.FormatDate(o.StartDate)},
		{"Vencimiento", model.FormatDate(o.DueDate)},
		{"Asignada por", orDash(d.AssignedByName)},
		{"Asignada a", orDash(d.AssignedToName)},
		{"Observación", orDash(o.Observation)},
		{"Duración", model.FormatDuration(o.TotalDurationSeconds)},
	})
	if o.CancelReason != "" {
		head += "\n" + renderKV(width, [][2]string{{"Motivo cancelación", o.CancelReason}})
	}

	widths := []int{4, 0, 12, 17, 17}
	var b strings.Builder
	b.WriteString(head + "\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(renderRow(width, widths, []string{"N°", "Tarea", "Estado", "Inicio", "Término"})) + "\n")

	defs := o.Data.Tasks()
	for i := 0; i < m.detail.taskCount(); i++ {
		n := i + 1
		desc := ""
		if i < len(defs) {
			desc = defs[i].Description()
		}
		status, start, end := model.TaskPending.Label(), "N/A", "N/A"
		var notes []string
		if t, ok := d.TaskByNumber(n); ok {
			status = t.Status.Label()
			start = model.FormatDate(t.InitTask)
			end = model.FormatDate(t.EndTask)
			if t.ObsAssignedBy != "" {
				notes = append(notes, "sup: "+t.ObsAssignedBy)
			}
			if t.ObsAssignedTo != "" {
				notes = append(notes, "mant: "+t.ObsAssignedTo)
			}
		}
		row := renderRow(width, widths, []string{strconv.Itoa(n), desc, status, start, end})
		if i == m.detail.cursor {
			row = styleSelected().Render(row)
		}
		b.WriteString(row + "\n")
		if len(notes) > 0 {
			b.WriteString(styleMuted().Render(truncate("     "+strings.Join(notes, "  |  "), width)) + "\n")
		}
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
