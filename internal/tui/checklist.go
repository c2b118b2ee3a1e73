package tui

import (
	"fmt"
	"strings"

	"pautas-cli/internal/checklist"
	"pautas-cli/internal/router"

	tea "github.com/charmbracelet/bubbletea"
)

// Checklist rows: the questions, the overall note, then the sign-off block.
const (
	rowOverall = checklist.NumQuestions + iota
	rowSupNombre
	rowSupFecha
	rowSupFirma
	numChecklistRows
)

var supervisorRows = map[int]checklist.SupervisorField{
	rowSupNombre: checklist.SupervisorNombre,
	rowSupFecha:  checklist.SupervisorFecha,
	rowSupFirma:  checklist.SupervisorFirma,
}

type checklistState struct {
	form *checklist.Form
	row  int
}

func newChecklistState(f *checklist.Form) checklistState {
	return checklistState{form: f}
}

func (m appModel) updateChecklist(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.checklist
	f := s.form
	if f == nil {
		return m.navigate(router.RouteOrders)
	}

	switch msg.String() {
	case "esc":
		if f.Mode == checklist.ModeCreate {
			return m.confirmDestructive("Checklist", "¿Salir sin enviar el checklist?", func(m appModel) (appModel, tea.Cmd) {
				return m.navigate(router.RouteOrders)
			}), nil
		}
		return m.navigate(router.RouteOrderDetail)
	case "up", "k":
		if s.row > 0 {
			s.row--
		}
		return m, nil
	case "down", "j", "tab":
		if s.row < numChecklistRows-1 {
			s.row++
		}
		return m, nil
	case "ctrl+s":
		if f.Signed() {
			m.surface(checklist.ErrSigned)
			return m, nil
		}
		if missing := f.Missing(); len(missing) > 0 {
			m.surface(fmt.Errorf("%w: %v", checklist.ErrIncomplete, missing))
			s.row = missing[0] - 1
			return m, nil
		}
		return m.startBusy(m.submitChecklistCmd())
	}

	if f.Signed() {
		if msg.String() == "enter" || len(msg.Runes) > 0 {
			m.surface(checklist.ErrSigned)
		}
		return m, nil
	}

	if s.row < checklist.NumQuestions {
		n := s.row + 1
		var a checklist.Answer
		switch msg.String() {
		case "s", "1":
			a = checklist.Si
		case "n", "2":
			a = checklist.No
		case "a", "3":
			a = checklist.NA
		case "enter", "o":
			return m.ask(fmt.Sprintf("Pregunta %d", n), "Observación:", f.Rows[s.row].Obs, false, func(m appModel, text string) (appModel, tea.Cmd) {
				_ = m.checklist.form.SetObservation(n, text)
				return m, nil
			})
		default:
			return m, nil
		}
		_ = f.Select(n, a)
		if s.row < checklist.NumQuestions-1 {
			s.row++
		}
		return m, nil
	}

	if msg.String() != "enter" {
		return m, nil
	}
	if s.row == rowOverall {
		return m.ask("Otras observaciones", "Otras observaciones:", f.Overall, false, func(m appModel, text string) (appModel, tea.Cmd) {
			if err := m.checklist.form.SetOverall(text); err != nil {
				m.surface(err)
			}
			return m, nil
		})
	}
	field := supervisorRows[s.row]
	if !f.SupervisorEditable() {
		m.surface(checklist.ErrReadOnly)
		return m, nil
	}
	current := map[checklist.SupervisorField]string{
		checklist.SupervisorNombre: f.Supervisor.Nombre,
		checklist.SupervisorFecha:  f.Supervisor.Fecha,
		checklist.SupervisorFirma:  f.Supervisor.Firma,
	}[field]
	return m.ask("Supervisor", "Supervisor ("+string(field)+"):", current, false, func(m appModel, text string) (appModel, tea.Cmd) {
		if err := m.checklist.form.SetSupervisor(field, text); err != nil {
			m.surface(err)
		}
		return m, nil
	})
}

func answerLabel(a checklist.Answer) string {
	switch a {
	case checklist.Si:
		return "[SI]"
	case checklist.No:
		return "[NO]"
	case checklist.NA:
		return "[NA]"
	}
	return "[  ]"
}

func (m appModel) viewChecklist(width int) string {
	s := m.checklist
	f := s.form
	if f == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(renderKV(width, [][2]string{
		{"Orden", fmt.Sprint(f.Meta.OrderID)},
		{"Tarea", fmt.Sprint(f.Meta.TaskID)},
		{"Detalle", orDash(f.Meta.DetalleMant)},
		{"Mantenedor", fmt.Sprintf("%s (%d)", orDash(f.Meta.MantenedorName), f.Meta.MantenedorCode)},
		{"Fecha", f.Meta.Fecha},
	}))
	b.WriteString("\n\n")

	line := func(row int, text string) {
		if row == s.row {
			text = styleSelected().Render(padRight(text, width))
		} else {
			text = truncate(text, width)
		}
		b.WriteString(text + "\n")
	}
	for i, q := range checklist.Questions {
		r := f.Rows[i]
		line(i, fmt.Sprintf("%d. %s %s", i+1, answerLabel(r.Answer()), q))
		if r.Obs != "" {
			b.WriteString(styleMuted().Render(truncate("      obs: "+r.Obs, width)) + "\n")
		}
	}
	b.WriteString("\n")
	line(rowOverall, "Otras observaciones: "+orDash(f.Overall))
	line(rowSupNombre, "Supervisor nombre:   "+orDash(f.Supervisor.Nombre))
	line(rowSupFecha, "Supervisor fecha:    "+orDash(f.Supervisor.Fecha))
	line(rowSupFirma, "Supervisor firma:    "+orDash(f.Supervisor.Firma))

	if f.Signed() {
		b.WriteString("\n" + styleMuted().Render("Firmado por el supervisor: solo lectura."))
	} else if missing := f.Missing(); len(missing) > 0 {
		b.WriteString("\n" + styleMuted().Render(fmt.Sprintf("Sin responder: %v", missing)))
	}
	return b.String()
}
