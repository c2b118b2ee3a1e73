package tui

import (
	"fmt"
	"strconv"
	"strings"

	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/store"
	"pautas-cli/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboardState struct {
	summary *model.Summary
	sort    workflow.SortMode
	cursor  int
}

func newDashboardState(st store.Store) dashboardState {
	s := dashboardState{sort: workflow.SortProgress}
	if saved, err := st.LoadTUIState(); err == nil && saved != nil {
		if mode, err := workflow.ParseSortMode(saved.SummarySort); err == nil && saved.SummarySort != "" {
			s.sort = mode
		}
	}
	return s
}

func (s dashboardState) rows() []model.MaintainerProgress {
	if s.summary == nil {
		return nil
	}
	return workflow.SortMaintainers(s.summary.Maintainers, s.sort)
}

func (s *dashboardState) clamp() {
	if n := len(s.rows()); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
}

func (m appModel) updateDashboard(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.dash
	switch msg.String() {
	case "s":
		s.sort = s.sort.Next()
		s.clamp()
		m.saveListState()
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.rows())-1 {
			s.cursor++
		}
	case "r":
		return m.startBusy(m.loadSummaryCmd())
	case "e":
		return m.startBusy(m.exportSummaryCmd())
	case "o", "enter":
		return m.navigate(router.RouteOrders)
	}
	return m, nil
}

var sortLabels = map[workflow.SortMode]string{
	workflow.SortProgress: "avance",
	workflow.SortOrders:   "órdenes",
	workflow.SortName:     "nombre",
}

func progressBar(pct, width int) string {
	filled := min(max(pct, 0), 100) * width / 100
	return lipgloss.NewStyle().Foreground(colorSuccess).Render(strings.Repeat("█", filled)) +
		styleMuted().Render(strings.Repeat("░", width-filled))
}

func (m appModel) viewDashboard(width int) string {
	s := m.dash
	if s.summary == nil {
		return styleMuted().Render("Sin datos de resumen.")
	}
	t := s.summary.Totals
	pct := workflow.Percent(t.OrdersCompleted, t.Orders)
	dur := t.TotalDurationSeconds
	counts := workflow.Aggregate(*s.summary)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %d%%\n\n", styleTitle().Render("Avance"), progressBar(pct, min(40, max(width-20, 10))), pct)
	b.WriteString(renderKV(width, [][2]string{
		{"Órdenes", fmt.Sprintf("%d (completadas %d, canceladas %d)", t.Orders, t.OrdersCompleted, t.OrdersCancelled)},
		{"Tareas", fmt.Sprintf("%d (completadas %d, canceladas %d)", t.Tasks, t.TasksCompleted, t.TasksCancelled)},
		{"Por estado", fmt.Sprintf("pendientes %d, en curso %d, completadas %d, canceladas %d", counts.Pending, counts.InProgress, counts.Completed, counts.Cancelled)},
		{"Tiempo total", model.FormatDuration(&dur)},
	}))
	b.WriteString("\n\n" + styleMuted().Render("Orden: "+sortLabels[s.sort]) + "\n")

	widths := []int{8, 0, 8, 8, 8, 8}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(renderRow(width, widths, []string{"Código", "Mantenedor", "Órdenes", "Listas", "Avance", "Tareas"})) + "\n")
	for i, r := range s.rows() {
		row := renderRow(width, widths, []string{
			strconv.Itoa(r.Code),
			r.DisplayName(),
			strconv.Itoa(r.OrdersTotal),
			strconv.Itoa(r.OrdersCompleted),
			fmt.Sprintf("%d%%", workflow.Percent(r.OrdersCompleted, r.OrdersTotal)),
			fmt.Sprintf("%d/%d", r.TasksCompleted, r.TasksTotal),
		})
		if i == s.cursor {
			row = styleSelected().Render(row)
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}
