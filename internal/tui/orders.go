package tui

import (
	"fmt"
	"strconv"
	"strings"

	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/store"
	"pautas-cli/internal/workflow"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ordersState struct {
	view   workflow.ListView
	all    []model.Order
	page   workflow.PageResult
	cursor int

	searching bool
	search    textinput.Model
}

// newOrdersState restores the last search, filter and page of this profile.
func newOrdersState(st store.Store) ordersState {
	s := ordersState{view: workflow.NewListView(), search: textinput.New()}
	s.search.Prompt = "/ "
	s.search.Placeholder = "código, descripción, horas, tareas"
	if saved, err := st.LoadTUIState(); err == nil && saved != nil {
		if f, err := workflow.ParseFilter(saved.Filter); err == nil {
			s.view.SetFilter(f)
		}
		s.view.SetSearch(saved.Search)
		s.search.SetValue(saved.Search)
		if saved.Page > 1 {
			s.view.Page = saved.Page
		}
	}
	return s
}

func (s *ordersState) apply() {
	s.page = s.view.Apply(s.all)
	if s.cursor >= len(s.page.Items) {
		s.cursor = max(len(s.page.Items)-1, 0)
	}
}

func (s ordersState) selected() (model.Order, bool) {
	if s.cursor < 0 || s.cursor >= len(s.page.Items) {
		return model.Order{}, false
	}
	return s.page.Items[s.cursor], true
}

func nextFilter(f workflow.Filter) workflow.Filter {
	switch f {
	case workflow.FilterAll:
		return workflow.FilterAssigned
	case workflow.FilterAssigned:
		return workflow.FilterUnassigned
	default:
		return workflow.FilterAll
	}
}

func filterLabel(f workflow.Filter) string {
	switch f {
	case workflow.FilterAssigned:
		return "Asignadas"
	case workflow.FilterUnassigned:
		return "Sin asignar"
	default:
		return "Todas"
	}
}

func (m appModel) updateOrders(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.orders
	if s.searching {
		switch msg.String() {
		case "enter":
			s.searching = false
			s.search.Blur()
			s.view.SetSearch(s.search.Value())
			s.cursor = 0
			s.apply()
			m.saveListState()
			return m, nil
		case "esc":
			s.searching = false
			s.search.Blur()
			s.search.SetValue("")
			s.view.SetSearch("")
			s.apply()
			m.saveListState()
			return m, nil
		}
		var cmd tea.Cmd
		s.search, cmd = s.search.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "/":
		s.searching = true
		return m, s.search.Focus()
	case "f":
		s.view.SetFilter(nextFilter(s.view.Filter))
		s.cursor = 0
		s.apply()
		m.saveListState()
		return m, nil
	case "right", "l", "pgdown":
		if s.view.GoTo(s.view.Page+1, s.page.TotalPages) {
			s.cursor = 0
			s.apply()
			m.saveListState()
		}
		return m, nil
	case "left", "h", "pgup":
		if s.view.GoTo(s.view.Page-1, s.page.TotalPages) {
			s.cursor = 0
			s.apply()
			m.saveListState()
		}
		return m, nil
	case "up", "k", "ctrl+p":
		if s.cursor > 0 {
			s.cursor--
		}
		return m, nil
	case "down", "j", "ctrl+n":
		if s.cursor < len(s.page.Items)-1 {
			s.cursor++
		}
		return m, nil
	case "r":
		return m.startBusy(m.loadOrdersCmd())
	case "d", "esc":
		if m.svc.Session.User().Role == model.RoleSupervisor {
			return m.navigate(router.RouteDashboard)
		}
	case "enter":
		if o, ok := s.selected(); ok {
			m.detail = detailState{}
			return m.startBusy(m.loadDetailCmd(o.Code))
		}
	}
	return m, nil
}

func (m appModel) ordersHelpExtra() string {
	if m.svc.Session.User().Role == model.RoleSupervisor {
		return "d: resumen   "
	}
	return ""
}

var orderColumns = []struct {
	title string
	width int
}{
	{"Código", 8},
	{"Descripción", 0},
	{"Horas", 6},
	{"Tareas", 6},
	{"Prior.", 6},
	{"Asignado a", 16},
	{"Estado", 12},
}

func orderCells(o model.Order) []string {
	assigned := o.AssignedToName
	if assigned == "" && o.Assigned() {
		assigned = strconv.Itoa(*o.AssignedTo)
	}
	if assigned == "" {
		assigned = "-"
	}
	prio := "-"
	if o.Priority != nil && *o.Priority > 0 {
		prio = strconv.Itoa(*o.Priority)
	}
	return []string{
		strconv.Itoa(o.Code),
		o.Description,
		strconv.FormatFloat(o.EstimatedHours, 'f', -1, 64),
		strconv.Itoa(o.TaskCount),
		prio,
		assigned,
		o.Status.Label(),
	}
}

// renderRow lays cells out on the column widths; the zero-width column
// takes the remaining space.
func renderRow(width int, widths []int, cells []string) string {
	fixed := 0
	for _, w := range widths {
		fixed += w + 1
	}
	flex := max(width-fixed, 10)
	parts := make([]string, len(cells))
	for i, c := range cells {
		w := widths[i]
		if w == 0 {
			w = flex
		}
		parts[i] = padRight(c, w)
	}
	return strings.Join(parts, " ")
}

func (m appModel) viewOrders(width int) string {
	s := m.orders
	oc := m.svc.Session.Order()

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n",
		styleTitle().Render(fmt.Sprintf("Pautas: %d", oc.CountTotal)),
		styleMuted().Render(fmt.Sprintf("Asignadas: %d", oc.CountAssigned)),
		styleMuted().Render("Filtro: "+filterLabel(s.view.Filter)),
	)
	if s.searching {
		b.WriteString(s.search.View() + "\n")
	} else if s.view.Search != "" {
		b.WriteString(styleMuted().Render("Búsqueda: "+s.view.Search) + "\n")
	} else {
		b.WriteString("\n")
	}

	widths := make([]int, len(orderColumns))
	titles := make([]string, len(orderColumns))
	for i, c := range orderColumns {
		widths[i] = c.width
		titles[i] = c.title
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(renderRow(width, widths, titles)) + "\n")

	if len(s.page.Items) == 0 {
		b.WriteString(styleMuted().Render("No hay pautas.") + "\n")
	}
	for i, o := range s.page.Items {
		row := renderRow(width, widths, orderCells(o))
		if i == s.cursor {
			row = styleSelected().Render(row)
		}
		b.WriteString(row + "\n")
	}
	b.WriteString("\n" + styleMuted().Render(fmt.Sprintf("Página %d de %d  (%d resultados)", s.page.Page, max(s.page.TotalPages, 1), s.page.Total)))
	return b.String()
}
