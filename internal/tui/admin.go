package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type adminTab int

const (
	adminUsers adminTab = iota
	adminSpecialties
)

type adminState struct {
	tab         adminTab
	users       []model.Account
	specialties []model.Specialty

	search    string
	searching bool
	input     textinput.Model
	cursor    int
}

func newAdminState() adminState {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "código o nombre"
	return adminState{input: in}
}

func (s adminState) visibleUsers() []model.Account {
	return workflow.SearchUsers(s.users, s.search)
}

func (s adminState) visibleSpecialties() []model.Specialty {
	return workflow.SearchSpecialties(s.specialties, s.search)
}

func (s adminState) rowCount() int {
	if s.tab == adminSpecialties {
		return len(s.visibleSpecialties())
	}
	return len(s.visibleUsers())
}

func (s *adminState) clamp() {
	if n := s.rowCount(); s.cursor >= n {
		s.cursor = max(n-1, 0)
	}
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func statusLabel(status int) string {
	if status == 0 {
		return "inactivo"
	}
	return "activo"
}

func roleLabel(u model.Account) string {
	if r, err := model.ParseRole(u.RoleID); err == nil {
		return r.DisplayName()
	}
	return u.RoleName
}

func (m appModel) updateAdmin(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.admin
	if s.searching {
		switch msg.String() {
		case "enter":
			s.searching = false
			s.input.Blur()
			s.search = s.input.Value()
			s.cursor = 0
			return m, nil
		case "esc":
			s.searching = false
			s.input.Blur()
			s.input.SetValue("")
			s.search = ""
			s.clamp()
			return m, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "tab":
		s.tab = 1 - s.tab
		s.cursor = 0
		return m, nil
	case "/":
		s.searching = true
		return m, s.input.Focus()
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
		return m, nil
	case "down", "j":
		if s.cursor < s.rowCount()-1 {
			s.cursor++
		}
		return m, nil
	case "r":
		return m.startBusy(m.loadAdminCmd())
	case "u":
		return m.ask("Importar órdenes", "Ruta del archivo PDF:", "", false, func(m appModel, path string) (appModel, tea.Cmd) {
			return m.startBusy(m.uploadCmd(strings.TrimSpace(path)))
		})
	case "a":
		if s.tab == adminSpecialties {
			return m.addSpecialty()
		}
		return m.addUser()
	case "e":
		return m.editSelected()
	case "x":
		return m.deactivateSelected()
	}
	return m, nil
}

func (m appModel) addUser() (appModel, tea.Cmd) {
	const title = "Nuevo usuario"
	var in model.NewAccount
	in.Status = 1
	return m.ask(title, "Código:", "", false, func(m appModel, v string) (appModel, tea.Cmd) {
		code, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || code <= 0 {
			m.surface(&workflow.ValidationError{Fields: []string{"Code (gt)"}})
			return m, nil
		}
		in.Code = code
		return m.ask(title, "Nombre:", "", false, func(m appModel, v string) (appModel, tea.Cmd) {
			in.Name = strings.TrimSpace(v)
			return m.ask(title, "Contraseña:", "", true, func(m appModel, v string) (appModel, tea.Cmd) {
				in.Password = v
				return m.choose("Rol", roleItems(), func(m appModel, it list.Item) (appModel, tea.Cmd) {
					role := it.(choiceItem).value
					in.RoleID = &role
					return m.choose("Especialidad", specialtyItems(m.admin.specialties), func(m appModel, it list.Item) (appModel, tea.Cmd) {
						specialty := it.(choiceItem).value
						in.SpecialtyID = &specialty
						admin := m.svc.Admin
						return m.startBusy(m.adminCmd(func(ctx context.Context) error { return admin.AddUser(ctx, in) }))
					}), nil
				}), nil
			})
		})
	})
}

func (m appModel) addSpecialty() (appModel, tea.Cmd) {
	const title = "Nueva especialidad"
	in := model.Specialty{Status: 1}
	return m.ask(title, "Nombre:", "", false, func(m appModel, v string) (appModel, tea.Cmd) {
		in.Name = strings.TrimSpace(v)
		return m.ask(title, "Descripción:", "", false, func(m appModel, v string) (appModel, tea.Cmd) {
			in.Description = strings.TrimSpace(v)
			admin := m.svc.Admin
			return m.startBusy(m.adminCmd(func(ctx context.Context) error { return admin.AddSpecialty(ctx, in) }))
		})
	})
}

func (m appModel) editSelected() (appModel, tea.Cmd) {
	admin := m.svc.Admin
	if m.admin.tab == adminSpecialties {
		specs := m.admin.visibleSpecialties()
		if len(specs) == 0 {
			return m, nil
		}
		sp := specs[m.admin.cursor]
		return m.ask(fmt.Sprintf("Editar especialidad %d", sp.Code), "Nombre:", sp.Name, false, func(m appModel, v string) (appModel, tea.Cmd) {
			name := strings.TrimSpace(v)
			if name == "" || name == sp.Name {
				return m, nil
			}
			patch := model.SpecialtyPatch{Name: &name}
			return m.startBusy(m.adminCmd(func(ctx context.Context) error { return admin.EditSpecialty(ctx, sp.Code, patch) }))
		})
	}
	users := m.admin.visibleUsers()
	if len(users) == 0 {
		return m, nil
	}
	u := users[m.admin.cursor]
	return m.ask(fmt.Sprintf("Editar usuario %d", u.Code), "Nombre:", u.Name, false, func(m appModel, v string) (appModel, tea.Cmd) {
		name := strings.TrimSpace(v)
		if name == "" || name == u.Name {
			return m, nil
		}
		patch := model.AccountPatch{Name: &name}
		return m.startBusy(m.adminCmd(func(ctx context.Context) error { return admin.EditUser(ctx, u.Code, patch) }))
	})
}

func (m appModel) deactivateSelected() (appModel, tea.Cmd) {
	admin := m.svc.Admin
	if m.admin.tab == adminSpecialties {
		specs := m.admin.visibleSpecialties()
		if len(specs) == 0 {
			return m, nil
		}
		sp := specs[m.admin.cursor]
		return m.confirmDestructive("Desactivar especialidad", fmt.Sprintf("¿Desactivar la especialidad %q?", sp.Name), func(m appModel) (appModel, tea.Cmd) {
			return m.startBusy(m.adminCmd(func(ctx context.Context) error { return admin.DeactivateSpecialty(ctx, sp.Code) }))
		}), nil
	}
	users := m.admin.visibleUsers()
	if len(users) == 0 {
		return m, nil
	}
	u := users[m.admin.cursor]
	return m.confirmDestructive("Desactivar usuario", fmt.Sprintf("¿Desactivar al usuario %d (%s)?", u.Code, u.Name), func(m appModel) (appModel, tea.Cmd) {
		return m.startBusy(m.adminCmd(func(ctx context.Context) error { return admin.DeactivateUser(ctx, u.Code) }))
	}), nil
}

func (m appModel) viewAdmin(width int) string {
	s := m.admin
	var b strings.Builder
	tabs := []string{"Usuarios", "Especialidades"}
	for i, t := range tabs {
		if adminTab(i) == s.tab {
			tabs[i] = styleBadge(colorAccent).Render(t)
		} else {
			tabs[i] = styleMuted().Render(t)
		}
	}
	b.WriteString(strings.Join(tabs, "  ") + "\n")
	if s.searching {
		b.WriteString(s.input.View() + "\n")
	} else if s.search != "" {
		b.WriteString(styleMuted().Render("Búsqueda: "+s.search) + "\n")
	} else {
		b.WriteString("\n")
	}

	bold := lipgloss.NewStyle().Bold(true)
	if s.tab == adminSpecialties {
		widths := []int{8, 20, 0, 10}
		b.WriteString(bold.Render(renderRow(width, widths, []string{"Código", "Nombre", "Descripción", "Estado"})) + "\n")
		rows := s.visibleSpecialties()
		if len(rows) == 0 {
			b.WriteString(styleMuted().Render("Sin especialidades.") + "\n")
		}
		for i, sp := range rows {
			row := renderRow(width, widths, []string{strconv.Itoa(sp.Code), sp.Name, sp.Description, statusLabel(sp.Status)})
			if i == s.cursor {
				row = styleSelected().Render(row)
			}
			b.WriteString(row + "\n")
		}
		return b.String()
	}

	widths := []int{8, 0, 14, 18, 10}
	b.WriteString(bold.Render(renderRow(width, widths, []string{"Código", "Nombre", "Rol", "Especialidad", "Estado"})) + "\n")
	rows := s.visibleUsers()
	if len(rows) == 0 {
		b.WriteString(styleMuted().Render("Sin usuarios.") + "\n")
	}
	for i, u := range rows {
		row := renderRow(width, widths, []string{strconv.Itoa(u.Code), u.Name, roleLabel(u), orDash(u.SpecialtyName), statusLabel(u.Status)})
		if i == s.cursor {
			row = styleSelected().Render(row)
		}
		b.WriteString(row + "\n")
	}
	return b.String()
}
