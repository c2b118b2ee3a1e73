package cli

import (
	"strconv"

	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"
)

func itoa(n int) string { return strconv.Itoa(n) }

func optInt(p *int) string {
	if p == nil || *p == 0 {
		return "-"
	}
	return itoa(*p)
}

type ordersTable workflow.PageResult

func (t ordersTable) Headers() []string {
	return []string{"Código", "Descripción", "Horas", "Tareas", "Prioridad", "Asignado a", "Estado"}
}

func (t ordersTable) Rows() [][]string {
	out := make([][]string, 0, len(t.Items))
	for _, o := range t.Items {
		assigned := o.AssignedToName
		if assigned == "" {
			assigned = optInt(o.AssignedTo)
		}
		out = append(out, []string{
			itoa(o.Code),
			o.Description,
			strconv.FormatFloat(o.EstimatedHours, 'f', -1, 64),
			itoa(o.TaskCount),
			optInt(o.Priority),
			assigned,
			o.Status.Label(),
		})
	}
	return out
}

type tasksTable []model.Task

func (t tasksTable) Headers() []string {
	return []string{"N°", "Estado", "Inicio", "Término", "Duración", "Obs. supervisor", "Obs. mantenedor"}
}

func (t tasksTable) Rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, k := range t {
		out = append(out, []string{
			itoa(k.Number),
			k.Status.Label(),
			model.FormatDate(k.InitTask),
			model.FormatDate(k.EndTask),
			model.FormatDuration(k.DurationSeconds),
			k.ObsAssignedBy,
			k.ObsAssignedTo,
		})
	}
	return out
}

type usersTable []model.Account

func (t usersTable) Headers() []string {
	return []string{"Código", "Nombre", "Tipo", "Especialidad", "Estado"}
}

func (t usersTable) Rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, u := range t {
		role := u.RoleName
		if role == "" {
			role = model.Role(u.RoleID).DisplayName()
		}
		specialty := u.SpecialtyName
		if specialty == "" {
			specialty = model.SpecialtyName(u.SpecialtyID)
		}
		out = append(out, []string{itoa(u.Code), u.Name, role, specialty, activeLabel(u.Status)})
	}
	return out
}

type specialtiesTable []model.Specialty

func (t specialtiesTable) Headers() []string {
	return []string{"Código", "Nombre", "Descripción", "Estado"}
}

func (t specialtiesTable) Rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, s := range t {
		out = append(out, []string{itoa(s.Code), s.Name, s.Description, activeLabel(s.Status)})
	}
	return out
}

func activeLabel(status int) string {
	if status == 1 {
		return "Activo"
	}
	return "Inactivo"
}

type maintainersTable []model.MaintainerProgress

func (t maintainersTable) Headers() []string {
	return []string{"Código", "Mantenedor", "Órdenes", "Completadas", "En proceso", "Pendientes", "Avance"}
}

func (t maintainersTable) Rows() [][]string {
	out := make([][]string, 0, len(t))
	for _, m := range t {
		out = append(out, []string{
			itoa(m.Code),
			m.DisplayName(),
			itoa(m.OrdersTotal),
			itoa(m.OrdersCompleted),
			itoa(m.OrdersInProgress),
			itoa(m.OrdersPending),
			itoa(workflow.Percent(m.OrdersCompleted, m.OrdersTotal)) + "%",
		})
	}
	return out
}
