package tui

import (
	"fmt"
	"strconv"
	"strings"

	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type finishField int

const (
	fieldAck finishField = iota
	fieldObs
	fieldMeasurement
	fieldRangeFrom
	fieldRangeTo
	fieldExpected
	numFinishFields
)

func (f finishField) isText() bool {
	return f == fieldObs || f == fieldRangeFrom || f == fieldRangeTo || f == fieldExpected
}

var measurements = []workflow.Measurement{
	workflow.MeasurementNone,
	workflow.MeasurementYes,
	workflow.MeasurementNo,
	workflow.MeasurementNA,
}

type taskState struct {
	ctx    model.TaskContext
	form   workflow.FinishForm
	focus  finishField
	inputs map[finishField]textinput.Model
}

func newTaskState(tc model.TaskContext) taskState {
	form := workflow.NewFinishForm(tc)
	s := taskState{ctx: tc, form: form, inputs: map[finishField]textinput.Model{}}
	for f, label := range map[finishField]string{
		fieldObs:       "Observación:    ",
		fieldRangeFrom: "Rango desde:    ",
		fieldRangeTo:   "Rango hasta:    ",
		fieldExpected:  "Valor esperado: ",
	} {
		in := textinput.New()
		in.Prompt = label
		in.CharLimit = 500
		s.inputs[f] = in
	}
	exp := s.inputs[fieldExpected]
	exp.SetValue(form.ExpectedValue)
	s.inputs[fieldExpected] = exp
	return s
}

func (s *taskState) setFocus(f finishField) tea.Cmd {
	if f < 0 {
		f = numFinishFields - 1
	}
	s.focus = f % numFinishFields
	var cmd tea.Cmd
	for k, in := range s.inputs {
		if k == s.focus {
			cmd = in.Focus()
		} else {
			in.Blur()
		}
		s.inputs[k] = in
	}
	return cmd
}

// collect copies the inputs into the form.
func (s taskState) collect() workflow.FinishForm {
	f := s.form
	f.Observation = s.inputs[fieldObs].Value()
	f.RangeFrom = s.inputs[fieldRangeFrom].Value()
	f.RangeTo = s.inputs[fieldRangeTo].Value()
	f.ExpectedValue = s.inputs[fieldExpected].Value()
	return f
}

func (s *taskState) cycleMeasurement(step int) {
	i := 0
	for k, v := range measurements {
		if v == s.form.Measurement {
			i = k
		}
	}
	i = (i + step + len(measurements)) % len(measurements)
	s.form.Measurement = measurements[i]
}

func (m appModel) updateTask(msg tea.KeyMsg) (appModel, tea.Cmd) {
	s := &m.task
	switch msg.String() {
	case "esc":
		return m.startBusy(m.loadDetailCmd(s.ctx.OrderID))
	case "tab", "down":
		return m, s.setFocus(s.focus + 1)
	case "shift+tab", "up":
		return m, s.setFocus(s.focus - 1)
	case "ctrl+s":
		return m.startBusy(m.finishTaskCmd(s.collect()))
	case "ctrl+o":
		return m.ask(fmt.Sprintf("Tarea %d", s.ctx.TaskID), workflow.MsgObsPrompt, "", false, func(m appModel, text string) (appModel, tea.Cmd) {
			return m.startBusy(m.taskNoteCmd(text))
		})
	}

	switch s.focus {
	case fieldAck:
		if msg.String() == " " || msg.String() == "enter" || msg.String() == "x" {
			s.form.Acknowledged = !s.form.Acknowledged
		}
		return m, nil
	case fieldMeasurement:
		switch msg.String() {
		case "left", "h":
			s.cycleMeasurement(-1)
		case "right", "l", " ":
			s.cycleMeasurement(1)
		}
		return m, nil
	}

	if in, ok := s.inputs[s.focus]; ok {
		if msg.String() == "enter" {
			return m, s.setFocus(s.focus + 1)
		}
		var cmd tea.Cmd
		in, cmd = in.Update(msg)
		s.inputs[s.focus] = in
		return m, cmd
	}
	return m, nil
}

func (m appModel) viewTask(width int) string {
	s := m.task
	tc := s.ctx
	if tc.OrderID == 0 {
		return styleMuted().Render("No hay una tarea en curso.")
	}
	var b strings.Builder
	b.WriteString(renderKV(width, [][2]string{
		{"Orden", strconv.Itoa(tc.OrderID)},
		{"Tarea", strconv.Itoa(tc.TaskID)},
		{"Detalle", orDash(tc.DetailDescription)},
		{"Descripción", tc.Data.Description()},
		{"Taller", tc.Data.Workshop()},
		{"Horas estimadas", tc.Data.EstimatedHours()},
		{"Protocolo", orDash(tc.Protocol)},
		{"Supervisor", orDash(tc.SupervisorName)},
		{"Obs. supervisor", orDash(tc.Observation)},
		{"Obs. orden", orDash(tc.OrderObservation)},
	}))
	b.WriteString("\n\n" + styleTitle().Render("Finalizar tarea") + "\n")

	mark := func(f finishField, line string) string {
		if s.focus == f && !f.isText() {
			return styleSelected().Render(line)
		}
		return line
	}
	check := "[ ]"
	if s.form.Acknowledged {
		check = "[x]"
	}
	b.WriteString(mark(fieldAck, check+" Tarea realizada") + "\n")
	b.WriteString(s.inputs[fieldObs].View() + "\n")
	b.WriteString(mark(fieldMeasurement, "Medición:       ‹ "+s.form.Measurement.Label()+" ›") + "\n")
	b.WriteString(s.inputs[fieldRangeFrom].View() + "\n")
	b.WriteString(s.inputs[fieldRangeTo].View() + "\n")
	b.WriteString(s.inputs[fieldExpected].View() + "\n")
	return b.String()
}
