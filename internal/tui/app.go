package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pautas-cli/internal/checklist"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/store"
	"pautas-cli/internal/workflow"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

type view int

const (
	viewLogin view = iota
	viewOrders
	viewDetail
	viewTask
	viewChecklist
	viewDashboard
	viewAdmin
)

type modalKind int

const (
	modalNone modalKind = iota
	modalConfirm
	modalInput
	modalPick
	modalAnnexes
)

// Continuations run when a modal closes with an answer.
type (
	confirmStep func(m appModel) (appModel, tea.Cmd)
	inputStep   func(m appModel, value string) (appModel, tea.Cmd)
	pickStep    func(m appModel, it list.Item) (appModel, tea.Cmd)
)

type appModel struct {
	ctx context.Context
	svc *workflow.Services
	now func() time.Time

	width  int
	height int

	view view
	// busy is set while a backend call is in flight; keys other than esc
	// are ignored.
	busy     bool
	inflight *inflight
	note     model.Notification

	login     loginState
	orders    ordersState
	detail    detailState
	task      taskState
	checklist checklistState
	dash      dashboardState
	admin     adminState

	modal        modalKind
	modalTitle   string
	modalBody    string
	confirmFocus confirmModalFocus
	destructive  bool
	onConfirm    confirmStep
	input        textinput.Model
	onInput      inputStep
	pick         list.Model
	onPick       pickStep
}

func newAppModel(ctx context.Context, svc *workflow.Services) appModel {
	m := appModel{
		ctx:   ctx,
		svc:   svc,
		now:   time.Now,
		view:  viewLogin,
		login: newLoginState(),
		input: textinput.New(),
		pick:  newList("", nil),

		inflight: &inflight{},
	}
	m.orders = newOrdersState(svc.Store)
	m.dash = newDashboardState(svc.Store)
	m.admin = newAdminState()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.restoreCmd(), noticeTick())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pick.SetSize(modalBodyWidth(m.width), min(12, max(m.height-10, 3)))
		return m, nil

	case noticeTickMsg:
		m.refreshNote()
		return m, noticeTick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.busy {
			if msg.String() == "esc" && m.inflight.abort() {
				log.Info().Msg("backend call abandoned")
				logPersist("notification", m.svc.Session.Notify(m.ctx, model.NotifyInfo, "Cancelado", "Operación cancelada.", workflow.NoticeDuration))
				m.refreshNote()
			}
			return m, nil
		}
		return m.updateKey(msg)
	}

	next, cmd := m.handleResult(msg)
	return next, cmd
}

// typing reports whether keys go to a text field on the current screen.
func (m appModel) typing() bool {
	switch m.view {
	case viewLogin:
		return true
	case viewOrders:
		return m.orders.searching
	case viewAdmin:
		return m.admin.searching
	case viewTask:
		return m.task.focus.isText()
	}
	return false
}

func (m appModel) updateKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	authed := m.svc.Session.User().Authenticated
	switch msg.String() {
	case "ctrl+t":
		return m.startBusy(m.toggleThemeCmd())
	case "ctrl+b":
		if authed {
			logPersist("chat", m.svc.Session.ToggleChat(m.ctx))
			return m, nil
		}
	case "ctrl+l":
		if authed {
			return m.startBusy(m.logoutCmd())
		}
	case "q":
		if !m.typing() {
			return m, tea.Quit
		}
	}

	switch m.view {
	case viewLogin:
		return m.updateLogin(msg)
	case viewOrders:
		return m.updateOrders(msg)
	case viewDetail:
		return m.updateDetail(msg)
	case viewTask:
		return m.updateTask(msg)
	case viewChecklist:
		return m.updateChecklist(msg)
	case viewDashboard:
		return m.updateDashboard(msg)
	case viewAdmin:
		return m.updateAdmin(msg)
	}
	return m, nil
}

// navigate moves to want if the session allows it, otherwise to the
// route the guard picks, and starts loading that screen.
func (m appModel) navigate(want router.Route) (appModel, tea.Cmd) {
	d := router.Guard(want, m.svc.Session.Snapshot())
	if d.Pending {
		return m, nil
	}
	if d.Redirected {
		log.Debug().Str("want", want.String()).Str("route", d.Route.String()).Msg("navigation redirected")
	}
	switch d.Route {
	case router.RouteAdmin:
		m.view = viewAdmin
		return m.startBusy(m.loadAdminCmd())
	case router.RouteDashboard:
		m.view = viewDashboard
		return m.startBusy(m.loadSummaryCmd())
	case router.RouteOrders:
		m.view = viewOrders
		return m.startBusy(m.loadOrdersCmd())
	case router.RouteOrderDetail:
		m.view = viewDetail
		return m.startBusy(m.loadDetailCmd(m.svc.Session.Order().Active))
	case router.RouteTask:
		m.view = viewTask
		m.task = newTaskState(m.svc.Session.Task())
		return m, nil
	case router.RouteChecklist:
		m.view = viewChecklist
		return m, nil
	default:
		m.view = viewLogin
		m.login = newLoginState()
		return m, nil
	}
}

// inflight holds the cancel func of the backend call in progress. Every copy
// of the model shares it.
type inflight struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// start derives the context for the next backend call. The previous call
// has already returned, so its context is released.
func (f *inflight) start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
	f.mu.Unlock()
	return ctx
}

// abort cancels the call in progress and reports whether there was one.
func (f *inflight) abort() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel == nil {
		return false
	}
	f.cancel()
	f.cancel = nil
	return true
}

// requestCtx is the context a command passes to the backend; esc cancels it.
func (m appModel) requestCtx() context.Context {
	return m.inflight.start(m.ctx)
}

func (m appModel) startBusy(cmd tea.Cmd) (appModel, tea.Cmd) {
	if cmd == nil {
		return m, nil
	}
	m.busy = true
	return m, cmd
}

// refreshNote caches the active notification for rendering; expiry is
// decided by the session clock.
func (m *appModel) refreshNote() {
	if n, ok := m.svc.Session.ActiveNotification(m.ctx); ok {
		m.note = n
		return
	}
	m.note = model.Notification{}
}

func logPersist(what string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("slice", what).Msg("persist session state")
	}
}

// surface shows err to the operator unless a workflow already did.
func (m *appModel) surface(err error) {
	if err == nil || errors.Is(err, workflow.ErrAborted) || errors.Is(err, context.Canceled) {
		m.refreshNote()
		return
	}
	if n, ok := m.svc.Session.ActiveNotification(m.ctx); ok && (n.Kind == model.NotifyError || n.Kind == model.NotifyWarning) {
		m.note = n
		return
	}
	logPersist("notification", m.svc.Session.Notify(m.ctx, model.NotifyError, "Error", errorText(err), workflow.ErrorDuration))
	m.refreshNote()
}

func errorText(err error) string {
	var verr *workflow.ValidationError
	switch {
	case errors.Is(err, workflow.ErrOrderClosed):
		return "La orden está cerrada."
	case errors.Is(err, workflow.ErrTaskFinished):
		return "La tarea ya fue finalizada."
	case errors.Is(err, workflow.ErrNoSuchTask):
		return "La orden no tiene esa tarea."
	case errors.Is(err, workflow.ErrNoActiveTask):
		return "No hay una tarea en curso."
	case errors.Is(err, workflow.ErrNotAcknowledged):
		return "Confirme que realizó la tarea antes de finalizarla."
	case errors.Is(err, workflow.ErrNotPDF):
		return "Solo se pueden importar archivos PDF."
	case errors.Is(err, checklist.ErrIncomplete):
		return "Responda todas las preguntas del checklist."
	case errors.Is(err, checklist.ErrSigned):
		return "El checklist ya fue firmado por el supervisor."
	case errors.Is(err, checklist.ErrReadOnly):
		return "La sección del supervisor es de solo lectura."
	case errors.As(err, &verr):
		return "Campos inválidos: " + strings.Join(verr.Fields, ", ")
	}
	return err.Error()
}

func (m appModel) saveListState() {
	st, err := m.svc.Store.LoadTUIState()
	if err != nil || st == nil {
		st = &store.TUIState{}
	}
	st.Search = m.orders.view.Search
	st.Filter = string(m.orders.view.Filter)
	st.Page = m.orders.view.Page
	st.SummarySort = string(m.dash.sort)
	if err := m.svc.Store.SaveTUIState(st); err != nil {
		log.Warn().Err(err).Msg("save tui state")
	}
}

// Modals.

func (m appModel) confirm(title, body string, next confirmStep) appModel {
	m.modal = modalConfirm
	m.modalTitle = title
	m.modalBody = body
	m.confirmFocus = confirmFocusConfirm
	m.destructive = false
	m.onConfirm = next
	return m
}

// confirmDestructive asks before an irreversible change; focus starts on
// the back button.
func (m appModel) confirmDestructive(title, body string, next confirmStep) appModel {
	m = m.confirm(title, body, next)
	m.confirmFocus = confirmFocusCancel
	m.destructive = true
	return m
}

func (m appModel) ask(title, prompt, initial string, secret bool, next inputStep) (appModel, tea.Cmd) {
	in := textinput.New()
	in.Prompt = "> "
	in.CharLimit = 500
	in.Width = modalBodyWidth(m.width) - 4
	if secret {
		in.EchoMode = textinput.EchoPassword
	}
	in.SetValue(initial)
	in.CursorEnd()
	m.input = in
	m.modal = modalInput
	m.modalTitle = title
	m.modalBody = prompt
	m.onInput = next
	return m, m.input.Focus()
}

func (m appModel) choose(title string, items []list.Item, next pickStep) appModel {
	m.pick = newList(title, items)
	m.pick.SetSize(modalBodyWidth(m.width), min(12, max(m.height-10, 3)))
	m.modal = modalPick
	m.modalTitle = title
	m.onPick = next
	return m
}

func (m appModel) closeModal() appModel {
	if m.modal == modalAnnexes {
		oc := m.svc.Session.Order()
		oc.AnnexesActive = false
		logPersist("order", m.svc.Session.SetOrder(m.ctx, oc))
	}
	m.modal = modalNone
	m.onConfirm = nil
	m.onInput = nil
	m.onPick = nil
	m.input.Blur()
	return m
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalConfirm:
		switch msg.String() {
		case "esc", "n":
			return m.closeModal(), nil
		case "tab", "shift+tab", "left", "right":
			m.confirmFocus = m.confirmFocus.toggle()
			return m, nil
		case "y", "s":
			next := m.onConfirm
			m = m.closeModal()
			return next(m)
		case "enter":
			next := m.onConfirm
			focus := m.confirmFocus
			m = m.closeModal()
			if focus == confirmFocusConfirm && next != nil {
				return next(m)
			}
			return m, nil
		}
		return m, nil

	case modalInput:
		switch msg.String() {
		case "esc":
			return m.closeModal(), nil
		case "enter":
			next := m.onInput
			value := m.input.Value()
			m = m.closeModal()
			if next != nil {
				return next(m, value)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modalPick:
		switch msg.String() {
		case "esc":
			return m.closeModal(), nil
		case "enter":
			next := m.onPick
			it := m.pick.SelectedItem()
			m = m.closeModal()
			if next != nil && it != nil {
				return next(m, it)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.pick, cmd = m.pick.Update(msg)
		return m, cmd

	case modalAnnexes:
		switch msg.String() {
		case "esc", "enter", "x", "q":
			return m.closeModal(), nil
		}
	}
	return m, nil
}

// Rendering.

func (m appModel) View() string {
	if m.width == 0 {
		return "Cargando…"
	}
	header := m.renderHeader()
	footer := m.renderFooter()
	bodyH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	if m.modal != modalNone {
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.renderModal())
	} else {
		body = m.renderBody(m.width)
		if m.svc.Session.Chat().Open && m.view != viewLogin {
			chatW := min(32, m.width/3)
			mainW := m.width - chatW - 1
			body = lipgloss.JoinHorizontal(lipgloss.Top,
				normalizePane(m.renderBody(mainW), mainW, bodyH),
				" ",
				normalizePane(m.renderChat(chatW), chatW, bodyH),
			)
		}
		body = normalizePane(body, m.width, bodyH)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m appModel) renderBody(width int) string {
	switch m.view {
	case viewLogin:
		return m.viewLogin(width)
	case viewOrders:
		return m.viewOrders(width)
	case viewDetail:
		return m.viewDetail(width)
	case viewTask:
		return m.viewTask(width)
	case viewChecklist:
		return m.viewChecklist(width)
	case viewDashboard:
		return m.viewDashboard(width)
	case viewAdmin:
		return m.viewAdmin(width)
	}
	return ""
}

func (m appModel) renderModal() string {
	switch m.modal {
	case modalConfirm:
		accept := "Aceptar"
		if m.destructive {
			accept = "Sí, continuar"
		}
		buttons := modalButtons(accept, "Volver", m.confirmFocus, m.destructive)
		return renderDialog(m.width, m.modalTitle, m.modalBody, buttons, "tab: foco   enter: elegir   s/n: sí/no   esc: volver")
	case modalInput:
		return renderDialog(m.width, m.modalTitle, m.modalBody+"\n\n"+m.input.View(), "", "enter: aceptar   esc: cancelar")
	case modalPick:
		return renderDialog(m.width, m.modalTitle, m.pick.View(), "", "enter: elegir   /: filtrar   esc: cancelar")
	case modalAnnexes:
		return renderDialog(m.width, m.modalTitle, m.modalBody, "", "esc: cerrar")
	}
	return ""
}

var viewTitles = map[view]string{
	viewLogin:     "Ingreso",
	viewOrders:    "Pautas",
	viewDetail:    "Detalle de pauta",
	viewTask:      "Tarea",
	viewChecklist: checklist.Title,
	viewDashboard: "Resumen",
	viewAdmin:     "Administración",
}

func (m appModel) renderHeader() string {
	left := styleBadge(colorAccent).Render("PAUTAS") + " " + styleTitle().Render(viewTitles[m.view])
	u := m.svc.Session.User()
	right := "tema: " + string(m.svc.Theme.Current())
	if u.Authenticated {
		right = fmt.Sprintf("%s (%s)  %s", u.Name, u.Role.DisplayName(), right)
		if c := m.svc.Session.Chat(); c.Open {
			right += fmt.Sprintf("  chat(%d)", c.Unread)
		}
	}
	right = styleMuted().Render(right)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return truncate(left+strings.Repeat(" ", gap)+right, m.width) + "\n"
}

func (m appModel) renderFooter() string {
	help := styleMuted().Render(truncate(m.help(), m.width))
	if m.busy {
		help = styleMuted().Render("Cargando…")
	}
	if !m.note.Active {
		return "\n" + help
	}
	title := m.note.Title
	if title == "" {
		title = string(m.note.Kind)
	}
	line := styleBadge(notificationColor(m.note.Kind)).Render(title) + " " + m.note.Message
	return truncate(line, m.width) + "\n" + help
}

func (m appModel) help() string {
	common := "ctrl+t: tema   ctrl+b: chat   ctrl+l: salir de la sesión   q: cerrar"
	switch m.view {
	case viewLogin:
		return "tab: campo   enter: ingresar   ctrl+t: tema   ctrl+c: cerrar"
	case viewOrders:
		if m.orders.searching {
			return "enter: buscar   esc: limpiar"
		}
		return "enter: abrir   /: buscar   f: filtro   ←/→: página   r: recargar   " + m.ordersHelpExtra() + common
	case viewDetail:
		return m.detailHelp() + "   esc: volver"
	case viewTask:
		return "tab: campo   espacio: confirmar   ←/→: medición   ctrl+o: observación   ctrl+s: finalizar   esc: volver"
	case viewChecklist:
		return "↑/↓: pregunta   s/n/a: respuesta   enter: editar texto   ctrl+s: enviar   esc: volver"
	case viewDashboard:
		return "s: ordenar   e: exportar xlsx   o: pautas   r: recargar   " + common
	case viewAdmin:
		if m.admin.searching {
			return "enter: buscar   esc: limpiar"
		}
		return "tab: usuarios/especialidades   /: buscar   a: agregar   e: editar   x: desactivar   u: importar PDF   " + common
	}
	return common
}

func (m appModel) renderChat(width int) string {
	c := m.svc.Session.Chat()
	lines := []string{
		styleTitle().Render("Chat"),
		styleMuted().Render(fmt.Sprintf("%d sin leer", c.Unread)),
		"",
		styleMuted().Render(truncate("Sin mensajes.", width)),
	}
	return strings.Join(lines, "\n")
}
