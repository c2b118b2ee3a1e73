package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/checklist"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/store"
	"pautas-cli/internal/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
)

type memPrefs struct{ theme model.Theme }

func (p *memPrefs) LoadTheme() (model.Theme, error) { return p.theme, nil }
func (p *memPrefs) SaveTheme(t model.Theme) error   { p.theme = t; return nil }

type backend struct {
	mu          sync.Mutex
	users       []model.Account
	deactivated []int
	// down makes the readiness check fail.
	down bool
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{users: []model.Account{
		{Code: 1, Name: "Admin", RoleID: 0, Status: 1},
		{Code: 10, Name: "Luis", RoleID: 1, SpecialtyID: 1, Status: 1},
		{Code: 55, Name: "Ana", RoleID: 2, SpecialtyID: 1, Status: 1},
	}}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/auth/check", func(c *gin.Context) {
		b.mu.Lock()
		down := b.down
		b.mu.Unlock()
		if down {
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "starting"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	api.POST("/auth/login", func(c *gin.Context) {
		var in struct {
			Code     int    `json:"code"`
			Password string `json:"password"`
		}
		_ = c.ShouldBindJSON(&in)
		if in.Code != 55 || in.Password != "pw" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
			return
		}
		c.JSON(http.StatusOK, model.LoginResponse{AccessToken: "tok-55", TokenType: "bearer", User: b.users[2]})
	})
	api.GET("/ordenes", func(c *gin.Context) {
		c.JSON(http.StatusOK, []model.Order{
			{Code: 100, Description: "Revisión bomba", EstimatedHours: 2, TaskCount: 1, Status: model.OrderPending, AssignedTo: intp(55)},
			{Code: 101, Description: "Cambio filtro", EstimatedHours: 1, TaskCount: 1, Status: model.OrderPending},
		})
	})
	api.GET("/ordenes/:code", func(c *gin.Context) {
		code, _ := strconv.Atoi(c.Param("code"))
		c.JSON(http.StatusOK, model.OrderDetail{
			Order: model.OrderRecord{Code: code, Status: model.OrderPending},
			Tasks: []model.Task{{OrderCode: code, Number: 1, Status: model.TaskPending}},
		})
	})
	api.GET("/users", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		c.JSON(http.StatusOK, b.users)
	})
	api.DELETE("/users/:code", func(c *gin.Context) {
		code, _ := strconv.Atoi(c.Param("code"))
		b.mu.Lock()
		defer b.mu.Unlock()
		b.deactivated = append(b.deactivated, code)
		for i := range b.users {
			if b.users[i].Code == code {
				b.users[i].Status = 0
			}
		}
		c.Status(http.StatusNoContent)
	})
	api.GET("/especialidades", func(c *gin.Context) {
		c.JSON(http.StatusOK, []model.Specialty{{Code: 1, Name: "Mecánica", Status: 1}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func intp(n int) *int { return &n }

// newTestApp returns a sized model bound to srv, logged in as u when u is set.
func newTestApp(t *testing.T, srv *httptest.Server, u *model.User) appModel {
	t.Helper()
	return newTestAppWithReadiness(t, srv, u, apiclient.ProbePolicy{Interval: time.Millisecond, MaxAttempts: 1})
}

func newTestAppWithReadiness(t *testing.T, srv *httptest.Server, u *model.User, ready apiclient.ProbePolicy) appModel {
	t.Helper()
	ctx := context.Background()
	c := apiclient.New(srv.URL+"/api", apiclient.WithProbe(ready))
	svc, err := workflow.OpenServices(ctx, workflow.ServicesOptions{
		Store:  store.Store{Dir: t.TempDir()},
		Client: c,
		Prefs:  &memPrefs{},
	})
	if err != nil {
		t.Fatalf("OpenServices: %v", err)
	}
	if u != nil {
		if err := svc.Session.SetUser(ctx, *u); err != nil {
			t.Fatalf("SetUser: %v", err)
		}
		c.SetToken(u.Token)
	}
	m := newAppModel(ctx, svc)
	mAny, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return mAny.(appModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m appModel, s string) (appModel, tea.Cmd) {
	t.Helper()
	mAny, cmd := m.Update(key(s))
	return mAny.(appModel), cmd
}

// settle runs backend commands and feeds their results back until the
// model is idle.
func settle(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	for i := 0; cmd != nil && m.busy; i++ {
		if i > 10 {
			t.Fatalf("model never settled")
		}
		mAny, next := m.Update(cmd())
		m, cmd = mAny.(appModel), next
	}
	return m
}

func maintainer() *model.User {
	return &model.User{Name: "Ana", Code: 55, Role: model.RoleMaintainer, Authenticated: true, Token: "tok-55"}
}

func TestLoginRoutesMaintainerToOrders(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, nil)
	if m.view != viewLogin {
		t.Fatalf("expected login view, got %v", m.view)
	}

	m.login.user.SetValue("55")
	m.login.pass.SetValue("pw")
	m, cmd := press(t, m, "enter")
	if !m.busy {
		t.Fatalf("expected login to start a backend call")
	}
	m = settle(t, m, cmd)

	if m.view != viewOrders {
		t.Fatalf("expected orders view, got %v", m.view)
	}
	if got := len(m.orders.all); got != 2 {
		t.Fatalf("expected 2 orders, got %d", got)
	}
	if oc := m.svc.Session.Order(); oc.CountTotal != 2 || oc.CountAssigned != 1 {
		t.Fatalf("unexpected counts: %+v", oc)
	}
	if tok := m.svc.Client.Token(); tok != "tok-55" {
		t.Fatalf("expected token to be installed, got %q", tok)
	}
}

func TestLoginRejectedStaysOnLogin(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, nil)

	m.login.user.SetValue("55")
	m.login.pass.SetValue("nope")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)

	if m.view != viewLogin {
		t.Fatalf("expected to stay on login, got %v", m.view)
	}
	if m.login.pass.Value() != "" {
		t.Fatalf("expected password to be cleared")
	}
	if m.note.Kind != model.NotifyError || m.note.Message != workflow.MsgBadCredentials {
		t.Fatalf("unexpected notification: %+v", m.note)
	}
}

func TestEnterOnEmptyPasswordMovesFocus(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, nil)
	m.login.user.SetValue("55")

	m, _ = press(t, m, "enter")
	if m.busy {
		t.Fatalf("expected no login attempt without a password")
	}
	if m.login.focus != 1 {
		t.Fatalf("expected focus on password, got %d", m.login.focus)
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, maintainer())
	m.view = viewOrders
	m.busy = true

	m, cmd := press(t, m, "q")
	if cmd != nil {
		t.Fatalf("expected q to be ignored while busy")
	}
	if !m.busy {
		t.Fatalf("busy flag should be untouched")
	}
}

func TestOrdersFilterPersistsAndEnterOpensDetail(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, maintainer())
	m, cmd := m.navigate(router.RouteOrders)
	m = settle(t, m, cmd)

	m, _ = press(t, m, "f")
	if m.orders.view.Filter != workflow.FilterAssigned {
		t.Fatalf("expected assigned filter, got %q", m.orders.view.Filter)
	}
	if len(m.orders.page.Items) != 1 || m.orders.page.Items[0].Code != 100 {
		t.Fatalf("unexpected page: %+v", m.orders.page.Items)
	}
	st, err := m.svc.Store.LoadTUIState()
	if err != nil {
		t.Fatalf("LoadTUIState: %v", err)
	}
	if st.Filter != string(workflow.FilterAssigned) {
		t.Fatalf("expected saved filter, got %q", st.Filter)
	}
	if restored := newOrdersState(m.svc.Store); restored.view.Filter != workflow.FilterAssigned {
		t.Fatalf("expected restored filter, got %q", restored.view.Filter)
	}

	m, cmd = press(t, m, "enter")
	m = settle(t, m, cmd)
	if m.view != viewDetail {
		t.Fatalf("expected detail view, got %v", m.view)
	}
	if m.detail.order == nil || m.detail.order.Order.Code != 100 {
		t.Fatalf("unexpected detail: %+v", m.detail.order)
	}
	if got := m.svc.Session.Order().Active; got != 100 {
		t.Fatalf("expected active order 100, got %d", got)
	}
}

func TestMaintainerCannotReachAdmin(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, maintainer())

	m, cmd := m.navigate(router.RouteAdmin)
	m = settle(t, m, cmd)
	if m.view != viewOrders {
		t.Fatalf("expected redirect to orders, got %v", m.view)
	}
}

func TestDashboardSortCyclesAndPersists(t *testing.T) {
	_, srv := newBackend(t)
	sup := &model.User{Name: "Luis", Code: 10, Role: model.RoleSupervisor, Authenticated: true, Token: "tok-10"}
	m := newTestApp(t, srv, sup)
	m.view = viewDashboard
	mAny, _ := m.Update(summaryMsg{summary: &model.Summary{
		Maintainers: []model.MaintainerProgress{
			{Code: 55, Name: strp("Ana"), OrdersTotal: 2, OrdersCompleted: 2},
			{Code: 56, Name: strp("Beto"), OrdersTotal: 5, OrdersCompleted: 1},
		},
		Totals: model.SummaryTotals{Orders: 7, OrdersCompleted: 3},
	}})
	m = mAny.(appModel)
	if got := m.dash.rows()[0].Code; got != 55 {
		t.Fatalf("expected best progress first, got %d", got)
	}

	m, _ = press(t, m, "s")
	if m.dash.sort != workflow.SortOrders {
		t.Fatalf("expected orders sort, got %q", m.dash.sort)
	}
	if got := m.dash.rows()[0].Code; got != 56 {
		t.Fatalf("expected most orders first, got %d", got)
	}
	if restored := newDashboardState(m.svc.Store); restored.sort != workflow.SortOrders {
		t.Fatalf("expected restored sort, got %q", restored.sort)
	}
	if out := m.viewDashboard(100); !strings.Contains(out, "43%") {
		t.Fatalf("expected overall percent in view:\n%s", out)
	}
}

func TestAdminSearchAndDeactivate(t *testing.T) {
	b, srv := newBackend(t)
	admin := &model.User{Name: "Admin", Code: 1, Role: model.RoleAdmin, Authenticated: true, Token: "tok-1"}
	m := newTestApp(t, srv, admin)
	m, cmd := m.navigate(router.RouteAdmin)
	m = settle(t, m, cmd)
	if m.view != viewAdmin || len(m.admin.users) != 3 {
		t.Fatalf("expected admin view with 3 users, got %v / %d", m.view, len(m.admin.users))
	}

	m, _ = press(t, m, "/")
	if !m.typing() {
		t.Fatalf("expected search input to take keys")
	}
	m, _ = press(t, m, "ana")
	m, _ = press(t, m, "enter")
	if rows := m.admin.visibleUsers(); len(rows) != 1 || rows[0].Code != 55 {
		t.Fatalf("unexpected search result: %+v", rows)
	}

	m, _ = press(t, m, "x")
	if m.modal != modalConfirm || !m.destructive || m.confirmFocus != confirmFocusCancel {
		t.Fatalf("expected destructive confirm focused on back, got %v/%v/%v", m.modal, m.destructive, m.confirmFocus)
	}
	m, cmd = press(t, m, "s")
	m = settle(t, m, cmd)

	b.mu.Lock()
	got := append([]int(nil), b.deactivated...)
	b.mu.Unlock()
	if len(got) != 1 || got[0] != 55 {
		t.Fatalf("expected user 55 deactivated, got %v", got)
	}
	if rows := m.admin.visibleUsers(); len(rows) != 1 || rows[0].Status != 0 {
		t.Fatalf("expected refreshed inactive user, got %+v", rows)
	}
}

func TestConfirmModalCancelKeepsState(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, maintainer())
	called := false
	m = m.confirm("Título", "¿Seguro?", func(m appModel) (appModel, tea.Cmd) {
		called = true
		return m, nil
	})

	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "enter")
	if called {
		t.Fatalf("cancel button must not run the continuation")
	}
	if m.modal != modalNone {
		t.Fatalf("expected modal closed, got %v", m.modal)
	}
}

func TestChecklistAnswersAdvanceAndSubmitNeedsAll(t *testing.T) {
	_, srv := newBackend(t)
	m := newTestApp(t, srv, maintainer())
	m.checklist = newChecklistState(checklist.NewForTask(model.TaskContext{TaskID: 7, OrderID: 100}, *maintainer(), time.Now()))
	m.view = viewChecklist

	m, _ = press(t, m, "s")
	m, _ = press(t, m, "n")
	f := m.checklist.form
	if f.Rows[0].Answer() != checklist.Si || f.Rows[1].Answer() != checklist.No {
		t.Fatalf("unexpected answers: %+v", f.Rows[:2])
	}
	if m.checklist.row != 2 {
		t.Fatalf("expected cursor on the third question, got %d", m.checklist.row)
	}

	m, cmd := press(t, m, "ctrl+s")
	if cmd != nil || m.busy {
		t.Fatalf("expected submit to be refused")
	}
	if m.checklist.row != 2 {
		t.Fatalf("expected cursor on first missing question, got %d", m.checklist.row)
	}
	if m.note.Kind != model.NotifyError {
		t.Fatalf("expected an error notification, got %+v", m.note)
	}
}

func TestSignedChecklistIgnoresEdits(t *testing.T) {
	_, srv := newBackend(t)
	supervisor := &model.User{Name: "Marta", Code: 12, Role: model.RoleSupervisor, Authenticated: true, Token: "tok-12"}
	m := newTestApp(t, srv, supervisor)
	doc := model.ChecklistDocument{
		OrderID:    100,
		Answers:    []model.ChecklistAnswer{{Item: 2, Estado: "NO", Obs: "grasa"}},
		Supervisor: model.ChecklistSupervisor{Nombre: "Luis", Fecha: "2024-06-02", Firma: "10"},
	}
	m.checklist = newChecklistState(checklist.FromDocument(doc, *supervisor, time.Now(), 100))
	m.view = viewChecklist

	m, _ = press(t, m, "s")
	f := m.checklist.form
	if f.Rows[0].Answer() != checklist.Unset || f.Rows[1].Answer() != checklist.No {
		t.Fatalf("signed answers changed: %+v", f.Rows[:2])
	}
	if m.note.Message != errorText(checklist.ErrSigned) {
		t.Fatalf("expected signed notice, got %+v", m.note)
	}

	m, cmd := press(t, m, "ctrl+s")
	if cmd != nil || m.busy {
		t.Fatalf("signed checklist must not be resent")
	}
	if !strings.Contains(m.View(), "solo lectura") {
		t.Fatalf("view should mark the checklist read-only")
	}
}

func TestErrorText(t *testing.T) {
	cases := map[error]string{
		workflow.ErrOrderClosed:                          "La orden está cerrada.",
		workflow.ErrNotPDF:                               "Solo se pueden importar archivos PDF.",
		&workflow.ValidationError{Fields: []string{"X"}}: "Campos inválidos: X",
	}
	for err, want := range cases {
		if got := errorText(err); got != want {
			t.Fatalf("errorText(%v) = %q, want %q", err, got, want)
		}
	}
}

func strp(s string) *string { return &s }

func TestEscAbandonsUnreachableBackend(t *testing.T) {
	b, srv := newBackend(t)
	b.mu.Lock()
	b.down = true
	b.mu.Unlock()
	// MaxAttempts 0 keeps retrying the readiness check until the call is cancelled.
	m := newTestAppWithReadiness(t, srv, maintainer(), apiclient.ProbePolicy{Interval: time.Millisecond, MaxInterval: 5 * time.Millisecond})

	m, cmd := m.navigate(router.RouteOrders)
	if !m.busy || cmd == nil {
		t.Fatalf("expected an orders load in flight")
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	m, _ = press(t, m, "f")
	if m.orders.view.Filter != workflow.FilterAll {
		t.Fatalf("keys other than esc must be ignored while busy")
	}
	m, _ = press(t, m, "esc")
	if m.note.Message != "Operación cancelada." {
		t.Fatalf("expected cancel notice, got %q", m.note.Message)
	}

	select {
	case msg := <-done:
		mAny, _ := m.Update(msg)
		m = mAny.(appModel)
	case <-time.After(5 * time.Second):
		t.Fatalf("orders load kept running after esc")
	}
	if m.busy {
		t.Fatalf("model still busy after the cancelled call returned")
	}
	if m.view != viewOrders || len(m.orders.all) != 0 {
		t.Fatalf("unexpected state after cancel: view=%v orders=%d", m.view, len(m.orders.all))
	}

	b.mu.Lock()
	b.down = false
	b.mu.Unlock()
	m, cmd = press(t, m, "r")
	m = settle(t, m, cmd)
	if len(m.orders.all) != 2 {
		t.Fatalf("expected reload to work after cancel, got %d orders", len(m.orders.all))
	}
}
