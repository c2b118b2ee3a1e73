package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrders(n int) []model.Order {
	out := make([]model.Order, 0, n)
	for i := 1; i <= n; i++ {
		o := model.Order{
			Code:           1000 + i,
			Description:    fmt.Sprintf("Pauta %d", i),
			EstimatedHours: float64(i),
			TaskCount:      2,
			Tasks:          []model.TaskDef{{"Descripcion": "Cambiar aceite"}, {"Descripcion": "Revisar correa"}},
		}
		if i%2 == 0 {
			o.AssignedTo = intp(55)
		}
		out = append(out, o)
	}
	return out
}

func TestFilterOrders_AssignedAndUnassigned(t *testing.T) {
	orders := sampleOrders(7)
	orders = append(orders, model.Order{Code: 9, AssignedTo: intp(0)})

	for _, o := range FilterOrders(orders, "", FilterAssigned) {
		require.NotNil(t, o.AssignedTo)
		assert.NotZero(t, *o.AssignedTo)
	}
	for _, o := range FilterOrders(orders, "", FilterUnassigned) {
		assert.False(t, o.Assigned(), "order %d", o.Code)
	}
	assert.Len(t, FilterOrders(orders, "", FilterAssigned), 3)
	assert.Len(t, FilterOrders(orders, "", FilterUnassigned), 5)
	assert.Len(t, FilterOrders(orders, "", FilterAll), 8)
}

func TestMatchesSearch(t *testing.T) {
	o := model.Order{
		Code:           1234,
		Description:    "Mantención Bomba",
		EstimatedHours: 2.5,
		TaskCount:      3,
		Tasks:          []model.TaskDef{{"Descripcion": "Lubricar rodamientos"}},
	}
	for _, term := range []string{"", "123", "bomba", "2.5", "3", "RODAMIENTOS"} {
		assert.True(t, MatchesSearch(o, term), "term %q", term)
	}
	assert.False(t, MatchesSearch(o, "compresor"))
}

func TestTotalPages(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 10: 1, 11: 2, 25: 3, 30: 3}
	for n, want := range cases {
		assert.Equal(t, want, TotalPages(n), "n=%d", n)
	}
}

func TestListView_SearchAndFilterResetPage(t *testing.T) {
	orders := sampleOrders(35)
	v := NewListView()

	res := v.Apply(orders)
	assert.Equal(t, 4, res.TotalPages)
	assert.Len(t, res.Items, 10)

	require.True(t, v.GoTo(4, res.TotalPages))
	res = v.Apply(orders)
	assert.Len(t, res.Items, 5)
	assert.Equal(t, 1031, res.Items[0].Code)
	assert.False(t, v.GoTo(5, res.TotalPages))

	v.SetSearch("pauta 1")
	assert.Equal(t, 1, v.Page)

	require.True(t, v.GoTo(2, 2))
	v.SetFilter(FilterAssigned)
	assert.Equal(t, 1, v.Page)
}

func TestListView_ClampsPageWhenResultsShrink(t *testing.T) {
	v := ListView{Filter: FilterAll, Page: 3}
	res := v.Apply(sampleOrders(12))
	assert.Equal(t, 2, res.Page)
	assert.Len(t, res.Items, 2)

	v.Page = 5
	res = v.Apply(nil)
	assert.Equal(t, 1, res.Page)
	assert.Empty(t, res.Items)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, intp(2), ParsePriority("2"))
	assert.Equal(t, intp(3), ParsePriority(" 3 "))
	assert.Nil(t, ParsePriority(""))
	assert.Nil(t, ParsePriority("alta"))
	assert.Nil(t, ParsePriority("0"))
}

func TestAssign_RequiresOrderAndMaintainer(t *testing.T) {
	api := &fakeAPI{}
	sess := newSession(t)
	o := NewOrders(api, sess)

	err := o.Assign(context.Background(), 1234, 0, "", "2")
	require.ErrorIs(t, err, ErrMissingSelection)
	assert.Empty(t, api.assigned)
	assert.Equal(t, MsgMissingSelection, activeNotification(t, sess).Message)
}

func TestAssign_FailureLeavesListUntouched(t *testing.T) {
	api := &fakeAPI{orders: sampleOrders(3), fail: errBackend}
	sess := newSession(t)
	o := NewOrders(api, sess)

	err := o.Assign(context.Background(), 1001, 55, "", "1")
	require.ErrorIs(t, err, errBackend)
	assert.Zero(t, api.listCalls)
	assert.Equal(t, model.NotifyError, activeNotification(t, sess).Kind)
}

func TestAssign_RefetchFailureIsReportedApart(t *testing.T) {
	api := &fakeAPI{orders: sampleOrders(3), listFail: context.Canceled}
	sess := newSession(t)
	o := NewOrders(api, sess)

	err := o.Assign(context.Background(), 1001, 55, "", "1")
	require.ErrorIs(t, err, ErrRefetch)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, api.assigned, 1)
	assert.Equal(t, model.NotifySuccess, activeNotification(t, sess).Kind)

	err = o.Cancel(context.Background(), 1001, Answers{Confirmed: true, Text: strp("sin repuesto")})
	require.ErrorIs(t, err, ErrRefetch)
	assert.Equal(t, []string{"sin repuesto"}, api.cancels)
}

// Full round trip through the HTTP client against a fake backend.
func TestAssign_SendsIntegerPriorityAndRefetches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var body map[string]any
	listCalls := 0
	r := gin.New()
	r.GET("/api/auth/check", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.GET("/api/ordenes", func(c *gin.Context) {
		listCalls++
		c.JSON(http.StatusOK, []gin.H{{"code": 1234, "assigned_to": 55, "status": 0}})
	})
	r.GET("/api/users/getMantenedores", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"code": 55, "nombre": "Ana"}})
	})
	r.PATCH("/api/ordenes/:code/assign", func(c *gin.Context) {
		assert.NoError(t, json.NewDecoder(c.Request.Body).Decode(&body))
		c.JSON(http.StatusOK, gin.H{"code": 1234, "assigned_to": 55, "prioridad": 2})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL+"/api", apiclient.WithProbe(apiclient.ProbePolicy{Interval: time.Millisecond}))
	sess := newSession(t)
	o := NewOrders(client, sess)

	require.NoError(t, o.Assign(context.Background(), 1234, 55, "urgente", "2"))
	assert.Equal(t, float64(55), body["assigned_to"])
	assert.Equal(t, float64(2), body["prioridad"])
	assert.Equal(t, "urgente", body["obs_orden"])
	assert.Equal(t, 1, listCalls)
	assert.Equal(t, 1, sess.Order().CountAssigned)
	assert.Len(t, o.Maintainers, 1)
}

func TestCancel_DismissedReasonSendsNothing(t *testing.T) {
	api := &fakeAPI{}
	o := NewOrders(api, newSession(t))

	p := &scripted{confirm: true}
	err := o.Cancel(context.Background(), 1234, p)
	require.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, api.cancels)
	assert.Equal(t, []string{MsgCancelConfirm, MsgCancelReason + "|"}, p.asked)

	err = o.Cancel(context.Background(), 1234, &scripted{confirm: false, text: strp("x")})
	require.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, api.cancels)
}

func TestCancel_EmptyReasonStillCancels(t *testing.T) {
	api := &fakeAPI{orders: sampleOrders(2)}
	o := NewOrders(api, newSession(t))

	require.NoError(t, o.Cancel(context.Background(), 1234, Answers{Confirmed: true, Text: strp("")}))
	assert.Equal(t, []string{""}, api.cancels)
	assert.Equal(t, 1, api.listCalls)
}

func TestCancel_FailureSurfacesAlert(t *testing.T) {
	api := &fakeAPI{fail: errBackend}
	sess := newSession(t)
	o := NewOrders(api, sess)

	err := o.Cancel(context.Background(), 1234, Answers{Confirmed: true, Text: strp("motor dañado")})
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, "Error al cancelar la orden. Por favor, inténtalo de nuevo.", activeNotification(t, sess).Message)
}

func detailFixture(status model.OrderStatus) *model.OrderDetail {
	return &model.OrderDetail{
		Order: model.OrderRecord{
			Code:       1234,
			Status:     status,
			AssignedBy: intp(10),
			Data: model.SourceData{Fields: map[string]any{
				"Descripcion": "Mantención bomba",
				"Tareas":      []any{map[string]any{"Descripcion": "Lubricar", "Valor esperado": "5 bar"}, map[string]any{"Descripcion": "Probar"}},
				"Protocolos":  []any{"P1 bloqueo", "P2 prueba"},
			}},
		},
		AssignedByName: "Luis",
		Tasks: []model.Task{
			{OrderCode: 1234, Number: 1, ObsAssignedBy: "usar guantes", Status: model.TaskPending},
			{OrderCode: 1234, Number: 2, Status: model.TaskFinished},
		},
	}
}

func TestSetObservation_PrefillsExistingNote(t *testing.T) {
	d := detailFixture(model.OrderInProgress)
	api := &fakeAPI{detail: d}
	o := NewOrders(api, newSession(t))

	p := &scripted{confirm: true, text: strp("usar guantes y lentes")}
	_, err := o.SetObservation(context.Background(), d, 1, apiclient.ObservationSupervisor, p)
	require.NoError(t, err)
	assert.Equal(t, []string{MsgObsConfirm, MsgObsPrompt + "|usar guantes"}, p.asked)
	require.Len(t, api.obs, 1)
	assert.Equal(t, obsCall{1234, 1, apiclient.ObservationSupervisor, "usar guantes y lentes"}, api.obs[0])
}

func TestSetObservation_DisabledOnClosedOrders(t *testing.T) {
	for _, st := range []model.OrderStatus{model.OrderCompleted, model.OrderCancelled} {
		d := detailFixture(st)
		api := &fakeAPI{detail: d}
		o := NewOrders(api, newSession(t))

		_, err := o.SetObservation(context.Background(), d, 1, apiclient.ObservationSupervisor, Answers{Confirmed: true, Text: strp("x")})
		assert.ErrorIs(t, err, ErrOrderClosed)
		assert.Empty(t, api.obs)
	}
}

func TestDetail_FocusesOrderAndAnnexes(t *testing.T) {
	d := detailFixture(model.OrderPending)
	sess := newSession(t)
	o := NewOrders(&fakeAPI{detail: d}, sess)

	_, err := o.Detail(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, 1234, sess.Order().Active)
	assert.Equal(t, []string{"P1 bloqueo", "P2 prueba"}, sess.Order().Annexes)

	_, err = o.Detail(context.Background(), 99)
	assert.True(t, apiclient.IsStatus(err, http.StatusNotFound))
}
