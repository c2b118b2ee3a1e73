package cli

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"pautas-cli/internal/model"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// fakeBackend is an in-memory pautas API.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[int]model.Account
	orders   []model.Order
	assigned []model.AssignRequest
	cancels  []string
	auths    []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		users: map[int]model.Account{
			1:  {Code: 1, Name: "Admin", RoleID: 0, Status: 1},
			10: {Code: 10, Name: "Luis", RoleID: 1, SpecialtyID: 1, Status: 1},
			55: {Code: 55, Name: "Ana", RoleID: 2, SpecialtyID: 1, Status: 1},
		},
		orders: []model.Order{
			{Code: 100, Description: "Revisión bomba", EstimatedHours: 2, TaskCount: 2, Status: model.OrderPending},
			{Code: 101, Description: "Cambio filtro", EstimatedHours: 1, TaskCount: 1, Status: model.OrderPending, AssignedTo: intp(55)},
		},
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/auth/check", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.POST("/auth/login", func(c *gin.Context) {
		var in struct {
			Code     int    `json:"code"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		b.mu.Lock()
		u, ok := b.users[in.Code]
		b.mu.Unlock()
		if !ok || in.Password != "pw" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
			return
		}
		c.JSON(http.StatusOK, model.LoginResponse{AccessToken: token(t, u.Code), TokenType: "bearer", User: u})
	})
	api.GET("/ordenes", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.auths = append(b.auths, c.GetHeader("Authorization"))
		c.JSON(http.StatusOK, b.orders)
	})
	api.GET("/users/getMantenedores", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		c.JSON(http.StatusOK, []model.Account{b.users[55]})
	})
	api.GET("/ordenes/:code", func(c *gin.Context) {
		code, _ := strconv.Atoi(c.Param("code"))
		if code != 100 {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Orden no encontrada"})
			return
		}
		c.JSON(http.StatusOK, model.OrderDetail{
			Order: model.OrderRecord{
				Code:   100,
				Status: model.OrderPending,
				Data: model.SourceData{Fields: map[string]any{
					"Descripcion": "Revisión bomba",
					"Tareas":      []any{map[string]any{"Descripcion": "Medir presión"}, map[string]any{"Descripcion": "Lubricar"}},
					"Protocolos":  []any{"Anexo A"},
				}},
			},
			Tasks: []model.Task{{OrderCode: 100, Number: 1, Status: model.TaskPending}},
		})
	})
	api.PATCH("/ordenes/:code/assign", func(c *gin.Context) {
		var in model.AssignRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
			return
		}
		code, _ := strconv.Atoi(c.Param("code"))
		b.mu.Lock()
		defer b.mu.Unlock()
		b.assigned = append(b.assigned, in)
		for i := range b.orders {
			if b.orders[i].Code == code {
				b.orders[i].AssignedTo = intp(in.AssignedTo)
				b.orders[i].Priority = in.Priority
			}
		}
		c.JSON(http.StatusOK, model.OrderRecord{Code: code, AssignedTo: intp(in.AssignedTo), Priority: in.Priority})
	})
	api.DELETE("/ordenes/:code", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.cancels = append(b.cancels, c.Param("code")+":"+c.Query("payload"))
		c.JSON(http.StatusOK, model.MessageResponse{Message: "Orden cancelada"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func token(t *testing.T, code int) string {
	t.Helper()
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": strconv.Itoa(code),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func intp(n int) *int { return &n }

// cliEnv isolates config and session state and points at srv.
func cliEnv(t *testing.T, srv *httptest.Server) []string {
	t.Helper()
	t.Setenv("PAUTAS_CONFIG_DIR", t.TempDir())
	t.Setenv("PAUTAS_PROBE_MAX_ATTEMPTS", "1")
	t.Setenv("PAUTAS_THEME_SYNC", "false")
	t.Setenv("PAUTAS_PASSWORD", "")
	return []string{"--dir", t.TempDir(), "--server", strings.TrimRight(srv.URL, "/") + "/api"}
}
