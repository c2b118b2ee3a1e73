package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"pautas-cli/internal/store"
	"pautas-cli/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func decodeData(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(out, &env), string(out))
	data, ok := env["data"].(map[string]any)
	require.True(t, ok, "data: %s", string(out))
	return data
}

func with(base []string, args ...string) []string {
	return append(append([]string{}, base...), args...)
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	b, srv := newFakeBackend(t)
	base := cliEnv(t, srv)

	out, errOut, err := runCLI(t, with(base, "login", "--user", "55", "--password", "pw"))
	require.NoError(t, err, string(errOut))
	data := decodeData(t, out)
	assert.Equal(t, "orders", data["route"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "Ana", user["name"])
	assert.NotContains(t, string(out), "token")

	// The session survives across invocations.
	out, errOut, err = runCLI(t, with(base, "whoami"))
	require.NoError(t, err, string(errOut))
	assert.Equal(t, float64(55), decodeData(t, out)["code"])

	out, errOut, err = runCLI(t, with(base, "orders", "list"))
	require.NoError(t, err, string(errOut))
	data = decodeData(t, out)
	assert.Equal(t, float64(2), data["total"])
	assert.Equal(t, float64(1), data["page"])

	b.mu.Lock()
	require.NotEmpty(t, b.auths)
	assert.Contains(t, b.auths[len(b.auths)-1], "Bearer ")
	b.mu.Unlock()

	_, errOut, err = runCLI(t, with(base, "logout"))
	require.NoError(t, err, string(errOut))

	_, errOut, err = runCLI(t, with(base, "whoami"))
	require.ErrorIs(t, err, errLoginRequired)
	assert.Contains(t, string(errOut), "not logged in")
}

func TestCLI_LogoutClearsSavedTUIState(t *testing.T) {
	_, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	st := store.Store{Dir: base[1]}

	_, errOut, err := runCLI(t, with(base, "login", "--user", "55", "--password", "pw"))
	require.NoError(t, err, string(errOut))
	require.NoError(t, st.SaveTUIState(&store.TUIState{Version: 1, Search: "bomba", Filter: "assigned", Page: 2}))

	_, errOut, err = runCLI(t, with(base, "logout"))
	require.NoError(t, err, string(errOut))

	saved, err := st.LoadTUIState()
	require.NoError(t, err)
	assert.Empty(t, saved.Search)
	assert.Empty(t, saved.Filter)
	assert.Zero(t, saved.Page)
}

func TestCLI_LoginRejected(t *testing.T) {
	_, srv := newFakeBackend(t)
	base := cliEnv(t, srv)

	_, errOut, err := runCLI(t, with(base, "login", "--user", "55", "--password", "nope"))
	require.Error(t, err)
	assert.Contains(t, string(errOut), workflow.MsgBadCredentials)

	_, errOut, err = runCLI(t, with(base, "login", "--user", "55"))
	require.ErrorIs(t, err, workflow.ErrMissingCredentials)
	assert.Contains(t, string(errOut), workflow.MsgMissingCredentials)
}

func TestCLI_OrdersListFilterAndTable(t *testing.T) {
	_, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	_, _, err := runCLI(t, with(base, "login", "--user", "55", "--password", "pw"))
	require.NoError(t, err)

	out, errOut, err := runCLI(t, with(base, "orders", "list", "--filter", "unassigned"))
	require.NoError(t, err, string(errOut))
	data := decodeData(t, out)
	items := data["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(100), items[0].(map[string]any)["code"])

	out, errOut, err = runCLI(t, with(base, "--format", "table", "orders", "list", "--search", "filtro"))
	require.NoError(t, err, string(errOut))
	assert.Contains(t, string(out), "Código")
	assert.Contains(t, string(out), "Cambio filtro")
	assert.NotContains(t, string(out), "Revisión bomba")

	_, _, err = runCLI(t, with(base, "orders", "list", "--filter", "mine"))
	require.Error(t, err)

	_, _, err = runCLI(t, with(base, "orders", "list", "--page", "3"))
	require.Error(t, err)
}

func TestCLI_OrdersShow(t *testing.T) {
	_, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	_, _, err := runCLI(t, with(base, "login", "--user", "55", "--password", "pw"))
	require.NoError(t, err)

	out, errOut, err := runCLI(t, with(base, "orders", "show", "100"))
	require.NoError(t, err, string(errOut))
	data := decodeData(t, out)
	assert.Equal(t, "Revisión bomba", data["description"])
	tasks := data["tasks"].([]any)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Medir presión", tasks[0].(map[string]any)["description"])
	assert.Equal(t, []any{"Anexo A"}, data["anexos"])

	_, _, err = runCLI(t, with(base, "orders", "show", "404"))
	require.Error(t, err)
	assert.ErrorAs(t, err, new(notFoundError))
}

func TestCLI_AssignRequiresSupervisor(t *testing.T) {
	b, srv := newFakeBackend(t)
	base := cliEnv(t, srv)

	_, _, err := runCLI(t, with(base, "login", "--user", "55", "--password", "pw"))
	require.NoError(t, err)
	_, errOut, err := runCLI(t, with(base, "orders", "assign", "100", "--to", "55"))
	require.Error(t, err)
	assert.Contains(t, string(errOut), "permission denied")

	_, _, err = runCLI(t, with(base, "login", "--user", "10", "--password", "pw"))
	require.NoError(t, err)
	out, errOut, err := runCLI(t, with(base, "orders", "assign", "100", "--to", "55", "--priority", "2", "--obs", "urgente"))
	require.NoError(t, err, string(errOut))
	data := decodeData(t, out)
	assert.Equal(t, float64(55), data["assigned_to"])

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.assigned, 1)
	assert.Equal(t, 55, b.assigned[0].AssignedTo)
	assert.Equal(t, "urgente", b.assigned[0].Observation)
	require.NotNil(t, b.assigned[0].Priority)
	assert.Equal(t, 2, *b.assigned[0].Priority)
}

func TestCLI_AssignWithoutMaintainer(t *testing.T) {
	b, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	_, _, err := runCLI(t, with(base, "login", "--user", "10", "--password", "pw"))
	require.NoError(t, err)

	_, errOut, err := runCLI(t, with(base, "orders", "assign", "100"))
	require.ErrorIs(t, err, workflow.ErrMissingSelection)
	assert.Contains(t, string(errOut), workflow.MsgMissingSelection)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Empty(t, b.assigned)
}

func TestCLI_CancelNeedsConfirmation(t *testing.T) {
	b, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	_, _, err := runCLI(t, with(base, "login", "--user", "10", "--password", "pw"))
	require.NoError(t, err)

	_, errOut, err := runCLI(t, with(base, "orders", "cancel", "100", "--reason", "duplicada"))
	require.Error(t, err)
	assert.Contains(t, string(errOut), "cancel aborted")

	_, errOut, err = runCLI(t, with(base, "orders", "cancel", "100", "--yes", "--reason", "duplicada"))
	require.NoError(t, err, string(errOut))

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, []string{"100:duplicada"}, b.cancels)
}

func TestCLI_ProfilesUse(t *testing.T) {
	t.Setenv("PAUTAS_CONFIG_DIR", t.TempDir())

	out, errOut, err := runCLI(t, []string{"profiles", "use", "planta2", "--server", "http://planta2:8000"})
	require.NoError(t, err, string(errOut))
	assert.Equal(t, "planta2", decodeData(t, out)["current"])

	out, errOut, err = runCLI(t, []string{"profiles", "list"})
	require.NoError(t, err, string(errOut))
	data := decodeData(t, out)
	assert.Equal(t, "planta2", data["current"])
	assert.Contains(t, data["profiles"], "planta2")

	_, _, err = runCLI(t, []string{"profiles", "use", "../x"})
	require.Error(t, err)
}

func TestCLI_SessionShowOmitsToken(t *testing.T) {
	_, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	_, _, err := runCLI(t, with(base, "login", "--user", "55", "--password", "pw"))
	require.NoError(t, err)

	out, errOut, err := runCLI(t, with(base, "session", "show"))
	require.NoError(t, err, string(errOut))
	st := decodeData(t, out)["state"].(map[string]any)
	user := st["user"].(map[string]any)
	assert.Equal(t, true, user["authenticated"])
	_, hasToken := user["token"]
	assert.False(t, hasToken)

	out, errOut, err = runCLI(t, with(base, "session", "slices"))
	require.NoError(t, err, string(errOut))
	assert.NotContains(t, string(out), "eyJ")
}

func TestCLI_UnknownFormat(t *testing.T) {
	_, srv := newFakeBackend(t)
	base := cliEnv(t, srv)
	_, _, err := runCLI(t, with(base, "--format", "xml", "profiles", "list"))
	require.Error(t, err)
}

func TestCLI_DocsTopics(t *testing.T) {
	t.Setenv("PAUTAS_CONFIG_DIR", t.TempDir())

	out, errOut, err := runCLI(t, []string{"docs"})
	require.NoError(t, err, string(errOut))
	assert.Contains(t, decodeData(t, out)["topics"], "roles")

	out, errOut, err = runCLI(t, []string{"docs", "Roles", "--raw"})
	require.NoError(t, err, string(errOut))
	assert.True(t, bytes.HasPrefix(out, []byte("# Roles")), string(out))

	out, errOut, err = runCLI(t, []string{"docs", "roles"})
	require.NoError(t, err, string(errOut))
	assert.Equal(t, "roles", decodeData(t, out)["topic"])

	_, _, err = runCLI(t, []string{"docs", "nope"})
	require.Error(t, err)
}
