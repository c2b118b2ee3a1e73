package workflow

import (
	"context"
	"testing"
	"time"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/store"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginAPI() *fakeAPI {
	return &fakeAPI{users: []model.Account{
		{Code: 1, Name: "Admin", RoleID: 0},
		{Code: 10, Name: "Luis", RoleID: 1, SpecialtyID: 1, Theme: 1},
		{Code: 55, Name: "Ana", RoleID: 2, SpecialtyID: 2},
		{Code: 99, Name: "Raro", RoleID: 99},
	}}
}

func TestLogin_RoutesByRole(t *testing.T) {
	cases := map[string]router.Route{
		"55": router.RouteOrders,
		"10": router.RouteDashboard,
		"1":  router.RouteAdmin,
	}
	for code, want := range cases {
		api := loginAPI()
		sess := newSession(t)
		route, err := Login(context.Background(), api, sess, code, "pw")
		require.NoError(t, err, code)
		assert.Equal(t, want, route, code)
		assert.True(t, sess.User().Authenticated)
		assert.Equal(t, "tok-pw", api.token)
	}
}

func TestLogin_UnknownRoleForcesLogout(t *testing.T) {
	api := loginAPI()
	sess := newSession(t)
	sess.OnLogout(func() { api.SetToken("") })

	route, err := Login(context.Background(), api, sess, "99", "pw")
	require.ErrorIs(t, err, router.ErrUnknownRole)
	assert.Equal(t, router.RouteLogin, route)
	assert.False(t, sess.User().Authenticated)
	assert.Empty(t, api.token)

	n := activeNotification(t, sess)
	assert.Equal(t, "Error", n.Title)
	assert.Equal(t, router.UnknownRoleMessage, n.Message)
}

func TestLogin_MissingOrBadCredentials(t *testing.T) {
	sess := newSession(t)
	_, err := Login(context.Background(), loginAPI(), sess, " ", "pw")
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, MsgMissingCredentials, activeNotification(t, sess).Message)

	_, err = Login(context.Background(), loginAPI(), sess, "12", "pw")
	require.Error(t, err)
	assert.Equal(t, MsgBadCredentials, activeNotification(t, sess).Message)
	assert.False(t, sess.User().Authenticated)
}

func TestUserFromLogin_Theme(t *testing.T) {
	u := UserFromLogin(&model.LoginResponse{AccessToken: "t", User: model.Account{Code: 10, RoleID: 1, Theme: 1}})
	assert.Equal(t, model.ThemeDark, u.Theme)
	assert.Equal(t, model.RoleSupervisor, u.Role)
	assert.Equal(t, "t", u.Token)
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "55", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

	sess := newSession(t)
	api := &fakeAPI{}
	valid := signed(t, now.Add(time.Hour))
	require.NoError(t, sess.SetUser(ctx, model.User{Code: 55, Role: model.RoleMaintainer, Authenticated: true, Token: valid}))
	route, err := Restore(ctx, api, sess, now)
	require.NoError(t, err)
	assert.Equal(t, router.RouteOrders, route)
	assert.Equal(t, valid, api.token)

	require.NoError(t, sess.SetUser(ctx, model.User{Code: 55, Role: model.RoleMaintainer, Authenticated: true, Token: signed(t, now.Add(-time.Minute))}))
	route, err = Restore(ctx, api, sess, now)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, router.RouteLogin, route)
	assert.False(t, sess.User().Authenticated)
	assert.Equal(t, MsgSessionExpired, activeNotification(t, sess).Message)
}

func TestRestore_ExpiredTokenClearsSavedView(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	st := store.Store{Dir: t.TempDir()}

	svc, err := OpenServices(ctx, ServicesOptions{Store: st, Client: apiclient.New("http://127.0.0.1:1/api")})
	require.NoError(t, err)
	require.NoError(t, svc.Session.SetUser(ctx, model.User{Code: 55, Role: model.RoleMaintainer, Authenticated: true, Token: signed(t, now.Add(-time.Minute))}))
	require.NoError(t, st.SaveTUIState(&store.TUIState{Version: 1, Search: "bomba", Page: 3}))

	_, err = Restore(ctx, svc.Client, svc.Session, now)
	require.ErrorIs(t, err, ErrSessionExpired)

	saved, err := st.LoadTUIState()
	require.NoError(t, err)
	assert.Empty(t, saved.Search)
	assert.Zero(t, saved.Page)
}

func TestRestore_Anonymous(t *testing.T) {
	route, err := Restore(context.Background(), &fakeAPI{}, newSession(t), time.Now())
	require.NoError(t, err)
	assert.Equal(t, router.RouteLogin, route)
}
