package router

import (
	"context"
	"errors"
	"testing"

	"pautas-cli/internal/model"
	"pautas-cli/internal/session"
	"pautas-cli/internal/store"
)

func TestHome_ByRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role model.Role
		want Route
	}{
		{model.RoleAdmin, RouteAdmin},
		{model.RoleSupervisor, RouteDashboard},
		{model.RoleMaintainer, RouteOrders},
	}
	for _, tc := range cases {
		got, err := Home(model.User{Authenticated: true, Role: tc.role})
		if err != nil {
			t.Fatalf("Home(%s): %v", tc.role, err)
		}
		if got != tc.want {
			t.Fatalf("Home(%s) = %s, want %s", tc.role, got, tc.want)
		}
	}

	_, err := Home(model.User{Authenticated: true, Role: model.Role(99)})
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestGuard(t *testing.T) {
	t.Parallel()

	anon := session.Defaults()
	if d := Guard(RouteOrders, anon); d.Route != RouteLogin || !d.Redirected {
		t.Fatalf("anonymous should go to login: %#v", d)
	}

	loading := session.Defaults()
	loading.Control.Loading = true
	if d := Guard(RouteOrders, loading); !d.Pending {
		t.Fatalf("loading should suppress the decision: %#v", d)
	}

	mant := session.Defaults()
	mant.User = model.User{Authenticated: true, Role: model.RoleMaintainer}
	if d := Guard(RouteTask, mant); d.Route != RouteTask || d.Redirected {
		t.Fatalf("maintainer may open task: %#v", d)
	}
	if d := Guard(RouteAdmin, mant); d.Route != RouteOrders || !d.Redirected {
		t.Fatalf("maintainer should bounce home from admin: %#v", d)
	}

	sup := session.Defaults()
	sup.User = model.User{Authenticated: true, Role: model.RoleSupervisor}
	if d := Guard(RouteTask, sup); d.Route != RouteDashboard {
		t.Fatalf("supervisor cannot execute tasks: %#v", d)
	}
}

func TestEnter_UnknownRoleForcesLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sess, err := session.Open(ctx, store.Store{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	_ = sess.SetUser(ctx, model.User{Name: "X", Code: 1, Authenticated: true, Role: model.Role(99), Token: "tok"})

	r, err := Enter(ctx, sess)
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if r != RouteLogin {
		t.Fatalf("route = %s", r)
	}
	if sess.User().Authenticated {
		t.Fatalf("session should be logged out")
	}
	n, ok := sess.ActiveNotification(ctx)
	if !ok || n.Kind != model.NotifyError || n.Message != UnknownRoleMessage {
		t.Fatalf("expected error notification, got %#v", n)
	}
}

func TestEnter_KnownRoles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for role, want := range map[model.Role]Route{
		model.RoleMaintainer: RouteOrders,
		model.RoleSupervisor: RouteDashboard,
		model.RoleAdmin:      RouteAdmin,
	} {
		sess, err := session.Open(ctx, store.Store{Dir: t.TempDir()})
		if err != nil {
			t.Fatalf("session.Open: %v", err)
		}
		_ = sess.SetUser(ctx, model.User{Authenticated: true, Role: role})
		got, err := Enter(ctx, sess)
		if err != nil || got != want {
			t.Fatalf("Enter(%s) = %s, %v", role, got, err)
		}
	}
}

func TestParseRoute(t *testing.T) {
	t.Parallel()

	if ParseRoute("Dashboard") != RouteDashboard || ParseRoute("nope") != RouteNotFound {
		t.Fatalf("unexpected ParseRoute results")
	}
}
