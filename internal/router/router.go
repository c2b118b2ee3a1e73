// Package router decides which screen a session may see.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pautas-cli/internal/model"
	"pautas-cli/internal/session"
)

type Route int

const (
	RouteLogin Route = iota
	RouteAdmin
	RouteDashboard
	RouteOrders
	RouteOrderDetail
	RouteTask
	RouteChecklist
	RouteNotFound
)

var routeNames = map[Route]string{
	RouteLogin:       "login",
	RouteAdmin:       "admin",
	RouteDashboard:   "dashboard",
	RouteOrders:      "orders",
	RouteOrderDetail: "order",
	RouteTask:        "task",
	RouteChecklist:   "checklist",
	RouteNotFound:    "not-found",
}

func (r Route) String() string {
	if s, ok := routeNames[r]; ok {
		return s
	}
	return fmt.Sprintf("route(%d)", int(r))
}

// ParseRoute maps a route name back to a Route; unknown names are RouteNotFound.
func ParseRoute(s string) Route {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, name := range routeNames {
		if name == s {
			return r
		}
	}
	return RouteNotFound
}

// UnknownRoleMessage is shown when the backend returns a role the client does not know.
const UnknownRoleMessage = "Tipo de usuario no reconocido. Contacte al administrador."

var ErrUnknownRole = errors.New("unrecognized user type")

// Home is the landing route for an authenticated user.
func Home(u model.User) (Route, error) {
	role, err := model.ParseRole(int(u.Role))
	if err != nil {
		return RouteLogin, fmt.Errorf("%w: %v", ErrUnknownRole, err)
	}
	switch role {
	case model.RoleAdmin:
		return RouteAdmin, nil
	case model.RoleSupervisor:
		return RouteDashboard, nil
	case model.RoleMaintainer:
		return RouteOrders, nil
	}
	return RouteLogin, ErrUnknownRole
}

var permitted = map[model.Role]map[Route]bool{
	model.RoleAdmin:      {RouteAdmin: true},
	model.RoleSupervisor: {RouteDashboard: true, RouteOrders: true, RouteOrderDetail: true, RouteChecklist: true},
	model.RoleMaintainer: {RouteOrders: true, RouteOrderDetail: true, RouteTask: true, RouteChecklist: true},
}

// Allowed reports whether role may open route.
func Allowed(role model.Role, r Route) bool {
	return permitted[role][r]
}

// Decision is the outcome of guarding a navigation.
type Decision struct {
	Route Route
	// Pending means the session is still loading; render a placeholder and
	// decide again later.
	Pending bool
	// Redirected is set when Route differs from the requested one.
	Redirected bool
}

// Guard resolves a navigation request against the session state.
func Guard(want Route, st session.State) Decision {
	if st.Control.Loading {
		return Decision{Route: want, Pending: true}
	}
	if want == RouteLogin {
		return Decision{Route: RouteLogin}
	}
	if !st.User.Authenticated {
		return Decision{Route: RouteLogin, Redirected: true}
	}
	if !st.User.Role.Valid() {
		return Decision{Route: RouteLogin, Redirected: true}
	}
	if want == RouteNotFound {
		return Decision{Route: RouteNotFound}
	}
	if !Allowed(st.User.Role, want) {
		home, _ := Home(st.User)
		return Decision{Route: home, Redirected: true}
	}
	return Decision{Route: want}
}

// Enter routes a freshly authenticated session to its home. An unknown role
// logs the session out and reports the error through a notification.
func Enter(ctx context.Context, sess *session.Session) (Route, error) {
	home, err := Home(sess.User())
	if err == nil {
		return home, nil
	}
	if lerr := sess.Logout(ctx); lerr != nil {
		return RouteLogin, errors.Join(err, lerr)
	}
	if ferr := sess.Fail(ctx, UnknownRoleMessage); ferr != nil {
		return RouteLogin, errors.Join(err, ferr)
	}
	return RouteLogin, err
}

// Variant picks the supervisor or maintainer flavor of the order screens.
type Variant int

const (
	VariantSupervisor Variant = iota
	VariantMaintainer
)

func OrderVariant(role model.Role) Variant {
	if role == model.RoleMaintainer {
		return VariantMaintainer
	}
	return VariantSupervisor
}
