package workflow

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/model"
	"pautas-cli/internal/router"
	"pautas-cli/internal/session"

	"github.com/rs/zerolog/log"
)

type AuthAPI interface {
	Login(ctx context.Context, code int, password string) (*model.LoginResponse, error)
	SetToken(token string)
}

// UserFromLogin builds the session user from a login response.
func UserFromLogin(res *model.LoginResponse) model.User {
	return model.User{
		Name:          res.User.Name,
		Code:          res.User.Code,
		Role:          model.Role(res.User.RoleID),
		SpecialtyID:   res.User.SpecialtyID,
		Authenticated: true,
		Theme:         model.ThemeFromWire(res.User.Theme),
		Token:         res.AccessToken,
	}
}

// Login authenticates and routes the user to their home screen. The token
// is installed on api before routing so an unknown role still clears it
// through the logout hooks.
func Login(ctx context.Context, api AuthAPI, sess *session.Session, codeText, password string) (router.Route, error) {
	codeText = strings.TrimSpace(codeText)
	if codeText == "" || password == "" {
		notify(ctx, sess, model.NotifyWarning, "Ingreso", MsgMissingCredentials, NoticeDuration)
		return router.RouteLogin, ErrMissingCredentials
	}
	code, err := strconv.Atoi(codeText)
	if err != nil {
		notify(ctx, sess, model.NotifyWarning, "Ingreso", "El usuario debe ser numérico.", NoticeDuration)
		return router.RouteLogin, err
	}

	persisted("control", sess.SetLoading(ctx, true))
	res, err := api.Login(ctx, code, password)
	persisted("control", sess.SetLoading(ctx, false))
	if err != nil {
		msg := "No se pudo conectar con el servidor."
		if apiclient.IsStatus(err, http.StatusUnauthorized) || apiclient.IsStatus(err, http.StatusNotFound) {
			msg = MsgBadCredentials
		}
		fail(ctx, sess, msg)
		return router.RouteLogin, err
	}

	api.SetToken(res.AccessToken)
	if err := sess.SetUser(ctx, UserFromLogin(res)); err != nil {
		return router.RouteLogin, err
	}
	route, err := router.Enter(ctx, sess)
	if err != nil {
		return route, err
	}
	log.Info().Int("user", code).Str("route", route.String()).Msg("logged in")
	return route, nil
}

// Restore installs a persisted token and returns the user's home route.
// An expired token ends the session.
func Restore(ctx context.Context, api AuthAPI, sess *session.Session, now time.Time) (router.Route, error) {
	u := sess.User()
	if !u.Authenticated {
		return router.RouteLogin, nil
	}
	if u.Token == "" || apiclient.TokenExpired(u.Token, now) {
		if err := sess.Logout(ctx); err != nil {
			return router.RouteLogin, err
		}
		notify(ctx, sess, model.NotifyWarning, "Sesión", MsgSessionExpired, NoticeDuration)
		return router.RouteLogin, ErrSessionExpired
	}
	api.SetToken(u.Token)
	return router.Enter(ctx, sess)
}

var ErrSessionExpired = errors.New("session expired")
