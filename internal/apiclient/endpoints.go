package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"pautas-cli/internal/model"

	"github.com/rs/zerolog/log"
)

// ObservationSide selects whose note a task observation updates.
type ObservationSide string

const (
	ObservationSupervisor ObservationSide = "supervisor"
	ObservationMaintainer ObservationSide = "mantenedor"
)

// Login exchanges credentials for a token. It does not install the token.
func (c *Client) Login(ctx context.Context, code int, password string) (*model.LoginResponse, error) {
	body := map[string]any{"code": code, "password": password}
	var out model.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckAuth runs a single health/auth check without retrying.
func (c *Client) CheckAuth(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, checkPath, nil, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]model.Account, error) {
	return readList[model.Account](ctx, c, "/users")
}

func (c *Client) ListMaintainers(ctx context.Context) ([]model.Account, error) {
	return readList[model.Account](ctx, c, "/users/getMantenedores")
}

func (c *Client) AddUser(ctx context.Context, in model.NewAccount) (*model.Account, error) {
	var out model.Account
	if err := c.do(ctx, http.MethodPost, "/users", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EditUser(ctx context.Context, code int, patch model.AccountPatch) (*model.Account, error) {
	var out model.Account
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d", code), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeactivateUser soft-deletes an account (estado=0).
func (c *Client) DeactivateUser(ctx context.Context, code int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", code), nil, nil)
}

func (c *Client) ListSpecialties(ctx context.Context) ([]model.Specialty, error) {
	return readList[model.Specialty](ctx, c, "/especialidades")
}

func (c *Client) AddSpecialty(ctx context.Context, in model.Specialty) (*model.Specialty, error) {
	var out model.Specialty
	if err := c.do(ctx, http.MethodPost, "/especialidades", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EditSpecialty(ctx context.Context, code int, patch model.SpecialtyPatch) (*model.Specialty, error) {
	var out model.Specialty
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/especialidades/%d", code), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeactivateSpecialty(ctx context.Context, code int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/especialidades/%d", code), nil, nil)
}

// ListOrders returns the orders visible to the current user. The backend
// scopes the list by role.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	return readList[model.Order](ctx, c, "/ordenes")
}

// OrdersSummary returns the supervisor dashboard. Failures degrade to an
// empty summary.
func (c *Client) OrdersSummary(ctx context.Context) (*model.Summary, error) {
	var out model.Summary
	if err := c.read(ctx, "/ordenes/summary", &out); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Msg("summary read failed; showing empty dashboard")
		return &model.Summary{Maintainers: []model.MaintainerProgress{}}, nil
	}
	return &out, nil
}

// GetOrder returns the full order with its task records.
func (c *Client) GetOrder(ctx context.Context, code int) (*model.OrderDetail, error) {
	var out model.OrderDetail
	if err := c.read(ctx, fmt.Sprintf("/ordenes/%d", code), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context, code int) ([]model.Task, error) {
	return readList[model.Task](ctx, c, fmt.Sprintf("/ordenes/%d/tareas", code))
}

func (c *Client) AssignOrder(ctx context.Context, code int, in model.AssignRequest) (*model.OrderRecord, error) {
	var out model.OrderRecord
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/ordenes/%d/assign", code), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels an order; the reason travels as the payload query parameter.
func (c *Client) CancelOrder(ctx context.Context, code int, reason string) (*model.MessageResponse, error) {
	path := fmt.Sprintf("/ordenes/%d?%s", code, url.Values{"payload": {reason}}.Encode())
	var out model.MessageResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadOrders posts a PDF export of the source system as multipart "file".
func (c *Client) UploadOrders(ctx context.Context, filename string, r io.Reader) (*model.UploadResponse, error) {
	if err := c.WaitReady(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	const path = "/ordenes/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out model.UploadResponse
	if err := c.send(req, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartTask(ctx context.Context, code, n int) (*model.TaskStartResponse, error) {
	var out model.TaskStartResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/ordenes/%d/tareas/%d/start", code, n), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinishTask completes a task, attaching the maintainer's form as data.
func (c *Client) FinishTask(ctx context.Context, code, n int, data any) (*model.TaskFinishResponse, error) {
	body := map[string]any{"data": data}
	var out model.TaskFinishResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/ordenes/%d/tareas/%d/finish", code, n), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetTaskObservation(ctx context.Context, code, n int, side ObservationSide, text string) (*model.ObservationResponse, error) {
	switch side {
	case ObservationSupervisor, ObservationMaintainer:
	default:
		return nil, fmt.Errorf("unknown observation side %q", side)
	}
	var out model.ObservationResponse
	path := fmt.Sprintf("/ordenes/%d/tareas/%d/obs/%s", code, n, side)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"obs": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChecklist stores the completion checklist document on the order.
func (c *Client) UpdateChecklist(ctx context.Context, code int, doc any) (*model.MessageResponse, error) {
	var out model.MessageResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/ordenes/%d/checklist", code), doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncTheme pushes the user's theme flag to their profile.
func (c *Client) SyncTheme(ctx context.Context, code int, theme model.Theme) error {
	v := theme.Wire()
	_, err := c.EditUser(ctx, code, model.AccountPatch{Theme: &v})
	return err
}
