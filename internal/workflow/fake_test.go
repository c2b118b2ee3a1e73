package workflow

import (
	"context"
	"errors"
	"io"
	"testing"

	"pautas-cli/internal/apiclient"
	"pautas-cli/internal/model"
	"pautas-cli/internal/session"
	"pautas-cli/internal/store"
)

var errBackend = errors.New("backend said no")

type obsCall struct {
	code, n int
	side    apiclient.ObservationSide
	text    string
}

// fakeAPI records calls and serves canned data for every workflow interface.
type fakeAPI struct {
	orders      []model.Order
	maintainers []model.Account
	detail      *model.OrderDetail

	listCalls  int
	assigned   []model.AssignRequest
	cancels    []string
	starts     []int
	finishes   []any
	finishResp *model.TaskFinishResponse
	obs        []obsCall
	checklists []any
	checkResp  *model.MessageResponse
	token      string

	users       []model.Account
	specialties []model.Specialty
	addedUsers  []model.NewAccount
	deactivated []int
	uploads     []string

	fail     error
	listFail error
}

func (f *fakeAPI) ListOrders(context.Context) ([]model.Order, error) {
	f.listCalls++
	if f.listFail != nil {
		return nil, f.listFail
	}
	return f.orders, nil
}

func (f *fakeAPI) ListMaintainers(context.Context) ([]model.Account, error) {
	return f.maintainers, nil
}

func (f *fakeAPI) GetOrder(_ context.Context, code int) (*model.OrderDetail, error) {
	if f.detail == nil || f.detail.Order.Code != code {
		return nil, &apiclient.APIError{Status: 404, Detail: "Orden no encontrada"}
	}
	return f.detail, nil
}

func (f *fakeAPI) AssignOrder(_ context.Context, code int, in model.AssignRequest) (*model.OrderRecord, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.assigned = append(f.assigned, in)
	return &model.OrderRecord{Code: code, AssignedTo: &in.AssignedTo}, nil
}

func (f *fakeAPI) CancelOrder(_ context.Context, code int, reason string) (*model.MessageResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.cancels = append(f.cancels, reason)
	return &model.MessageResponse{Message: "Orden cancelada", Order: code}, nil
}

func (f *fakeAPI) SetTaskObservation(_ context.Context, code, n int, side apiclient.ObservationSide, text string) (*model.ObservationResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.obs = append(f.obs, obsCall{code, n, side, text})
	return &model.ObservationResponse{OrderCode: code, TaskNumber: n}, nil
}

func (f *fakeAPI) StartTask(_ context.Context, code, n int) (*model.TaskStartResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.starts = append(f.starts, n)
	return &model.TaskStartResponse{OrderCode: code, TaskNumber: n, Status: model.TaskInProgress, OrderStatus: model.OrderInProgress}, nil
}

func (f *fakeAPI) FinishTask(_ context.Context, code, n int, data any) (*model.TaskFinishResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.finishes = append(f.finishes, data)
	return f.finishResp, nil
}

func (f *fakeAPI) ListTasks(context.Context, int) ([]model.Task, error) { return nil, nil }

func (f *fakeAPI) UpdateChecklist(_ context.Context, _ int, doc any) (*model.MessageResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.checklists = append(f.checklists, doc)
	return f.checkResp, nil
}

func (f *fakeAPI) Login(_ context.Context, code int, password string) (*model.LoginResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	for _, u := range f.users {
		if u.Code == code {
			return &model.LoginResponse{AccessToken: "tok-" + password, TokenType: "bearer", User: u}, nil
		}
	}
	return nil, &apiclient.APIError{Status: 401, Detail: "Invalid credentials"}
}

func (f *fakeAPI) SetToken(token string) { f.token = token }

func (f *fakeAPI) ListUsers(context.Context) ([]model.Account, error) { return f.users, nil }

func (f *fakeAPI) AddUser(_ context.Context, in model.NewAccount) (*model.Account, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.addedUsers = append(f.addedUsers, in)
	acc := model.Account{Code: in.Code, Name: in.Name, RoleID: *in.RoleID, SpecialtyID: *in.SpecialtyID, Status: 1}
	f.users = append(f.users, acc)
	return &acc, nil
}

func (f *fakeAPI) EditUser(_ context.Context, code int, patch model.AccountPatch) (*model.Account, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	for i := range f.users {
		if f.users[i].Code == code && patch.Name != nil {
			f.users[i].Name = *patch.Name
		}
	}
	return &model.Account{Code: code}, nil
}

func (f *fakeAPI) DeactivateUser(_ context.Context, code int) error {
	if f.fail != nil {
		return f.fail
	}
	f.deactivated = append(f.deactivated, code)
	return nil
}

func (f *fakeAPI) ListSpecialties(context.Context) ([]model.Specialty, error) {
	return f.specialties, nil
}

func (f *fakeAPI) AddSpecialty(_ context.Context, in model.Specialty) (*model.Specialty, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	in.Code = len(f.specialties) + 1
	f.specialties = append(f.specialties, in)
	return &in, nil
}

func (f *fakeAPI) EditSpecialty(_ context.Context, code int, _ model.SpecialtyPatch) (*model.Specialty, error) {
	return &model.Specialty{Code: code}, f.fail
}

func (f *fakeAPI) DeactivateSpecialty(_ context.Context, code int) error {
	if f.fail != nil {
		return f.fail
	}
	f.deactivated = append(f.deactivated, code)
	return nil
}

func (f *fakeAPI) UploadOrders(_ context.Context, filename string, r io.Reader) (*model.UploadResponse, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	_, _ = io.ReadAll(r)
	f.uploads = append(f.uploads, filename)
	return &model.UploadResponse{Orders: []int{101, 102}}, nil
}

// scripted answers prompts in order.
type scripted struct {
	confirm bool
	text    *string
	asked   []string
}

func (s *scripted) Confirm(msg string) bool {
	s.asked = append(s.asked, msg)
	return s.confirm
}

func (s *scripted) Prompt(msg, initial string) (string, bool) {
	s.asked = append(s.asked, msg+"|"+initial)
	if s.text == nil {
		return "", false
	}
	return *s.text, true
}

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.Open(context.Background(), store.Store{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	return s
}

func activeNotification(t *testing.T, s *session.Session) model.Notification {
	t.Helper()
	n, ok := s.ActiveNotification(context.Background())
	if !ok {
		t.Fatalf("expected an active notification")
	}
	return n
}
