package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"pautas-cli/internal/model"
	"pautas-cli/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range ve {
		out.Fields = append(out.Fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return out
}

func ValidateNewAccount(in model.NewAccount) error { return validateStruct(in) }

func ValidateSpecialty(in model.Specialty) error { return validateStruct(in) }

func contains(hay, term string) bool {
	return strings.Contains(strings.ToLower(hay), term)
}

// SearchUsers matches code, name, role or specialty, case-insensitively.
func SearchUsers(users []model.Account, term string) []model.Account {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return users
	}
	var out []model.Account
	for _, u := range users {
		if contains(strconv.Itoa(u.Code), term) || contains(u.Name, term) ||
			contains(u.RoleName, term) || contains(u.SpecialtyName, term) {
			out = append(out, u)
		}
	}
	return out
}

func SearchSpecialties(list []model.Specialty, term string) []model.Specialty {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return list
	}
	var out []model.Specialty
	for _, s := range list {
		if contains(strconv.Itoa(s.Code), term) || contains(s.Name, term) || contains(s.Description, term) {
			out = append(out, s)
		}
	}
	return out
}

type AdminAPI interface {
	ListUsers(ctx context.Context) ([]model.Account, error)
	AddUser(ctx context.Context, in model.NewAccount) (*model.Account, error)
	EditUser(ctx context.Context, code int, patch model.AccountPatch) (*model.Account, error)
	DeactivateUser(ctx context.Context, code int) error
	ListSpecialties(ctx context.Context) ([]model.Specialty, error)
	AddSpecialty(ctx context.Context, in model.Specialty) (*model.Specialty, error)
	EditSpecialty(ctx context.Context, code int, patch model.SpecialtyPatch) (*model.Specialty, error)
	DeactivateSpecialty(ctx context.Context, code int) error
	UploadOrders(ctx context.Context, filename string, r io.Reader) (*model.UploadResponse, error)
}

// Admin backs the user and specialty management screens. Every mutation
// refetches the affected list.
type Admin struct {
	api  AdminAPI
	sess *session.Session

	Users       []model.Account
	Specialties []model.Specialty
}

func NewAdmin(api AdminAPI, sess *session.Session) *Admin {
	return &Admin{api: api, sess: sess}
}

func (a *Admin) RefreshUsers(ctx context.Context) error {
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return err
	}
	a.Users = users
	return nil
}

func (a *Admin) RefreshSpecialties(ctx context.Context) error {
	list, err := a.api.ListSpecialties(ctx)
	if err != nil {
		return err
	}
	a.Specialties = list
	return nil
}

func (a *Admin) mutated(ctx context.Context, err error, failMsg, okMsg string, refresh func(context.Context) error) error {
	if err != nil {
		fail(ctx, a.sess, failMsg)
		return err
	}
	notify(ctx, a.sess, model.NotifySuccess, "Administración", okMsg, NoticeDuration)
	return refresh(ctx)
}

func (a *Admin) AddUser(ctx context.Context, in model.NewAccount) error {
	if err := ValidateNewAccount(in); err != nil {
		return err
	}
	_, err := a.api.AddUser(ctx, in)
	return a.mutated(ctx, err, "No se pudo crear el usuario.", fmt.Sprintf("Usuario %d creado.", in.Code), a.RefreshUsers)
}

func (a *Admin) EditUser(ctx context.Context, code int, patch model.AccountPatch) error {
	if patch.RoleID != nil {
		if _, err := model.ParseRole(*patch.RoleID); err != nil {
			return err
		}
	}
	_, err := a.api.EditUser(ctx, code, patch)
	return a.mutated(ctx, err, "No se pudo actualizar el usuario.", fmt.Sprintf("Usuario %d actualizado.", code), a.RefreshUsers)
}

func (a *Admin) DeactivateUser(ctx context.Context, code int) error {
	if code == a.sess.User().Code {
		return ErrDeactivateSelf
	}
	err := a.api.DeactivateUser(ctx, code)
	return a.mutated(ctx, err, "No se pudo desactivar el usuario.", fmt.Sprintf("Usuario %d desactivado.", code), a.RefreshUsers)
}

func (a *Admin) AddSpecialty(ctx context.Context, in model.Specialty) error {
	if err := ValidateSpecialty(in); err != nil {
		return err
	}
	_, err := a.api.AddSpecialty(ctx, in)
	return a.mutated(ctx, err, "No se pudo crear la especialidad.", fmt.Sprintf("Especialidad %q creada.", in.Name), a.RefreshSpecialties)
}

func (a *Admin) EditSpecialty(ctx context.Context, code int, patch model.SpecialtyPatch) error {
	_, err := a.api.EditSpecialty(ctx, code, patch)
	return a.mutated(ctx, err, "No se pudo actualizar la especialidad.", fmt.Sprintf("Especialidad %d actualizada.", code), a.RefreshSpecialties)
}

func (a *Admin) DeactivateSpecialty(ctx context.Context, code int) error {
	err := a.api.DeactivateSpecialty(ctx, code)
	return a.mutated(ctx, err, "No se pudo desactivar la especialidad.", fmt.Sprintf("Especialidad %d desactivada.", code), a.RefreshSpecialties)
}

// Upload imports orders from a PDF export of the maintenance system.
func (a *Admin) Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResponse, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, ErrNotPDF
	}
	persisted("control", a.sess.SetLoading(ctx, true))
	res, err := a.api.UploadOrders(ctx, filename, r)
	persisted("control", a.sess.SetLoading(ctx, false))
	if err != nil {
		fail(ctx, a.sess, "Error al importar el archivo.")
		return nil, err
	}
	log.Info().Str("file", filepath.Base(filename)).Ints("orders", res.Orders).Msg("orders imported")
	notify(ctx, a.sess, model.NotifySuccess, "Importación", fmt.Sprintf("%d órdenes importadas.", len(res.Orders)), NoticeDuration)
	return res, nil
}
