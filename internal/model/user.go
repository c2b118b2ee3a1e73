package model

import "fmt"

// Role is the numeric user type the backend assigns to every account.
type Role int

const (
	RoleAdmin      Role = 0
	RoleSupervisor Role = 1
	RoleMaintainer Role = 2
)

// ErrUnknownRole is returned when a user type outside the known set is seen.
type ErrUnknownRole struct {
	Value int
}

func (e ErrUnknownRole) Error() string {
	return fmt.Sprintf("unknown user type %d", e.Value)
}

// ParseRole maps the wire value to a Role.
func ParseRole(v int) (Role, error) {
	switch Role(v) {
	case RoleAdmin, RoleSupervisor, RoleMaintainer:
		return Role(v), nil
	default:
		return 0, ErrUnknownRole{Value: v}
	}
}

func (r Role) Valid() bool {
	_, err := ParseRole(int(r))
	return err == nil
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSupervisor:
		return "supervisor"
	case RoleMaintainer:
		return "maintainer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// DisplayName is the label the backend and the admin screens use.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RoleSupervisor:
		return "Supervisor"
	case RoleMaintainer:
		return "Mantenedor"
	default:
		return "Desconocido"
	}
}

// SpecialtyName returns the display name for the built-in specialty ids.
func SpecialtyName(id int) string {
	switch id {
	case 0:
		return "Administrador"
	case 1:
		return "Electrico"
	case 2:
		return "Mecanico"
	default:
		return fmt.Sprintf("Especialidad %d", id)
	}
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light"/"dark"; anything else is light.
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// ThemeFromWire converts the backend's 0 (light) / 1 (dark) flag.
func ThemeFromWire(v int) Theme {
	if v == 1 {
		return ThemeDark
	}
	return ThemeLight
}

func (t Theme) Wire() int {
	if t == ThemeDark {
		return 1
	}
	return 0
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// User is the session view of the logged-in person.
type User struct {
	Name          string `json:"name"`
	Code          int    `json:"code"`
	Role          Role   `json:"user_type"`
	SpecialtyID   int    `json:"specialty_id"`
	Authenticated bool   `json:"authenticated"`
	Theme         Theme  `json:"themePreference"`
	Token         string `json:"token,omitempty"`
}

func (u User) IsMaintainer() bool { return u.Authenticated && u.Role == RoleMaintainer }

// Account is a user record as the backend exposes it.
type Account struct {
	Code          int    `json:"code"`
	Name          string `json:"nombre"`
	RoleName      string `json:"tipo_usuario,omitempty"`
	RoleID        int    `json:"tipo_usuario_id"`
	SpecialtyName string `json:"especialidad,omitempty"`
	SpecialtyID   int    `json:"especialidad_id"`
	Status        int    `json:"estado"`
	Theme         int    `json:"theme"`
}

// LoginResponse is the body of POST /auth/login.
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	User        Account `json:"user"`
}

// NewAccount is the create payload for POST /users.
type NewAccount struct {
	Code        int    `json:"code" validate:"required,gt=0"`
	Name        string `json:"nombre" validate:"required"`
	Password    string `json:"password" validate:"required"`
	RoleID      *int   `json:"tipo_usuario_id" validate:"required,min=0,max=2"`
	SpecialtyID *int   `json:"especialidad_id" validate:"required,min=0"`
	Status      int    `json:"estado"`
	Theme       int    `json:"theme"`
}

// AccountPatch is the partial update payload for PATCH /users/{code}.
type AccountPatch struct {
	Name        *string `json:"nombre,omitempty"`
	Password    *string `json:"password,omitempty"`
	RoleID      *int    `json:"tipo_usuario_id,omitempty"`
	SpecialtyID *int    `json:"especialidad_id,omitempty"`
	Status      *int    `json:"estado,omitempty"`
	Theme       *int    `json:"theme,omitempty"`
}

type Specialty struct {
	Code        int    `json:"code"`
	Name        string `json:"nombre" validate:"required"`
	Description string `json:"descripcion"`
	Status      int    `json:"estado"`
}

type SpecialtyPatch struct {
	Name        *string `json:"nombre,omitempty"`
	Description *string `json:"descripcion,omitempty"`
	Status      *int    `json:"estado,omitempty"`
}
