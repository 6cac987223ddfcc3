package profile

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/tolgakaban/lgstakip/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

// Profile holds the resolved identity of a signed-in user. One profile per
// identity; read-only outside the session machine.
type Profile struct {
	ID         string      `json:"id" db:"id"`
	Email      string      `json:"email" db:"email"`
	FullName   string      `json:"full_name" db:"full_name"`
	Role       string      `json:"role" db:"role"`
	ClassGroup null.String `json:"class_group,omitempty" db:"class_group"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

func (p Profile) IsStudent() bool { return p.Role == RoleStudent }
func (p Profile) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Profile) IsAdmin() bool   { return p.Role == RoleAdmin }

// IsElevated reports whether the profile may browse other students' records.
func (p Profile) IsElevated() bool { return p.IsTeacher() || p.IsAdmin() }

// NewProfile contains information needed to create a new Profile.
type NewProfile struct {
	ID       string `json:"id" validate:"required,uuid4"`
	Email    string `json:"email" validate:"omitempty,email"`
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

func (np *NewProfile) Validate() error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.FullName = core.CleanString(np.FullName)
	return core.Validate.Struct(np)
}
