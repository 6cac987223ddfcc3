package identity

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tolgakaban/lgstakip/core"
)

type (
	// Credential is a stored identity: an id, an email and a password hash.
	Credential struct {
		UserID       string    `json:"user_id" db:"user_id"`
		Email        string    `json:"email" db:"email"`
		FullName     string    `json:"full_name" db:"full_name"`
		PasswordHash []byte    `json:"-" db:"password_hash"`
		CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	}

	Repository interface {
		CreateCredential(ctx context.Context, cred Credential) (Credential, error)
		GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
		UpdateCredential(ctx context.Context, cred Credential) (Credential, error)
	}
)

func (c *Credential) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c *Credential) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

// NewCredential contains information needed to register a new identity.
type NewCredential struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name"`
	Password string `json:"password" validate:"required"`
}

func (nc *NewCredential) Validate() error {
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.FullName = core.CleanString(nc.FullName)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return validatePassword(nc.Password, nc.Email, nc.FullName)
}
