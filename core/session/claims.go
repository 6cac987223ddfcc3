package session

import (
	"github.com/dgrijalva/jwt-go"

	"github.com/tolgakaban/lgstakip/core/profile"
)

// Claims represents the authorization claims carried by a session credential.
// The role flags are hints only: they may be applied immediately to avoid a
// visible flash of "no role", but the authoritative profile fetch always wins.
type Claims struct {
	jwt.StandardClaims
	Email     string `json:"email,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	IsStudent bool   `json:"is_student,omitempty"`
	IsTeacher bool   `json:"is_teacher,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

// Role maps the claim flags back to a role name, highest first.
func (c *Claims) Role() string {
	switch {
	case c.IsAdmin:
		return profile.RoleAdmin
	case c.IsTeacher:
		return profile.RoleTeacher
	case c.IsStudent:
		return profile.RoleStudent
	}
	return ""
}

// ParseHints decodes the claims embedded in a credential without verifying
// the signature. Hints feed provisional state only; nothing
// authorization-relevant may rely on them.
func ParseHints(token string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
