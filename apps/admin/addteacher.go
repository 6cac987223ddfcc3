package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/services/identity"
)

// addTeacher provisions an elevated account: a credential to sign in with and
// a profile carrying the teacher (or admin) role. Existing accounts are
// upgraded in place.
func (cli *commandLine) addTeacher(email, fullName, pwd string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	fullName = core.CleanString(fullName)

	role := profile.RoleTeacher
	if isAdmin {
		role = profile.RoleAdmin
	}

	cred, err := cli.creds.GetCredentialByEmail(ctx, email)
	if err != nil {
		if err != identity.ErrNotFound {
			return err
		}
		cred = identity.Credential{
			UserID:    uuid.New().String(),
			Email:     email,
			FullName:  fullName,
			CreatedAt: time.Now().UTC(),
		}
		if err = cred.SetPassword(pwd); err != nil {
			return err
		}
		if cred, err = cli.creds.CreateCredential(ctx, cred); err != nil {
			return err
		}
	} else {
		cred.FullName = fullName
		if err = cred.SetPassword(pwd); err != nil {
			return err
		}
		if cred, err = cli.creds.UpdateCredential(ctx, cred); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	prof, err := cli.profiles.GetProfileByID(ctx, cred.UserID)
	if err != nil {
		if err != profile.ErrNotFound {
			return err
		}
		_, err = cli.profiles.CreateProfile(ctx, profile.Profile{
			ID:        cred.UserID,
			Email:     email,
			FullName:  fullName,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	}

	prof.Email = email
	prof.FullName = fullName
	prof.Role = role
	prof.UpdatedAt = now
	_, err = cli.profiles.UpdateProfile(ctx, prof)
	return err
}
