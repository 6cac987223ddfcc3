package dummydb

import (
	"context"
	"time"

	"github.com/tolgakaban/lgstakip/services/identity"
)

type credentialRepository struct {
	db *credentialTable
}

var _ identity.Repository = (*credentialRepository)(nil) // interface compliance check

func NewCredentialRepository(db *DB) identity.Repository {
	return &credentialRepository{db: db.credential}
}

func (repo *credentialRepository) CreateCredential(ctx context.Context, cred identity.Credential) (identity.Credential, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[cred.Email]; ok {
		return identity.Credential{}, identity.ErrEmailExists
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	repo.db.table[cred.Email] = &cred
	return cred, nil
}

func (repo *credentialRepository) UpdateCredential(ctx context.Context, cred identity.Credential) (identity.Credential, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for email, existing := range repo.db.table {
		if existing.UserID == cred.UserID {
			if email != cred.Email {
				delete(repo.db.table, email)
			}
			repo.db.table[cred.Email] = &cred
			return cred, nil
		}
	}
	return identity.Credential{}, identity.ErrNotFound
}

func (repo *credentialRepository) GetCredentialByEmail(ctx context.Context, email string) (identity.Credential, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cred, ok := repo.db.table[email]; ok {
		return *cred, nil
	}
	return identity.Credential{}, identity.ErrNotFound
}
