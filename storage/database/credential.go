package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tolgakaban/lgstakip/services/identity"
)

type credentialRepository struct {
	db *sqlx.DB
}

var _ identity.Repository = (*credentialRepository)(nil) // interface compliance check

func NewCredentialRepository(db *sqlx.DB) identity.Repository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) CreateCredential(ctx context.Context, cred identity.Credential) (identity.Credential, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO credential (user_id, email, full_name, password_hash, created_at)
		VALUES (:user_id, :email, :full_name, :password_hash, :created_at)`, cred)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return identity.Credential{}, identity.ErrEmailExists
		}
		return identity.Credential{}, remoteErr(err, "creating credential")
	}
	return cred, nil
}

func (repo *credentialRepository) UpdateCredential(ctx context.Context, cred identity.Credential) (identity.Credential, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE credential
		SET email = :email, full_name = :full_name, password_hash = :password_hash
		WHERE user_id = :user_id`, cred)
	if err != nil {
		return identity.Credential{}, remoteErr(err, "updating credential")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identity.Credential{}, identity.ErrNotFound
	}
	return cred, nil
}

func (repo *credentialRepository) GetCredentialByEmail(ctx context.Context, email string) (identity.Credential, error) {
	var cred identity.Credential
	err := repo.db.GetContext(ctx, &cred, `SELECT * FROM credential WHERE email = $1`, email)
	if err == sql.ErrNoRows {
		return identity.Credential{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.Credential{}, remoteErr(err, "getting credential")
	}
	return cred, nil
}
