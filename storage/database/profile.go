package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tolgakaban/lgstakip/core/profile"
)

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) profile.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	var prof profile.Profile
	err := repo.db.GetContext(ctx, &prof, `SELECT * FROM profile WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, remoteErr(err, "getting profile")
	}
	return prof, nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO profile (id, email, full_name, role, class_group, created_at, updated_at)
		VALUES (:id, :email, :full_name, :role, :class_group, :created_at, :updated_at)`, prof)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return profile.Profile{}, profile.ErrEmailExists
		}
		return profile.Profile{}, remoteErr(err, "creating profile")
	}
	return prof, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE profile
		SET email       = COALESCE(NULLIF(:email, ''), email),
		    full_name   = COALESCE(NULLIF(:full_name, ''), full_name),
		    role        = COALESCE(NULLIF(:role, ''), role),
		    class_group = COALESCE(:class_group, class_group),
		    updated_at  = :updated_at
		WHERE id = :id`, prof)
	if err != nil {
		return profile.Profile{}, remoteErr(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return profile.Profile{}, profile.ErrNotFound
	}
	return repo.GetProfileByID(ctx, prof.ID)
}

func (repo *profileRepository) FilterProfilesByRole(ctx context.Context, role string) ([]profile.Profile, error) {
	var profs []profile.Profile
	err := repo.db.SelectContext(ctx, &profs,
		`SELECT * FROM profile WHERE role = $1 ORDER BY full_name`, role)
	if err != nil {
		return nil, remoteErr(err, "filtering profiles")
	}
	return profs, nil
}
