package dummydb

import (
	"context"
	"sort"

	"github.com/tolgakaban/lgstakip/core/profile"
)

type profileRepository struct {
	db *profileTable
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) profile.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prof, ok := repo.db.table[id]; ok {
		return *prof, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, p := range repo.db.table {
		if prof.Email != "" && p.Email == prof.Email {
			return profile.Profile{}, profile.ErrEmailExists
		}
	}
	repo.db.table[prof.ID] = &prof
	return prof, nil
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[prof.ID]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	// only save set fields
	if prof.Email != "" {
		orig.Email = prof.Email
	}
	if prof.FullName != "" {
		orig.FullName = prof.FullName
	}
	if prof.Role != "" {
		orig.Role = prof.Role
	}
	if prof.ClassGroup.Valid {
		orig.ClassGroup = prof.ClassGroup
	}
	orig.UpdatedAt = prof.UpdatedAt
	return *orig, nil
}

func (repo *profileRepository) FilterProfilesByRole(ctx context.Context, role string) ([]profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profs := make([]profile.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if p.Role == role {
			profs = append(profs, *p)
		}
	}
	sort.Slice(profs, func(i, j int) bool { return profs[i].FullName < profs[j].FullName })
	return profs, nil
}
