package profile

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound    = errors.New("profile not found")
	ErrEmailExists = errors.New("a profile with this email already exists")
)

type (
	Repository interface {
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		CreateProfile(ctx context.Context, prof Profile) (Profile, error)
		UpdateProfile(ctx context.Context, prof Profile) (Profile, error)
		// FilterProfilesByRole returns all profiles holding the given role,
		// ordered by full name.
		FilterProfilesByRole(ctx context.Context, role string) ([]Profile, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Profile, error) {
	return svc.repo.GetProfileByID(ctx, id)
}

// Ensure fetches the Profile for an identity, creating a default student
// profile when none exists yet (first login). The returned bool reports
// whether a profile was created.
func (svc *Service) Ensure(ctx context.Context, np NewProfile) (Profile, bool, error) {
	if err := np.Validate(); err != nil {
		return Profile{}, false, err
	}

	prof, err := svc.repo.GetProfileByID(ctx, np.ID)
	if err == nil {
		return prof, false, nil
	}
	if err != ErrNotFound {
		return Profile{}, false, err
	}

	role := np.Role
	if role == "" {
		role = RoleStudent
	}
	now := time.Now().UTC()
	prof, err = svc.repo.CreateProfile(ctx, Profile{
		ID:        np.ID,
		Email:     np.Email,
		FullName:  np.FullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Profile{}, false, err
	}
	return prof, true, nil
}

func (svc *Service) Update(ctx context.Context, prof Profile) (Profile, error) {
	prof.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfile(ctx, prof)
}

// Students returns the roster: every profile with the student role. Visible
// to elevated roles only; enforcement sits with the session machine.
func (svc *Service) Students(ctx context.Context) ([]Profile, error) {
	return svc.repo.FilterProfilesByRole(ctx, RoleStudent)
}
