package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/core/session"
)

type memCredRepo struct {
	mu      sync.Mutex
	byEmail map[string]Credential
}

var _ Repository = (*memCredRepo)(nil)

func newMemCredRepo() *memCredRepo {
	return &memCredRepo{byEmail: make(map[string]Credential)}
}

func (r *memCredRepo) CreateCredential(ctx context.Context, cred Credential) (Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[cred.Email]; ok {
		return Credential{}, ErrEmailExists
	}
	r.byEmail[cred.Email] = cred
	return cred, nil
}

func (r *memCredRepo) UpdateCredential(ctx context.Context, cred Credential) (Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, existing := range r.byEmail {
		if existing.UserID == cred.UserID {
			if email != cred.Email {
				delete(r.byEmail, email)
			}
			r.byEmail[cred.Email] = cred
			return cred, nil
		}
	}
	return Credential{}, ErrNotFound
}

func (r *memCredRepo) GetCredentialByEmail(ctx context.Context, email string) (Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cred, ok := r.byEmail[email]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]profile.Profile
}

var _ profile.Repository = (*memProfileRepo)(nil)

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]profile.Profile)}
}

func (r *memProfileRepo) GetProfileByID(ctx context.Context, id string) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prof, ok := r.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return prof, nil
}

func (r *memProfileRepo) CreateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[prof.ID] = prof
	return prof, nil
}

func (r *memProfileRepo) UpdateProfile(ctx context.Context, prof profile.Profile) (profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[prof.ID] = prof
	return prof, nil
}

func (r *memProfileRepo) FilterProfilesByRole(ctx context.Context, role string) ([]profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []profile.Profile
	for _, prof := range r.profiles {
		if prof.Role == role {
			out = append(out, prof)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *memCredRepo, *memProfileRepo) {
	t.Helper()
	creds := newMemCredRepo()
	profiles := newMemProfileRepo()
	return NewService(creds, profiles, core.NewTestConfig()), creds, profiles
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	sess, err := svc.SignUp(ctx, "Ayse@Example.com", "k4r4pinar!", "Ayşe Yılmaz")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if sess.UserID == "" || sess.AccessToken == "" {
		t.Fatalf("SignUp() session = %+v, want an id and a token", sess)
	}
	if sess.Email != "ayse@example.com" {
		t.Errorf("session email = %q, want it cleaned and lowered", sess.Email)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Errorf("ExpiresAt = %v, want a future expiry", sess.ExpiresAt)
	}

	got, err := svc.SignInWithPassword(ctx, "ayse@example.com", "k4r4pinar!")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if got.UserID != sess.UserID {
		t.Errorf("UserID = %q, want the registered identity %q", got.UserID, sess.UserID)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	if _, err := svc.SignUp(ctx, "ayse@example.com", "k4r4pinar!", "Ayşe Yılmaz"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if _, err := svc.SignUp(ctx, "ayse@example.com", "b4sk4s1fre!", "Başka Biri"); err != ErrEmailExists {
		t.Errorf("SignUp() error = %v, want ErrEmailExists", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	if _, err := svc.SignUp(ctx, "ayse@example.com", "k4r4pinar!", "Ayşe Yılmaz"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if _, err := svc.SignInWithPassword(ctx, "ayse@example.com", "wrong-pass"); err != ErrAuthenticationFailed {
		t.Errorf("SignInWithPassword() error = %v, want ErrAuthenticationFailed", err)
	}
	if _, err := svc.SignInWithPassword(ctx, "nobody@example.com", "k4r4pinar!"); err != ErrAuthenticationFailed {
		t.Errorf("SignInWithPassword() error = %v for an unknown email, want ErrAuthenticationFailed", err)
	}
}

func TestPasswordPolicy(t *testing.T) {
	tests := []struct {
		name    string
		nc      NewCredential
		wantErr bool
	}{
		{
			name: "acceptable password",
			nc:   NewCredential{Email: "ayse@example.com", FullName: "Ayşe Yılmaz", Password: "k4r4pinar!"},
		},
		{
			name:    "too short",
			nc:      NewCredential{Email: "ayse@example.com", Password: "kisa1!"},
			wantErr: true,
		},
		{
			name:    "all numeric",
			nc:      NewCredential{Email: "ayse@example.com", Password: "12345678"},
			wantErr: true,
		},
		{
			name:    "contains spaces",
			nc:      NewCredential{Email: "ayse@example.com", Password: "k4r4 pinar"},
			wantErr: true,
		},
		{
			name:    "too similar to the email",
			nc:      NewCredential{Email: "ayse@example.com", Password: "ayse@example.com"},
			wantErr: true,
		},
		{
			name:    "too similar to the name",
			nc:      NewCredential{Email: "x@example.com", FullName: "Ayşe Yılmaz", Password: "ayseyilmaz"},
			wantErr: true,
		},
		{
			name:    "missing email",
			nc:      NewCredential{Password: "k4r4pinar!"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nc := tt.nc
			if err := nc.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetSessionRestoresStoredToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	sess, err := svc.SignUp(ctx, "ayse@example.com", "k4r4pinar!", "Ayşe Yılmaz")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	// a fresh service instance simulating a restart, seeded with the token
	restarted, _, _ := newTestService(t)
	restarted.Restore(sess.AccessToken)
	recovered, err := restarted.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if recovered == nil {
		t.Fatal("GetSession() = nil, want the session recovered from the stored token")
	}
	if recovered.UserID != sess.UserID || recovered.Email != sess.Email {
		t.Errorf("recovered session = %+v, want identity %q / %q", recovered, sess.UserID, sess.Email)
	}
}

func TestGetSessionExpiredInMemory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	svc.current = &session.Session{
		UserID:    uuid.NewString(),
		Email:     "ayse@example.com",
		ExpiresAt: time.Now().Add(-time.Minute).UTC(),
	}

	sess, err := svc.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession() error = %v, want nil", err)
	}
	if sess != nil {
		t.Errorf("GetSession() = %+v for an expired in-memory session, want nil", sess)
	}
}

func TestGetSessionExpiredInMemoryFallsThroughToToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	sess, err := svc.SignUp(ctx, "ayse@example.com", "k4r4pinar!", "Ayşe Yılmaz")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	// stale copy in memory, still-valid credential stored
	restarted, _, _ := newTestService(t)
	restarted.Restore(sess.AccessToken)
	restarted.current = &session.Session{
		UserID:    sess.UserID,
		Email:     sess.Email,
		ExpiresAt: time.Now().Add(-time.Minute).UTC(),
	}

	recovered, err := restarted.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if recovered == nil {
		t.Fatal("GetSession() = nil, want the session re-verified from the stored token")
	}
	if !time.Now().Before(recovered.ExpiresAt) {
		t.Errorf("recovered session expires at %v, want a live expiry", recovered.ExpiresAt)
	}
}

func TestGetSessionRejectsForgedToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	svc.Restore("not.a.token")
	sess, err := svc.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession() error = %v, want signed-out (nil, nil)", err)
	}
	if sess != nil {
		t.Errorf("GetSession() = %+v for a forged token, want nil", sess)
	}
}

func TestGetSessionSignedOutIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService(t)
	sess, err := svc.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession() error = %v, want nil", err)
	}
	if sess != nil {
		t.Errorf("GetSession() = %+v with nothing stored, want nil", sess)
	}
}

func TestEventOrderAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	var mu sync.Mutex
	var events []session.Event
	unsubscribe := svc.OnAuthEvent(func(event session.Event, sess *session.Session) {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
	})

	if _, err := svc.SignUp(ctx, "ayse@example.com", "k4r4pinar!", "Ayşe Yılmaz"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if err := svc.RefreshToken(ctx); err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	mu.Lock()
	got := append([]session.Event{}, events...)
	mu.Unlock()
	want := []session.Event{session.EventSignedIn, session.EventTokenRefreshed, session.EventSignedOut}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	unsubscribe()
	if _, err := svc.SignInWithPassword(ctx, "ayse@example.com", "k4r4pinar!"); err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != len(want) {
		t.Errorf("events delivered after unsubscribe: %v", events)
	}
}

func TestIssuedTokenCarriesRoleHints(t *testing.T) {
	ctx := context.Background()
	svc, creds, profiles := newTestService(t)

	id := uuid.New().String()
	cred := Credential{UserID: id, Email: "hoca@example.com", FullName: "Fatma Hoca", CreatedAt: time.Now().UTC()}
	if err := cred.SetPassword("g1zl1s1fre!"); err != nil {
		t.Fatal(err)
	}
	if _, err := creds.CreateCredential(ctx, cred); err != nil {
		t.Fatal(err)
	}
	profiles.profiles[id] = profile.Profile{ID: id, Email: cred.Email, FullName: "Fatma Hoca", Role: profile.RoleTeacher}

	sess, err := svc.SignInWithPassword(ctx, "hoca@example.com", "g1zl1s1fre!")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	claims, err := session.ParseHints(sess.AccessToken)
	if err != nil {
		t.Fatalf("ParseHints() error = %v", err)
	}
	if !claims.IsTeacher || claims.IsStudent || claims.IsAdmin {
		t.Errorf("claims = %+v, want only the teacher hint set", claims)
	}
	if claims.Role() != profile.RoleTeacher {
		t.Errorf("Role() = %q, want teacher", claims.Role())
	}
	if claims.Subject != id {
		t.Errorf("Subject = %q, want %q", claims.Subject, id)
	}
}

func TestRefreshTokenRequiresSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	if err := svc.RefreshToken(context.Background()); err != session.ErrNotAuthenticated {
		t.Errorf("RefreshToken() error = %v, want ErrNotAuthenticated", err)
	}
}
