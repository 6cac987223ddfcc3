package identity

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/core/session"
)

var (
	// errors
	ErrNotFound             = errors.New("credential not found")
	ErrEmailExists          = errors.New("an account with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed")

	nowFunc = time.Now // mockable
)

// Service is a JWT-issuing identity provider. It keeps the active session in
// memory, can restore one from a previously issued token and notifies
// subscribers of lifecycle events in delivery order.
type Service struct {
	creds    Repository
	profiles profile.Repository
	conf     *core.Config

	mu          sync.Mutex
	current     *session.Session
	storedToken string // candidate credential for session recovery
	subs        map[int]func(session.Event, *session.Session)
	nextSubID   int
}

var _ session.Provider = (*Service)(nil)

func NewService(creds Repository, profiles profile.Repository, conf *core.Config) *Service {
	return &Service{
		creds:    creds,
		profiles: profiles,
		conf:     conf,
		subs:     make(map[int]func(session.Event, *session.Session)),
	}
}

// Restore seeds a previously issued token to be verified on the next
// GetSession call.
func (svc *Service) Restore(token string) {
	svc.mu.Lock()
	svc.storedToken = token
	svc.mu.Unlock()
}

// GetSession returns the active session, recovering one from the stored
// token when possible. A missing or expired credential yields (nil, nil):
// being signed out is not an error.
func (svc *Service) GetSession(ctx context.Context) (*session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.current != nil {
		if nowFunc().Before(svc.current.ExpiresAt) {
			sess := *svc.current
			return &sess, nil
		}
		// expired in place; fall through to the stored token, if any
		svc.current = nil
	}
	if svc.storedToken == "" {
		return nil, nil
	}

	claims, err := svc.verifyToken(svc.storedToken)
	if err != nil {
		svc.storedToken = ""
		return nil, nil
	}
	sess := &session.Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: svc.storedToken,
		ExpiresAt:   time.Unix(claims.ExpiresAt, 0).UTC(),
	}
	svc.current = sess
	out := *sess
	return &out, nil
}

func (svc *Service) OnAuthEvent(fn func(session.Event, *session.Session)) func() {
	svc.mu.Lock()
	id := svc.nextSubID
	svc.nextSubID++
	svc.subs[id] = fn
	svc.mu.Unlock()

	return func() {
		svc.mu.Lock()
		delete(svc.subs, id)
		svc.mu.Unlock()
	}
}

// emit notifies subscribers synchronously, preserving event order.
func (svc *Service) emit(event session.Event, sess *session.Session) {
	svc.mu.Lock()
	fns := make([]func(session.Event, *session.Session), 0, len(svc.subs))
	for _, fn := range svc.subs {
		fns = append(fns, fn)
	}
	svc.mu.Unlock()

	for _, fn := range fns {
		var copySess *session.Session
		if sess != nil {
			s := *sess
			copySess = &s
		}
		fn(event, copySess)
	}
}

func (svc *Service) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	email = core.CleanString(email, true /* lower */)

	cred, err := svc.creds.GetCredentialByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding credential by email")
	}
	if err = cred.CheckPassword(password); err != nil {
		return nil, ErrAuthenticationFailed
	}

	sess, err := svc.issueSession(ctx, cred)
	if err != nil {
		return nil, err
	}
	svc.emit(session.EventSignedIn, sess)
	return sess, nil
}

func (svc *Service) SignUp(ctx context.Context, email, password, fullName string) (*session.Session, error) {
	nc := NewCredential{Email: email, FullName: fullName, Password: password}
	if err := nc.Validate(); err != nil {
		return nil, err
	}

	cred := Credential{
		UserID:    uuid.New().String(),
		Email:     nc.Email,
		FullName:  nc.FullName,
		CreatedAt: nowFunc().UTC(),
	}
	if err := cred.SetPassword(nc.Password); err != nil {
		return nil, errors.Wrap(err, "hashing password")
	}
	cred, err := svc.creds.CreateCredential(ctx, cred)
	if err != nil {
		return nil, err
	}

	sess, err := svc.issueSession(ctx, cred)
	if err != nil {
		return nil, err
	}
	svc.emit(session.EventSignedIn, sess)
	return sess, nil
}

func (svc *Service) SignOut(ctx context.Context) error {
	svc.mu.Lock()
	svc.current = nil
	svc.storedToken = ""
	svc.mu.Unlock()
	svc.emit(session.EventSignedOut, nil)
	return nil
}

// RefreshToken re-issues the active credential and emits TOKEN_REFRESHED.
func (svc *Service) RefreshToken(ctx context.Context) error {
	svc.mu.Lock()
	current := svc.current
	svc.mu.Unlock()
	if current == nil {
		return session.ErrNotAuthenticated
	}

	cred, err := svc.creds.GetCredentialByEmail(ctx, current.Email)
	if err != nil {
		return errors.Wrap(err, "finding credential by email")
	}
	sess, err := svc.issueSession(ctx, cred)
	if err != nil {
		return err
	}
	svc.emit(session.EventTokenRefreshed, sess)
	return nil
}

// issueSession signs a credential token and installs it as the active
// session. Role and name hints are embedded from the profile when one exists
// already; they remain hints only.
func (svc *Service) issueSession(ctx context.Context, cred Credential) (*session.Session, error) {
	now := nowFunc()
	expiresAt := now.Add(svc.conf.JWTExpirationDelta)

	claims := &session.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    svc.conf.AppName,
			Subject:   cred.UserID,
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:    cred.Email,
		FullName: cred.FullName,
	}
	if prof, err := svc.profiles.GetProfileByID(ctx, cred.UserID); err == nil {
		claims.FullName = prof.FullName
		claims.IsStudent = prof.IsStudent()
		claims.IsTeacher = prof.IsTeacher()
		claims.IsAdmin = prof.IsAdmin()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(svc.conf.SecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "signing token")
	}

	sess := &session.Session{
		UserID:      cred.UserID,
		Email:       cred.Email,
		AccessToken: ss,
		ExpiresAt:   expiresAt.UTC(),
	}
	svc.mu.Lock()
	svc.current = sess
	svc.mu.Unlock()
	out := *sess
	return &out, nil
}

// verifyToken parses and verifies a previously issued token.
func (svc *Service) verifyToken(token string) (*session.Claims, error) {
	claims := new(session.Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(svc.conf.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "verifying token")
	}
	return claims, nil
}
