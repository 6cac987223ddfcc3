package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/profile"
)

var (
	// errors
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTargetLocked is returned when a student attempts to view another
	// identity's records.
	ErrTargetLocked = errors.New("students may only view their own records")

	nowFunc = time.Now // mockable
)

// LocalState persists a last-known session and profile outside the remote
// store. It is a best-effort fallback for when live session recovery is slow
// or unreachable; it is never authoritative once a live resolution succeeds.
type LocalState interface {
	SaveSession(sess *Session) error
	LoadSession() (*Session, bool)
	SaveProfile(prof profile.Profile) error
	LoadProfile() (profile.Profile, bool)
	Clear() error
}

// Machine owns the authentication lifecycle: it recovers and replaces the
// Session, resolves the signed-in identity into a role and profile, guards
// resolution against concurrent duplicates and derives the viewing target.
type Machine struct {
	provider Provider
	profiles *profile.Service
	local    LocalState
	log      core.Logger
	conf     *core.Config

	mu            sync.Mutex
	state         State
	session       *Session
	profile       *profile.Profile
	authoritative bool // profile came from a live fetch, not hints or cache
	roster        []profile.Profile
	target        string // viewing target id; "" = none
	resolving     bool   // single-flight guard
	lastErr       error

	onTargetChange func(target string)
	unsubscribe    func()
}

func NewMachine(provider Provider, profiles *profile.Service, local LocalState, log core.Logger, conf *core.Config) *Machine {
	return &Machine{
		provider: provider,
		profiles: profiles,
		local:    local,
		log:      log,
		conf:     conf,
		state:    StateUninitialized,
	}
}

// OnTargetChange registers the callback invoked (outside the machine lock)
// whenever the viewing target changes, including the clear on sign-out.
func (m *Machine) OnTargetChange(fn func(target string)) {
	m.onTargetChange = fn
}

func (m *Machine) notifyTarget() {
	m.mu.Lock()
	target := m.target
	fn := m.onTargetChange
	m.mu.Unlock()
	if fn != nil {
		fn(target)
	}
}

// Initialize recovers an existing session within a bounded timeout. On
// timeout or absence it settles on the anonymous state rather than blocking:
// a slow identity backend must never freeze the caller. Failures fall back to
// the locally persisted last-known session and profile, flagged as
// non-authoritative.
func (m *Machine) Initialize(ctx context.Context) {
	m.mu.Lock()
	m.state = StateResolving
	m.mu.Unlock()

	m.unsubscribe = m.provider.OnAuthEvent(m.HandleEvent)

	recoverCtx, cancel := context.WithTimeout(ctx, m.conf.SessionInitTimeout)
	defer cancel()

	sess, err := m.provider.GetSession(recoverCtx)
	if err != nil {
		m.log.Warn("session: recovery failed, trying local fallback", err)
		if !m.restoreFromLocal() {
			m.setState(StateAnonymous)
		}
		m.notifyTarget()
		return
	}
	if sess == nil {
		m.setState(StateAnonymous)
		return
	}

	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()

	// Resolution gets its own bound; a hung profile backend must not keep
	// the caller in the loading state.
	fetchCtx, fetchCancel := context.WithTimeout(ctx, m.conf.FetchTimeout)
	defer fetchCancel()
	m.resolveProfile(fetchCtx, sess)
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// restoreFromLocal installs the cached last-known session and profile when
// they are consistent and unexpired. Reports whether anything was restored.
func (m *Machine) restoreFromLocal() bool {
	sess, ok := m.local.LoadSession()
	if !ok || sess.Expired(nowFunc()) {
		return false
	}
	prof, ok := m.local.LoadProfile()
	if !ok || prof.ID != sess.UserID {
		return false
	}

	m.mu.Lock()
	m.session = sess
	m.profile = &prof
	m.authoritative = false
	m.state = StateAuthenticated
	if prof.IsStudent() {
		m.target = prof.ID
	}
	m.mu.Unlock()
	m.log.Info("session: restored from local state", map[string]interface{}{"user_id": prof.ID})
	return true
}

// HandleEvent reacts to asynchronous identity provider signals, in the order
// delivered.
func (m *Machine) HandleEvent(event Event, sess *Session) {
	m.log.Debug("session: event", map[string]interface{}{"event": string(event)})

	switch event {
	case EventInitialSession, EventSignedIn:
		if sess == nil {
			return
		}
		m.mu.Lock()
		m.session = sess
		m.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), m.conf.FetchTimeout)
		defer cancel()
		m.resolveProfile(ctx, sess)

	case EventTokenRefreshed:
		// updates the stored credential only; never re-derives role. A
		// refresh for an identity other than the active one is a late
		// arrival and is ignored.
		m.mu.Lock()
		if sess != nil && m.session != nil && m.session.UserID == sess.UserID {
			m.session = sess
		}
		m.mu.Unlock()

	case EventSignedOut:
		m.mu.Lock()
		m.session = nil
		m.profile = nil
		m.authoritative = false
		m.roster = nil
		m.target = ""
		m.state = StateAnonymous
		m.mu.Unlock()
		if err := m.local.Clear(); err != nil {
			m.log.Warn("session: clearing local state", err)
		}
		m.notifyTarget()
	}
}

// resolveProfile fetches the authoritative profile for the session identity.
// Strictly single-flight: a resolution observed while one is outstanding is
// dropped, not queued. The guard is released on every path so a later retry
// stays possible.
func (m *Machine) resolveProfile(ctx context.Context, sess *Session) {
	m.mu.Lock()
	if m.resolving {
		m.mu.Unlock()
		m.log.Debug("session: resolution already in flight, dropping")
		return
	}
	m.resolving = true
	if m.state != StateAuthenticated {
		m.state = StateResolving
	}

	// Apply credential hints immediately so the caller never renders a
	// roleless flash; the fetch below overwrites them.
	var hintName string
	if claims, err := ParseHints(sess.AccessToken); err == nil {
		hintName = claims.FullName
		if role := claims.Role(); role != "" && (m.profile == nil || m.profile.ID != sess.UserID) {
			m.profile = &profile.Profile{
				ID:       sess.UserID,
				Email:    sess.Email,
				FullName: claims.FullName,
				Role:     role,
			}
			m.authoritative = false
		}
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.resolving = false
		m.mu.Unlock()
	}()

	prof, created, err := m.profiles.Ensure(ctx, profile.NewProfile{
		ID:       sess.UserID,
		Email:    sess.Email,
		FullName: hintName,
	})
	if err != nil {
		m.log.Error("session: profile resolution failed", err, map[string]interface{}{"user_id": sess.UserID})
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		if prof, ok := m.local.LoadProfile(); ok && prof.ID == sess.UserID {
			m.mu.Lock()
			m.profile = &prof
			m.authoritative = false
			m.state = StateAuthenticated
			if prof.IsStudent() {
				m.target = prof.ID
			}
			m.mu.Unlock()
			m.notifyTarget()
			return
		}
		// degraded: session present, role possibly unresolved
		m.setState(StateAuthenticated)
		return
	}
	if created {
		m.log.Info("session: created default profile", map[string]interface{}{"user_id": prof.ID})
	}

	m.mu.Lock()
	if m.session == nil || m.session.UserID != prof.ID {
		// signed out or a newer identity raced us; discard
		m.mu.Unlock()
		return
	}
	m.profile = &prof
	m.authoritative = true
	m.lastErr = nil
	m.state = StateAuthenticated
	if prof.IsStudent() {
		m.target = prof.ID
	}
	needRoster := prof.IsElevated() && m.roster == nil
	sessCopy := *m.session
	m.mu.Unlock()

	if err := m.local.SaveSession(&sessCopy); err != nil {
		m.log.Warn("session: persisting session", err)
	}
	if err := m.local.SaveProfile(prof); err != nil {
		m.log.Warn("session: persisting profile", err)
	}

	if needRoster {
		if err := m.RefreshRoster(ctx); err != nil {
			m.log.Error("session: fetching roster", err)
		}
	}
	m.notifyTarget()
}

// SignIn authenticates with the identity provider. The provider's SIGNED_IN
// event drives profile resolution.
func (m *Machine) SignIn(ctx context.Context, email, password string) error {
	_, err := m.provider.SignInWithPassword(ctx, email, password)
	return err
}

// SignUp registers a new identity; the profile is created lazily on first
// resolution.
func (m *Machine) SignUp(ctx context.Context, email, password, fullName string) error {
	_, err := m.provider.SignUp(ctx, email, password, fullName)
	return err
}

func (m *Machine) SignOut(ctx context.Context) error {
	return m.provider.SignOut(ctx)
}

// Refresh re-recovers the session and re-resolves the profile on demand.
func (m *Machine) Refresh(ctx context.Context) {
	recoverCtx, cancel := context.WithTimeout(ctx, m.conf.SessionInitTimeout)
	defer cancel()

	sess, err := m.provider.GetSession(recoverCtx)
	if err != nil {
		m.log.Warn("session: refresh failed", err)
		return
	}
	if sess == nil {
		return
	}
	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()

	fetchCtx, fetchCancel := context.WithTimeout(ctx, m.conf.FetchTimeout)
	defer fetchCancel()
	m.resolveProfile(fetchCtx, sess)
}

// SetViewingTarget selects which student's records are visible. Only
// elevated roles may choose; a student's target is locked to their own
// identity. An empty id deselects.
func (m *Machine) SetViewingTarget(id string) error {
	m.mu.Lock()
	if m.profile == nil {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if m.profile.IsStudent() {
		m.mu.Unlock()
		return ErrTargetLocked
	}
	m.target = id
	m.mu.Unlock()
	m.notifyTarget()
	return nil
}

// RefreshRoster refetches the student roster. Elevated roles only.
func (m *Machine) RefreshRoster(ctx context.Context) error {
	m.mu.Lock()
	if m.profile == nil || !m.profile.IsElevated() {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	m.mu.Unlock()

	students, err := m.profiles.Students(ctx)
	if err != nil {
		return errors.Wrap(err, "fetching roster")
	}
	if students == nil {
		students = []profile.Profile{}
	}
	m.mu.Lock()
	m.roster = students
	m.mu.Unlock()
	return nil
}

// Close unsubscribes from provider events.
func (m *Machine) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// accessors

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the active session, nil when signed out.
func (m *Machine) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	sess := *m.session
	return &sess
}

// Profile returns the resolved profile, whether it is authoritative (live
// fetch) as opposed to hint- or cache-derived, and whether one is set at all.
func (m *Machine) Profile() (prof profile.Profile, authoritative, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return profile.Profile{}, false, false
	}
	return *m.profile, m.authoritative, true
}

func (m *Machine) Role() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return ""
	}
	return m.profile.Role
}

func (m *Machine) ViewingTarget() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

func (m *Machine) Roster() []profile.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]profile.Profile, len(m.roster))
	copy(out, m.roster)
	return out
}

// LastError returns the most recent resolution failure, for observability.
func (m *Machine) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
