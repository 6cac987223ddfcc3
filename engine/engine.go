// Package engine wires the session machine, the scoped record cache and
// their collaborators into one process-scoped object with explicit
// initialization and teardown, injected into consumers instead of ambient
// global state.
package engine

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/core/records"
	"github.com/tolgakaban/lgstakip/core/session"
	"github.com/tolgakaban/lgstakip/services/identity"
	logsvc "github.com/tolgakaban/lgstakip/services/logger"
	"github.com/tolgakaban/lgstakip/storage/database"
	"github.com/tolgakaban/lgstakip/storage/localstate"
)

type (
	// Options carries the collaborators of an Engine. Provider,
	// repositories and LocalState are injectable so tests and alternative
	// backends can swap them.
	Options struct {
		Conf       *core.Config
		Log        core.Logger
		Provider   session.Provider
		Profiles   profile.Repository
		Exams      records.ExamRepository
		StudyLogs  records.StudyLogRepository
		LocalState session.LocalState
	}

	// Engine is the top-level handle consumed by a UI: the session machine
	// drives authentication and target selection, the cache serves records
	// and derived statistics.
	Engine struct {
		Conf    *core.Config
		Log     core.Logger
		Session *session.Machine
		Records *records.Cache

		closers []func()
	}
)

// New assembles an Engine. Lifecycle events flow from the provider through
// the machine into the cache: every viewing-target change triggers a scoped
// refetch (or an immediate clear when the target is unset).
func New(opts Options) (*Engine, error) {
	if opts.Conf == nil {
		opts.Conf = core.NewConfig()
	}
	if opts.Log == nil {
		std := log.New(os.Stdout, "ENGINE : ", log.LstdFlags|log.Lmicroseconds)
		if opts.Conf.RollbarToken != "" && !opts.Conf.TestMode {
			opts.Log = logsvc.NewRollbarLogger(std, opts.Conf)
		} else {
			opts.Log = logsvc.NewConsoleLogger(std, opts.Conf)
		}
	}
	if opts.Provider == nil || opts.Profiles == nil || opts.Exams == nil || opts.StudyLogs == nil {
		return nil, errors.New("engine: provider and repositories are required")
	}
	if opts.LocalState == nil {
		opts.LocalState = localstate.NewStore(opts.Conf.LocalStatePath)
	}

	profileSvc := profile.NewService(opts.Profiles)
	cache := records.NewCache(opts.Exams, opts.StudyLogs, opts.Log, opts.Conf)
	machine := session.NewMachine(opts.Provider, profileSvc, opts.LocalState, opts.Log, opts.Conf)

	eng := &Engine{
		Conf:    opts.Conf,
		Log:     opts.Log,
		Session: machine,
		Records: cache,
	}
	machine.OnTargetChange(func(target string) {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Conf.FetchTimeout)
		defer cancel()
		if err := cache.SetViewingTarget(ctx, target); err != nil {
			opts.Log.Error("engine: refreshing records", err, map[string]interface{}{"target": target})
		}
	})
	eng.closers = append(eng.closers, machine.Close)
	return eng, nil
}

// NewPostgres assembles an Engine over the Postgres storage backend and the
// built-in JWT identity service.
func NewPostgres(conf *core.Config, logger core.Logger) (*Engine, error) {
	if conf == nil {
		conf = core.NewConfig()
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	profiles := database.NewProfileRepository(db)
	provider := identity.NewService(database.NewCredentialRepository(db), profiles, conf)

	eng, err := New(Options{
		Conf:      conf,
		Log:       logger,
		Provider:  provider,
		Profiles:  profiles,
		Exams:     database.NewExamRepository(db),
		StudyLogs: database.NewStudyLogRepository(db),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	eng.closers = append(eng.closers, func() { _ = db.Close() })
	return eng, nil
}

// Init recovers any existing session within the configured bounded timeout
// and resolves it into a role and viewing target. It never blocks past the
// timeout and never returns an authentication failure as a fatal error.
func (e *Engine) Init(ctx context.Context) {
	e.Session.Initialize(ctx)
}

// Close tears the engine down.
func (e *Engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}
