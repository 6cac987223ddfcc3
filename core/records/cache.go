package records

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tolgakaban/lgstakip/core"
)

var (
	// errors
	ErrNotFound = errors.New("record not found")
	// ErrNoTarget is returned by mutations while no viewing target is set.
	ErrNoTarget = errors.New("no viewing target selected")
)

type (
	ExamRepository interface {
		QueryExamsByUser(ctx context.Context, userID string, ord core.DBOrdering) ([]ExamRecord, error)
		CreateExam(ctx context.Context, exam ExamRecord) (ExamRecord, error)
		DeleteExam(ctx context.Context, id string) error
	}

	StudyLogRepository interface {
		QueryStudyLogsByUser(ctx context.Context, userID string, ord core.DBOrdering) ([]StudyLogEntry, error)
		CreateStudyLog(ctx context.Context, entry StudyLogEntry) (StudyLogEntry, error)
		UpdateStudyLog(ctx context.Context, entry StudyLogEntry) (StudyLogEntry, error)
		DeleteStudyLog(ctx context.Context, id string) error
	}

	// Cache holds the viewing target's records in memory, applies optimistic
	// mutations and keeps the derived statistics in step with the data. It is
	// the only writer of its collections; the presentation layer reads
	// snapshots.
	Cache struct {
		exams ExamRepository
		logs  StudyLogRepository
		log   core.Logger

		fetchTimeout time.Duration

		mu           sync.Mutex
		target       string // viewing target id; "" = none selected
		generation   uint64 // bumped on every target change; stale fetches check it
		examList     []ExamRecord
		logList      []StudyLogEntry
		stats        Stats
		subjectStats []SubjectStats
	}
)

func NewCache(exams ExamRepository, logs StudyLogRepository, log core.Logger, conf *core.Config) *Cache {
	return &Cache{
		exams:        exams,
		logs:         logs,
		log:          log,
		fetchTimeout: conf.FetchTimeout,
		examList:     []ExamRecord{},
		logList:      []StudyLogEntry{},
	}
}

// recompute must be called with c.mu held after every accepted mutation or
// fetch completion.
func (c *Cache) recompute() {
	c.stats = computeStats(c.examList, c.logList)
	c.subjectStats = computeSubjectStats(c.examList, c.logList)
}

// SetViewingTarget switches which identity's records are loaded. An empty id
// clears both collections immediately rather than showing stale data;
// otherwise the target's records are refetched.
func (c *Cache) SetViewingTarget(ctx context.Context, id string) error {
	c.mu.Lock()
	c.target = id
	c.generation++
	if id == "" {
		c.examList = []ExamRecord{}
		c.logList = []StudyLogEntry{}
		c.recompute()
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.Refetch(ctx)
}

// Target returns the current viewing target id, "" when none is selected.
func (c *Cache) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Refetch reloads both collections for the current viewing target, newest
// first. A fetch made stale by an intervening target change is discarded
// (last target wins). Fetch failures leave the previous cache intact;
// authorization-shaped denials install an empty view instead of erroring.
func (c *Cache) Refetch(ctx context.Context) error {
	c.mu.Lock()
	target := c.target
	gen := c.generation
	c.mu.Unlock()

	if target == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	var denied bool
	exams, err := c.exams.QueryExamsByUser(ctx, target, core.ByDateDesc)
	if err != nil {
		if !core.IsPermissionDenied(err) {
			return errors.Wrap(err, "fetching exams")
		}
		denied = true
	}
	logs, err := c.logs.QueryStudyLogsByUser(ctx, target, core.ByDateDesc)
	if err != nil {
		if !core.IsPermissionDenied(err) {
			return errors.Wrap(err, "fetching study logs")
		}
		denied = true
	}
	if denied {
		// not authorized (yet): an empty view, not an error
		exams, logs = nil, nil
	}
	if exams == nil {
		exams = []ExamRecord{}
	}
	if logs == nil {
		logs = []StudyLogEntry{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		c.log.Debug("records: discarding stale fetch", map[string]interface{}{"target": target})
		return nil
	}
	c.examList = exams
	c.logList = logs
	c.recompute()
	return nil
}

// Exams returns a snapshot of the cached exam records, newest first.
func (c *Cache) Exams() []ExamRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ExamRecord, len(c.examList))
	copy(out, c.examList)
	return out
}

// StudyLogs returns a snapshot of the cached study logs, newest first.
func (c *Cache) StudyLogs() []StudyLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StudyLogEntry, len(c.logList))
	copy(out, c.logList)
	return out
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) SubjectStats() []SubjectStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SubjectStats, len(c.subjectStats))
	copy(out, c.subjectStats)
	return out
}

// AddExam scores the submission, inserts it into the cache under a temporary
// id before the remote write is issued, then reconciles the authoritative id
// on success or removes the entry on failure.
func (c *Cache) AddExam(ctx context.Context, ne NewExam) (ExamRecord, error) {
	if err := ne.Validate(); err != nil {
		return ExamRecord{}, err
	}

	results := BuildResults(ne.Results)
	score := CalculateScore(results)

	c.mu.Lock()
	if c.target == "" {
		c.mu.Unlock()
		return ExamRecord{}, ErrNoTarget
	}
	exam := ExamRecord{
		ID:         localIDPrefix + uuid.New().String(),
		UserID:     c.target,
		Name:       ne.Name,
		Date:       ne.Date,
		Results:    results,
		TotalScore: score.Score,
		TotalNet:   score.TotalNet,
		CreatedAt:  time.Now().UTC(),
	}
	tempID := exam.ID
	c.examList = append([]ExamRecord{exam}, c.examList...)
	c.recompute()
	c.mu.Unlock()

	saved, err := c.exams.CreateExam(ctx, exam)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.removeExamLocked(tempID)
		c.recompute()
		return ExamRecord{}, errors.Wrap(err, "saving exam")
	}
	for i := range c.examList {
		if c.examList[i].ID == tempID {
			c.examList[i].ID = saved.ID
			c.examList[i].CreatedAt = saved.CreatedAt
			break
		}
	}
	return saved, nil
}

// DeleteExam removes the exam from the cache immediately and restores the
// prior snapshot exactly when the remote delete fails.
func (c *Cache) DeleteExam(ctx context.Context, id string) error {
	c.mu.Lock()
	backup := make([]ExamRecord, len(c.examList))
	copy(backup, c.examList)
	if !c.removeExamLocked(id) {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.recompute()
	c.mu.Unlock()

	if err := c.exams.DeleteExam(ctx, id); err != nil {
		c.mu.Lock()
		c.examList = backup
		c.recompute()
		c.mu.Unlock()
		return errors.Wrap(err, "deleting exam")
	}
	return nil
}

func (c *Cache) removeExamLocked(id string) bool {
	for i := range c.examList {
		if c.examList[i].ID == id {
			c.examList = append(c.examList[:i:i], c.examList[i+1:]...)
			return true
		}
	}
	return false
}

// AddStudyLog inserts the entry optimistically, then reconciles or rolls back
// once the remote write completes.
func (c *Cache) AddStudyLog(ctx context.Context, nl NewStudyLog) (StudyLogEntry, error) {
	if err := nl.Validate(); err != nil {
		return StudyLogEntry{}, err
	}

	c.mu.Lock()
	if c.target == "" {
		c.mu.Unlock()
		return StudyLogEntry{}, ErrNoTarget
	}
	entry := StudyLogEntry{
		ID:        localIDPrefix + uuid.New().String(),
		UserID:    c.target,
		Date:      nl.Date,
		Subject:   nl.Subject,
		Count:     nl.Count,
		Correct:   nl.Correct,
		CreatedAt: time.Now().UTC(),
	}
	if nl.Topic != "" {
		entry.Topic = null.StringFrom(nl.Topic)
	}
	if nl.Publisher != "" {
		entry.Publisher = null.StringFrom(nl.Publisher)
	}
	tempID := entry.ID
	c.logList = append([]StudyLogEntry{entry}, c.logList...)
	c.recompute()
	c.mu.Unlock()

	saved, err := c.logs.CreateStudyLog(ctx, entry)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.removeStudyLogLocked(tempID)
		c.recompute()
		return StudyLogEntry{}, errors.Wrap(err, "saving study log")
	}
	for i := range c.logList {
		if c.logList[i].ID == tempID {
			c.logList[i].ID = saved.ID
			c.logList[i].CreatedAt = saved.CreatedAt
			break
		}
	}
	return saved, nil
}

// UpdateStudyLog applies the patch optimistically and reconciles with the
// authoritative row on success; on failure the prior entry is restored
// unchanged.
func (c *Cache) UpdateStudyLog(ctx context.Context, id string, ul UpdateStudyLog) (StudyLogEntry, error) {
	c.mu.Lock()
	idx := -1
	for i := range c.logList {
		if c.logList[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return StudyLogEntry{}, ErrNotFound
	}
	orig := c.logList[idx]
	if err := ul.Validate(orig); err != nil {
		c.mu.Unlock()
		return StudyLogEntry{}, err
	}
	updated := ul.apply(orig)
	c.logList[idx] = updated
	c.recompute()
	c.mu.Unlock()

	saved, err := c.logs.UpdateStudyLog(ctx, updated)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.restoreStudyLogLocked(id, orig)
		c.recompute()
		return StudyLogEntry{}, errors.Wrap(err, "updating study log")
	}
	c.restoreStudyLogLocked(id, saved)
	c.recompute()
	return saved, nil
}

func (c *Cache) restoreStudyLogLocked(id string, entry StudyLogEntry) {
	for i := range c.logList {
		if c.logList[i].ID == id {
			c.logList[i] = entry
			return
		}
	}
}

// DeleteStudyLog removes the entry optimistically, restoring the prior
// snapshot exactly when the remote delete fails.
func (c *Cache) DeleteStudyLog(ctx context.Context, id string) error {
	c.mu.Lock()
	backup := make([]StudyLogEntry, len(c.logList))
	copy(backup, c.logList)
	if !c.removeStudyLogLocked(id) {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.recompute()
	c.mu.Unlock()

	if err := c.logs.DeleteStudyLog(ctx, id); err != nil {
		c.mu.Lock()
		c.logList = backup
		c.recompute()
		c.mu.Unlock()
		return errors.Wrap(err, "deleting study log")
	}
	return nil
}

func (c *Cache) removeStudyLogLocked(id string) bool {
	for i := range c.logList {
		if c.logList[i].ID == id {
			c.logList = append(c.logList[:i:i], c.logList[i+1:]...)
			return true
		}
	}
	return false
}
