package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/records"
)

type studyLogRepository struct {
	db *studyLogTable
}

var _ records.StudyLogRepository = (*studyLogRepository)(nil) // interface compliance check

func NewStudyLogRepository(db *DB) records.StudyLogRepository {
	return &studyLogRepository{db: db.studyLog}
}

func (repo *studyLogRepository) QueryStudyLogsByUser(ctx context.Context, userID string, ord core.DBOrdering) ([]records.StudyLogEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	logs := make([]records.StudyLogEntry, 0, len(repo.db.table))
	for _, l := range repo.db.table {
		if l.UserID == userID {
			logs = append(logs, *l)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if ord.Ascending {
			return logs[i].Date < logs[j].Date
		}
		return logs[i].Date > logs[j].Date
	})
	return logs, nil
}

func (repo *studyLogRepository) CreateStudyLog(ctx context.Context, entry records.StudyLogEntry) (records.StudyLogEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	entry.ID = uuid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	repo.db.table[entry.ID] = &entry
	return entry, nil
}

func (repo *studyLogRepository) UpdateStudyLog(ctx context.Context, entry records.StudyLogEntry) (records.StudyLogEntry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[entry.ID]; !ok {
		return records.StudyLogEntry{}, core.NewRemoteError(core.RemoteCodeNotFound, "study log not found")
	}
	repo.db.table[entry.ID] = &entry
	return entry, nil
}

func (repo *studyLogRepository) DeleteStudyLog(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.NewRemoteError(core.RemoteCodeNotFound, "study log not found")
	}
	delete(repo.db.table, id)
	return nil
}
