package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/records"
)

type examRepository struct {
	db *examTable
}

var _ records.ExamRepository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) records.ExamRepository {
	return &examRepository{db: db.exam}
}

func (repo *examRepository) QueryExamsByUser(ctx context.Context, userID string, ord core.DBOrdering) ([]records.ExamRecord, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exams := make([]records.ExamRecord, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		if e.UserID == userID {
			exams = append(exams, *e)
		}
	}
	sort.SliceStable(exams, func(i, j int) bool {
		if ord.Ascending {
			return exams[i].Date < exams[j].Date
		}
		return exams[i].Date > exams[j].Date
	})
	return exams, nil
}

func (repo *examRepository) CreateExam(ctx context.Context, exam records.ExamRecord) (records.ExamRecord, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// the store assigns the authoritative identifier
	exam.ID = uuid.New().String()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now().UTC()
	}
	repo.db.table[exam.ID] = &exam
	return exam, nil
}

func (repo *examRepository) DeleteExam(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return core.NewRemoteError(core.RemoteCodeNotFound, "exam not found")
	}
	delete(repo.db.table, id)
	return nil
}
