package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tolgakaban/lgstakip/core"
	"github.com/tolgakaban/lgstakip/core/records"
)

type examRepository struct {
	db *sqlx.DB
}

var _ records.ExamRepository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) records.ExamRepository {
	return &examRepository{db: db}
}

func (repo *examRepository) QueryExamsByUser(ctx context.Context, userID string, ord core.DBOrdering) ([]records.ExamRecord, error) {
	var exams []records.ExamRecord
	q := fmt.Sprintf(`SELECT * FROM exam WHERE user_id = $1 ORDER BY %s`, ord)
	if err := repo.db.SelectContext(ctx, &exams, q, userID); err != nil {
		return nil, remoteErr(err, "querying exams")
	}
	return exams, nil
}

func (repo *examRepository) CreateExam(ctx context.Context, exam records.ExamRecord) (records.ExamRecord, error) {
	// the store assigns the authoritative identifier
	exam.ID = uuid.New().String()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now().UTC()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO exam (id, user_id, name, date, results, total_score, total_net, created_at)
		VALUES (:id, :user_id, :name, :date, :results, :total_score, :total_net, :created_at)`, exam)
	if err != nil {
		return records.ExamRecord{}, remoteErr(err, "creating exam")
	}
	return exam, nil
}

func (repo *examRepository) DeleteExam(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM exam WHERE id = $1`, id)
	if err != nil {
		return remoteErr(err, "deleting exam")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewRemoteError(core.RemoteCodeNotFound, "exam not found")
	}
	return nil
}
