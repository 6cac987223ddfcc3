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

type studyLogRepository struct {
	db *sqlx.DB
}

var _ records.StudyLogRepository = (*studyLogRepository)(nil) // interface compliance check

func NewStudyLogRepository(db *sqlx.DB) records.StudyLogRepository {
	return &studyLogRepository{db: db}
}

func (repo *studyLogRepository) QueryStudyLogsByUser(ctx context.Context, userID string, ord core.DBOrdering) ([]records.StudyLogEntry, error) {
	var logs []records.StudyLogEntry
	q := fmt.Sprintf(`SELECT * FROM study_log WHERE user_id = $1 ORDER BY %s`, ord)
	if err := repo.db.SelectContext(ctx, &logs, q, userID); err != nil {
		return nil, remoteErr(err, "querying study logs")
	}
	return logs, nil
}

func (repo *studyLogRepository) CreateStudyLog(ctx context.Context, entry records.StudyLogEntry) (records.StudyLogEntry, error) {
	entry.ID = uuid.New().String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO study_log (id, user_id, date, subject, topic, count, correct, publisher, created_at)
		VALUES (:id, :user_id, :date, :subject, :topic, :count, :correct, :publisher, :created_at)`, entry)
	if err != nil {
		return records.StudyLogEntry{}, remoteErr(err, "creating study log")
	}
	return entry, nil
}

func (repo *studyLogRepository) UpdateStudyLog(ctx context.Context, entry records.StudyLogEntry) (records.StudyLogEntry, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE study_log
		SET date = :date, subject = :subject, topic = :topic, count = :count,
		    correct = :correct, publisher = :publisher
		WHERE id = :id`, entry)
	if err != nil {
		return records.StudyLogEntry{}, remoteErr(err, "updating study log")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return records.StudyLogEntry{}, core.NewRemoteError(core.RemoteCodeNotFound, "study log not found")
	}
	return entry, nil
}

func (repo *studyLogRepository) DeleteStudyLog(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM study_log WHERE id = $1`, id)
	if err != nil {
		return remoteErr(err, "deleting study log")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewRemoteError(core.RemoteCodeNotFound, "study log not found")
	}
	return nil
}
