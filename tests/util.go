package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/core/records"
)

func CreateProfile(
	t *testing.T,
	repo profile.Repository,
	email, fullName, role string,
	id ...string,
) profile.Profile {
	t.Helper()

	profID := uuid.New().String()
	if len(id) > 0 {
		profID = id[0]
	}
	now := time.Now().UTC()
	prof, err := repo.CreateProfile(context.Background(), profile.Profile{
		ID:        profID,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return prof
}

func CreateStudyLog(
	t *testing.T,
	repo records.StudyLogRepository,
	userID, date, subject string,
	count, correct int,
) records.StudyLogEntry {
	t.Helper()

	entry, err := repo.CreateStudyLog(context.Background(), records.StudyLogEntry{
		UserID:  userID,
		Date:    date,
		Subject: subject,
		Count:   count,
		Correct: correct,
	})
	if err != nil {
		t.Fatalf("CreateStudyLog() failed: %v", err)
	}
	return entry
}

func CreateExam(
	t *testing.T,
	repo records.ExamRepository,
	userID, name, date string,
	results records.ResultSet,
) records.ExamRecord {
	t.Helper()

	score := records.CalculateScore(results)
	exam, err := repo.CreateExam(context.Background(), records.ExamRecord{
		UserID:     userID,
		Name:       name,
		Date:       date,
		Results:    results,
		TotalScore: score.Score,
		TotalNet:   score.TotalNet,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return exam
}
