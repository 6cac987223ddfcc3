package records

import (
	"testing"
)

func validExamResults() map[string]NewExamResult {
	return map[string]NewExamResult{
		"Türkçe":              {Correct: 18, Incorrect: 1, Empty: 1},
		"T.C. İnkılap Tarihi": {Correct: 10},
		"Din Kültürü":         {Correct: 8, Incorrect: 2},
		"Yabancı Dil":         {Correct: 5, Incorrect: 3, Empty: 2},
		"Matematik":           {Correct: 12, Incorrect: 6, Empty: 2},
		"Fen Bilimleri":       {Correct: 20},
	}
}

func TestNewExamValidate(t *testing.T) {
	tests := []struct {
		name    string
		exam    NewExam
		wantErr bool
	}{
		{
			name: "valid submission",
			exam: NewExam{Name: "Deneme 1", Date: "2024-01-15", Results: validExamResults()},
		},
		{
			name:    "missing name",
			exam:    NewExam{Date: "2024-01-15", Results: validExamResults()},
			wantErr: true,
		},
		{
			name:    "bad date",
			exam:    NewExam{Name: "Deneme 1", Date: "15/01/2024", Results: validExamResults()},
			wantErr: true,
		},
		{
			name:    "no results",
			exam:    NewExam{Name: "Deneme 1", Date: "2024-01-15"},
			wantErr: true,
		},
		{
			name: "unknown subject",
			exam: NewExam{Name: "Deneme 1", Date: "2024-01-15", Results: map[string]NewExamResult{
				"Felsefe": {Correct: 10},
			}},
			wantErr: true,
		},
		{
			name: "counts not summing to the subject maximum",
			exam: NewExam{Name: "Deneme 1", Date: "2024-01-15", Results: map[string]NewExamResult{
				"Türkçe": {Correct: 18, Incorrect: 1}, // 19 of 20
			}},
			wantErr: true,
		},
		{
			name: "negative counts",
			exam: NewExam{Name: "Deneme 1", Date: "2024-01-15", Results: map[string]NewExamResult{
				"Türkçe": {Correct: 21, Incorrect: -1},
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.exam.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewStudyLogValidate(t *testing.T) {
	tests := []struct {
		name    string
		log     NewStudyLog
		wantErr bool
	}{
		{
			name: "valid log",
			log:  NewStudyLog{Date: "2024-01-01", Subject: "Matematik", Count: 10, Correct: 7},
		},
		{
			name:    "correct exceeding count",
			log:     NewStudyLog{Date: "2024-01-01", Subject: "Matematik", Count: 10, Correct: 11},
			wantErr: true,
		},
		{
			name:    "zero count",
			log:     NewStudyLog{Date: "2024-01-01", Subject: "Matematik"},
			wantErr: true,
		},
		{
			name:    "unknown subject",
			log:     NewStudyLog{Date: "2024-01-01", Subject: "Felsefe", Count: 10},
			wantErr: true,
		},
		{
			name:    "bad date",
			log:     NewStudyLog{Date: "01.01.2024", Subject: "Matematik", Count: 10},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.log.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateStudyLogValidate(t *testing.T) {
	orig := StudyLogEntry{ID: "1", Date: "2024-01-01", Subject: "Matematik", Count: 10, Correct: 7}

	correct := 9
	tooMany := 11
	four := 4

	tests := []struct {
		name    string
		update  UpdateStudyLog
		wantErr bool
	}{
		{name: "empty update keeps the original", update: UpdateStudyLog{}},
		{name: "raising correct within count", update: UpdateStudyLog{Correct: &correct}},
		{name: "correct above original count", update: UpdateStudyLog{Correct: &tooMany}, wantErr: true},
		{name: "lower count under existing correct", update: UpdateStudyLog{Count: 5}, wantErr: true},
		{name: "count and correct moved together", update: UpdateStudyLog{Count: 5, Correct: &four}},
		{name: "subject change", update: UpdateStudyLog{Subject: "Türkçe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update := tt.update
			if err := update.Validate(orig); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsLocalID(t *testing.T) {
	if !IsLocalID("local-123e4567") {
		t.Error("IsLocalID() = false for a local id")
	}
	if IsLocalID("123e4567") {
		t.Error("IsLocalID() = true for an authoritative id")
	}
}
