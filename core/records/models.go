package records

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tolgakaban/lgstakip/core"
)

// DateLayout is the layout of every record date.
const DateLayout = "2006-01-02"

// SubjectResult holds one subject's answer counts within an exam.
type SubjectResult struct {
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Empty     int     `json:"empty"`
	Net       float64 `json:"net"`
}

// ResultSet maps subject names to their results. Stored as JSONB.
type ResultSet map[string]SubjectResult

func (rs ResultSet) Value() (driver.Value, error) {
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling results")
	}
	return b, nil
}

func (rs *ResultSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, rs)
	case string:
		return json.Unmarshal([]byte(v), rs)
	case nil:
		*rs = nil
		return nil
	}
	return errors.Errorf("unsupported results type %T", src)
}

// ExamRecord is a scored full mock exam.
type ExamRecord struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Date       string    `json:"date" db:"date"`
	Results    ResultSet `json:"results" db:"results"`
	TotalScore float64   `json:"total_score" db:"total_score"`
	TotalNet   float64   `json:"total_net" db:"total_net"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
}

// StudyLogEntry is one day's practice-question log for a subject.
type StudyLogEntry struct {
	ID        string      `json:"id" db:"id"`
	UserID    string      `json:"user_id" db:"user_id"`
	Date      string      `json:"date" db:"date"`
	Subject   string      `json:"subject" db:"subject"`
	Topic     null.String `json:"topic,omitempty" db:"topic"`
	Count     int         `json:"count" db:"count"`
	Correct   int         `json:"correct" db:"correct"`
	Publisher null.String `json:"publisher,omitempty" db:"publisher"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
}

// local id handling for optimistic inserts

const localIDPrefix = "local-"

// IsLocalID reports whether id is a temporary identifier assigned to an
// optimistic insert that has not been acknowledged by the remote store yet.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// NewExamResult holds raw per-subject answer counts from a submission.
type NewExamResult struct {
	Correct   int `json:"correct" validate:"min=0"`
	Incorrect int `json:"incorrect" validate:"min=0"`
	Empty     int `json:"empty" validate:"min=0"`
}

// NewExam contains information needed to record a new ExamRecord.
type NewExam struct {
	Name    string                   `json:"name" validate:"required"`
	Date    string                   `json:"date" validate:"required,datetime=2006-01-02"`
	Results map[string]NewExamResult `json:"results" validate:"required,min=1,dive"`
}

// Validate enforces the submission invariants: every subject must be
// configured and its counts must sum to the subject's maximum question count.
func (ne *NewExam) Validate() error {
	ne.Name = core.CleanString(ne.Name)

	if err := core.Validate.Struct(ne); err != nil {
		return err
	}

	var flds []core.FieldError
	for name, res := range ne.Results {
		sub, ok := core.SubjectByName(name)
		if !ok {
			flds = append(flds, core.FieldError{Field: name, Error: "unknown subject"})
			continue
		}
		if res.Correct+res.Incorrect+res.Empty != sub.MaxQuestions {
			flds = append(flds, core.FieldError{Field: name, Error: "answer counts must sum to the question count"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.New("invalid exam results"), flds...)
	}
	return nil
}

// NewStudyLog contains information needed to record a new StudyLogEntry.
type NewStudyLog struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Subject   string `json:"subject" validate:"required,subjectname"`
	Topic     string `json:"topic"`
	Count     int    `json:"count" validate:"required,min=1"`
	Correct   int    `json:"correct" validate:"min=0,ltefield=Count"`
	Publisher string `json:"publisher"`
}

func (nl *NewStudyLog) Validate() error {
	nl.Topic = core.CleanString(nl.Topic)
	nl.Publisher = core.CleanString(nl.Publisher)
	return core.Validate.Struct(nl)
}

// UpdateStudyLog defines what information may be provided to modify an
// existing StudyLogEntry. Zero values leave the original field unchanged;
// Correct must be provided whenever Count is.
type UpdateStudyLog struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Subject   string `json:"subject" validate:"omitempty,subjectname"`
	Topic     string `json:"topic"`
	Count     int    `json:"count" validate:"omitempty,min=1"`
	Correct   *int   `json:"correct" validate:"omitempty,min=0"`
	Publisher string `json:"publisher"`
}

func (ul *UpdateStudyLog) Validate(orig StudyLogEntry) error {
	ul.Topic = core.CleanString(ul.Topic)
	ul.Publisher = core.CleanString(ul.Publisher)

	if err := core.Validate.Struct(ul); err != nil {
		return err
	}

	count := orig.Count
	if ul.Count != 0 {
		count = ul.Count
	}
	correct := orig.Correct
	if ul.Correct != nil {
		correct = *ul.Correct
	}
	if correct > count {
		return core.NewValidationError(
			errors.New("invalid study log"),
			core.FieldError{Field: "correct", Error: "correct cannot exceed count"},
		)
	}
	return nil
}

// apply folds the update into a copy of orig.
func (ul UpdateStudyLog) apply(orig StudyLogEntry) StudyLogEntry {
	if ul.Date != "" {
		orig.Date = ul.Date
	}
	if ul.Subject != "" {
		orig.Subject = ul.Subject
	}
	if ul.Topic != "" {
		orig.Topic = null.StringFrom(ul.Topic)
	}
	if ul.Count != 0 {
		orig.Count = ul.Count
	}
	if ul.Correct != nil {
		orig.Correct = *ul.Correct
	}
	if ul.Publisher != "" {
		orig.Publisher = null.StringFrom(ul.Publisher)
	}
	return orig
}
