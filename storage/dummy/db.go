package dummydb

import (
	"sync"

	"github.com/tolgakaban/lgstakip/core/profile"
	"github.com/tolgakaban/lgstakip/core/records"
	"github.com/tolgakaban/lgstakip/services/identity"
)

type (
	DB struct {
		profile    *profileTable
		exam       *examTable
		studyLog   *studyLogTable
		credential *credentialTable
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*profile.Profile
	}

	examTable struct {
		sync.RWMutex
		table map[string]*records.ExamRecord
	}

	studyLogTable struct {
		sync.RWMutex
		table map[string]*records.StudyLogEntry
	}

	credentialTable struct {
		sync.RWMutex
		table map[string]*identity.Credential // keyed by email
	}
)

func Open() (*DB, error) {
	db := &DB{
		profile:    &profileTable{table: make(map[string]*profile.Profile)},
		exam:       &examTable{table: make(map[string]*records.ExamRecord)},
		studyLog:   &studyLogTable{table: make(map[string]*records.StudyLogEntry)},
		credential: &credentialTable{table: make(map[string]*identity.Credential)},
	}
	return db, nil
}
