package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch raw := value.(type) {
	case []byte:
		data = raw
	case string:
		data = []byte(raw)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// Job is an enriched job posting. Skills keep their display order but are
// semantically a set. An Embedding that is not exactly 768-dimensional is
// treated as absent and never participates in search.
type Job struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Company     string     `gorm:"index" json:"company"`
	Position    string     `json:"position"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	Tags        StringList `gorm:"type:text" json:"tags,omitempty"`
	Skills      StringList `gorm:"type:text" json:"skills"`
	Seniority   Seniority  `gorm:"index" json:"seniority"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Embedding   Vector     `gorm:"type:text" json:"embedding,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs_enriched"
}

func (j Job) HasEmbedding() bool {
	return j.Embedding.IsValid()
}

// FailedJob records a posting whose enrichment failed, so the backfill
// pass can retry it later.
type FailedJob struct {
	JobID     string `gorm:"primaryKey"`
	Error     string
	Attempts  int `gorm:"default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
