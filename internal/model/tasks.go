package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnswerTask is one autosaved answer queued for durable persistence.
type AnswerTask struct {
	TestID     uuid.UUID       `json:"test_id"`
	ProviderID int             `json:"provider_id"`
	QuestionID uuid.UUID       `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

// ResultTask is one graded attempt queued for durable persistence.
type ResultTask struct {
	TestID           uuid.UUID `json:"test_id"`
	ProviderID       int       `json:"provider_id"`
	Score            float64   `json:"score"`
	Passed           bool      `json:"passed"`
	TimeSpentMinutes float64   `json:"time_spent_minutes"`
	FinishedAt       time.Time `json:"finished_at"`
}
