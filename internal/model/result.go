package model

import (
	"github.com/google/uuid"
)

// Result is the graded outcome of a submitted attempt. The grading service
// that produced it is authoritative for Score and Passed; per-question
// correctness is included for explanation display.
type Result struct {
	Score            float64          `json:"score"`
	Passed           bool             `json:"passed"`
	TimeSpentMinutes float64          `json:"time_spent_minutes"`
	Questions        []QuestionResult `json:"questions"`
}

// QuestionResult is the per-question breakdown shown after submission.
// Correct is nil when the verdict is deferred (CODE_WRITING questions are
// only checked for a non-empty submission here).
type QuestionResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	Correct       *bool     `json:"correct,omitempty"`
	PointsAwarded float64   `json:"points_awarded"`
	Explanation   string    `json:"explanation,omitempty"`
}
