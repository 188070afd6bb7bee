package model

import (
	"github.com/google/uuid"
)

// Answer is a provider's submitted answer for one question. Value holds the
// free-text or single-choice selection; Values holds the multiple-choice
// selection set. Exactly one of the two is populated, enforced by
// Question.ValidateAnswer.
type Answer struct {
	QuestionID       uuid.UUID `json:"question_id"`
	Value            string    `json:"value,omitempty"`
	Values           []string  `json:"values,omitempty"`
	TimeSpentSeconds int       `json:"time_spent_seconds,omitempty"`
}

// IsEmpty reports whether the answer carries no submitted value.
func (a *Answer) IsEmpty() bool {
	if a == nil {
		return true
	}
	return a.Value == "" && len(a.Values) == 0
}
