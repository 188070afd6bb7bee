package model

import (
	"time"

	"github.com/google/uuid"
)

// TestStatus enumerates the possible states of a skill test in the catalog.
type TestStatus string

const (
	TestStatusDraft     TestStatus = "DRAFT"
	TestStatusPublished TestStatus = "PUBLISHED"
	TestStatusArchived  TestStatus = "ARCHIVED"
)

// Test is a skill test for one marketplace service category and level.
// The question order is significant; sessions hold a read-only snapshot.
type Test struct {
	ID                  uuid.UUID  `json:"id"`
	ServiceID           uuid.UUID  `json:"service_id"`
	Level               string     `json:"level"`
	Title               string     `json:"title"`
	TimeLimitMinutes    int        `json:"time_limit_minutes"`
	PassingScorePercent int        `json:"passing_score_percent"`
	Status              TestStatus `json:"status"`
	Questions           []Question `json:"questions,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// QuestionByID returns the question with the given ID, or nil.
func (t *Test) QuestionByID(id uuid.UUID) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}

// TotalPoints sums the point weights of all questions.
func (t *Test) TotalPoints() int {
	total := 0
	for i := range t.Questions {
		total += t.Questions[i].Points
	}
	return total
}

// TestPayload is the Redis-cached payload sent to providers. Correct
// answers, solutions and explanations are stripped; the code template is
// included as a display seed only.
type TestPayload struct {
	TestID              uuid.UUID             `json:"test_id"`
	Title               string                `json:"title"`
	TimeLimitMinutes    int                   `json:"time_limit_minutes"`
	PassingScorePercent int                   `json:"passing_score_percent"`
	Questions           []QuestionForProvider `json:"questions"`
}

// QuestionForProvider is a question without answer data.
type QuestionForProvider struct {
	ID           uuid.UUID    `json:"id"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text"`
	Points       int          `json:"points"`
	Options      []string     `json:"options,omitempty"`
	CodeTemplate string       `json:"code_template,omitempty"`
	OrderNum     int          `json:"order_num"`
}

// PayloadFor builds the provider-facing payload from a full test.
func PayloadFor(t *Test) *TestPayload {
	questions := make([]QuestionForProvider, len(t.Questions))
	for i, q := range t.Questions {
		questions[i] = QuestionForProvider{
			ID:           q.ID,
			Type:         q.Type,
			Text:         q.Text,
			Points:       q.Points,
			Options:      q.Options,
			CodeTemplate: q.CodeTemplate,
			OrderNum:     q.OrderNum,
		}
	}
	return &TestPayload{
		TestID:              t.ID,
		Title:               t.Title,
		TimeLimitMinutes:    t.TimeLimitMinutes,
		PassingScorePercent: t.PassingScorePercent,
		Questions:           questions,
	}
}
