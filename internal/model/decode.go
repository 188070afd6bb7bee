package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// QuestionRecord is the raw shape of a question row as stored in the
// catalog: structured sub-data (options, correct answers, test cases)
// arrives as jsonb columns. Decode is the single strict boundary that
// turns it into a typed Question; downstream code never re-parses raw
// strings.
type QuestionRecord struct {
	ID             uuid.UUID
	TestID         uuid.UUID
	Type           string
	Text           string
	Points         int
	Options        json.RawMessage
	CorrectAnswers json.RawMessage
	CodeTemplate   string
	CodeSolution   string
	ExpectedOutput string
	TestCases      json.RawMessage
	Explanation    string
	OrderNum       int
}

// Decode validates the record and produces a typed Question. Any unknown
// variant, malformed sub-data, or variant/field mismatch is an error; a
// question that fails to decode must never reach a session.
func (r *QuestionRecord) Decode() (*Question, error) {
	qt := QuestionType(r.Type)
	if !qt.Valid() {
		return nil, fmt.Errorf("question %s: %w: %q", r.ID, ErrUnsupportedQuestionType, r.Type)
	}
	if r.Points <= 0 {
		return nil, fmt.Errorf("question %s: points must be positive, got %d", r.ID, r.Points)
	}

	q := &Question{
		ID:             r.ID,
		TestID:         r.TestID,
		Type:           qt,
		Text:           r.Text,
		Points:         r.Points,
		CodeTemplate:   r.CodeTemplate,
		CodeSolution:   r.CodeSolution,
		ExpectedOutput: r.ExpectedOutput,
		Explanation:    r.Explanation,
		OrderNum:       r.OrderNum,
	}

	if len(r.Options) > 0 {
		if err := json.Unmarshal(r.Options, &q.Options); err != nil {
			return nil, fmt.Errorf("question %s: decode options: %w", r.ID, err)
		}
	}
	if len(r.CorrectAnswers) > 0 {
		if err := json.Unmarshal(r.CorrectAnswers, &q.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("question %s: decode correct answers: %w", r.ID, err)
		}
	}
	if len(r.TestCases) > 0 {
		if err := json.Unmarshal(r.TestCases, &q.TestCases); err != nil {
			return nil, fmt.Errorf("question %s: decode test cases: %w", r.ID, err)
		}
	}

	switch qt {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice:
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("question %s: %s requires at least 2 options", r.ID, qt)
		}
		if len(q.CorrectAnswers) == 0 {
			return nil, fmt.Errorf("question %s: %s requires correct answers", r.ID, qt)
		}
		for _, ans := range q.CorrectAnswers {
			if !q.HasOption(ans) {
				return nil, fmt.Errorf("question %s: correct answer %q is not an option", r.ID, ans)
			}
		}
	case QuestionTypeTextInput:
		if len(q.CorrectAnswers) == 0 {
			return nil, fmt.Errorf("question %s: TEXT_INPUT requires correct answers", r.ID)
		}
	case QuestionTypeCodeWriting:
		// Grading is deferred; no answer key required. Test cases are
		// optional illustrative data.
	}

	return q, nil
}
