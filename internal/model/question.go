package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// QuestionType is the closed set of question variants. Adding a variant
// requires updating every switch that dispatches on it; those switches
// treat unknown values as a fatal configuration error rather than
// falling back silently.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeCodeWriting    QuestionType = "CODE_WRITING"
	QuestionTypeTextInput      QuestionType = "TEXT_INPUT"
)

// ErrUnsupportedQuestionType signals a question variant outside the closed
// set. It blocks progression for that question; it is never skipped.
var ErrUnsupportedQuestionType = errors.New("unsupported question type")

// ErrAnswerShape signals an answer whose value shape does not match the
// question variant.
var ErrAnswerShape = errors.New("answer does not match question shape")

// Valid reports whether t is a member of the closed variant set.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice,
		QuestionTypeCodeWriting, QuestionTypeTextInput:
		return true
	}
	return false
}

// TestCase is a single input/output pair for a CODE_WRITING question.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Description    string `json:"description,omitempty"`
}

// Question is a single test question. Immutable once loaded from the
// catalog; the fields populated depend on the variant.
type Question struct {
	ID             uuid.UUID    `json:"id"`
	TestID         uuid.UUID    `json:"test_id"`
	Type           QuestionType `json:"type"`
	Text           string       `json:"text"`
	Points         int          `json:"points"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswers []string     `json:"correct_answers,omitempty"`
	CodeTemplate   string       `json:"code_template,omitempty"`
	CodeSolution   string       `json:"code_solution,omitempty"`
	ExpectedOutput string       `json:"expected_output,omitempty"`
	TestCases      []TestCase   `json:"test_cases,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
	OrderNum       int          `json:"order_num"`
}

// HasOption reports whether v is one of the question's options.
func (q *Question) HasOption(v string) bool {
	for _, o := range q.Options {
		if o == v {
			return true
		}
	}
	return false
}

// ValidateAnswer checks that the answer value has the shape the question
// variant requires. This is the write side of the variant contract: a
// SINGLE_CHOICE answer is exactly one of the options, MULTIPLE_CHOICE is a
// subset of the options, CODE_WRITING and TEXT_INPUT are free text.
func (q *Question) ValidateAnswer(a *Answer) error {
	switch q.Type {
	case QuestionTypeSingleChoice:
		if len(a.Values) > 0 {
			return fmt.Errorf("%w: single-choice answer must be a single value", ErrAnswerShape)
		}
		if !q.HasOption(a.Value) {
			return fmt.Errorf("%w: answer %q is not one of the question options", ErrAnswerShape, a.Value)
		}
		return nil
	case QuestionTypeMultipleChoice:
		if a.Value != "" {
			return fmt.Errorf("%w: multiple-choice answer must be a value set", ErrAnswerShape)
		}
		for _, v := range a.Values {
			if !q.HasOption(v) {
				return fmt.Errorf("%w: answer %q is not one of the question options", ErrAnswerShape, v)
			}
		}
		return nil
	case QuestionTypeCodeWriting, QuestionTypeTextInput:
		if len(a.Values) > 0 {
			return fmt.Errorf("%w: %s answer must be free text", ErrAnswerShape, q.Type)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, q.Type)
	}
}
