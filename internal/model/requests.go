package model

import (
	"encoding/json"
)

// StartAttemptRequest is the payload for starting a test attempt for a
// service category and level.
type StartAttemptRequest struct {
	ServiceID string `json:"service_id" binding:"required,uuid"`
	Level     string `json:"level" binding:"required,oneof=beginner intermediate expert"`
}

// RecordAnswerRequest is the payload for saving one answer. Value carries
// free-text and single-choice answers, Values the multiple-choice set.
type RecordAnswerRequest struct {
	QuestionID string   `json:"question_id" binding:"required,uuid"`
	Value      string   `json:"value" binding:"omitempty,max=20000"`
	Values     []string `json:"values" binding:"omitempty,max=50,dive,max=2000"`
}

// CreateTestRequest is the catalog ingestion payload for a new skill test.
type CreateTestRequest struct {
	ServiceID           string                  `json:"service_id" binding:"required,uuid"`
	Level               string                  `json:"level" binding:"required,oneof=beginner intermediate expert"`
	Title               string                  `json:"title" binding:"required,min=3,max=255"`
	TimeLimitMinutes    int                     `json:"time_limit_minutes" binding:"required,min=1,max=480"`
	PassingScorePercent int                     `json:"passing_score_percent" binding:"required,min=1,max=100"`
	Questions           []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// CreateQuestionRequest is one question inside a CreateTestRequest. The
// structured sub-fields pass through the same strict decode as catalog
// rows, so malformed data is rejected at ingestion time.
type CreateQuestionRequest struct {
	Type           string          `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTIPLE_CHOICE CODE_WRITING TEXT_INPUT"`
	Text           string          `json:"text" binding:"required,min=1,max=4000"`
	Points         int             `json:"points" binding:"required,min=1,max=100"`
	Options        json.RawMessage `json:"options" binding:"omitempty"`
	CorrectAnswers json.RawMessage `json:"correct_answers" binding:"omitempty"`
	CodeTemplate   string          `json:"code_template" binding:"omitempty,max=20000"`
	CodeSolution   string          `json:"code_solution" binding:"omitempty,max=20000"`
	ExpectedOutput string          `json:"expected_output" binding:"omitempty,max=20000"`
	TestCases      json.RawMessage `json:"test_cases" binding:"omitempty"`
	Explanation    string          `json:"explanation" binding:"omitempty,max=4000"`
	OrderNum       int             `json:"order_num" binding:"min=0"`
}

// ToRecord converts the ingestion payload into a QuestionRecord for the
// strict decode. A zero order defaults to the payload position.
func (r *CreateQuestionRequest) ToRecord(position int) *QuestionRecord {
	order := r.OrderNum
	if order == 0 {
		order = position
	}
	return &QuestionRecord{
		Type:           r.Type,
		Text:           r.Text,
		Points:         r.Points,
		Options:        r.Options,
		CorrectAnswers: r.CorrectAnswers,
		CodeTemplate:   r.CodeTemplate,
		CodeSolution:   r.CodeSolution,
		ExpectedOutput: r.ExpectedOutput,
		TestCases:      r.TestCases,
		Explanation:    r.Explanation,
		OrderNum:       order,
	}
}
