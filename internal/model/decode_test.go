package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func validChoiceRecord() *QuestionRecord {
	return &QuestionRecord{
		ID:             uuid.New(),
		TestID:         uuid.New(),
		Type:           string(QuestionTypeSingleChoice),
		Text:           "Pick one",
		Points:         10,
		Options:        json.RawMessage(`["a","b","c"]`),
		CorrectAnswers: json.RawMessage(`["b"]`),
		OrderNum:       2,
	}
}

func TestDecodeValidRecord(t *testing.T) {
	rec := validChoiceRecord()
	q, err := rec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if q.Type != QuestionTypeSingleChoice {
		t.Errorf("type = %s", q.Type)
	}
	if len(q.Options) != 3 || len(q.CorrectAnswers) != 1 {
		t.Errorf("options = %v, correct = %v", q.Options, q.CorrectAnswers)
	}
	if q.OrderNum != 2 {
		t.Errorf("order = %d, want 2", q.OrderNum)
	}
}

func TestDecodeRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QuestionRecord)
		wantErr error
	}{
		{
			"unknown variant",
			func(r *QuestionRecord) { r.Type = "ESSAY" },
			ErrUnsupportedQuestionType,
		},
		{
			"zero points",
			func(r *QuestionRecord) { r.Points = 0 },
			nil,
		},
		{
			"malformed options json",
			func(r *QuestionRecord) { r.Options = json.RawMessage(`{not json`) },
			nil,
		},
		{
			"single option only",
			func(r *QuestionRecord) { r.Options = json.RawMessage(`["a"]`); r.CorrectAnswers = json.RawMessage(`["a"]`) },
			nil,
		},
		{
			"correct answer outside options",
			func(r *QuestionRecord) { r.CorrectAnswers = json.RawMessage(`["zzz"]`) },
			nil,
		},
		{
			"choice without answer key",
			func(r *QuestionRecord) { r.CorrectAnswers = nil },
			nil,
		},
		{
			"text input without answer key",
			func(r *QuestionRecord) {
				r.Type = string(QuestionTypeTextInput)
				r.Options = nil
				r.CorrectAnswers = nil
			},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validChoiceRecord()
			tt.mutate(rec)
			_, err := rec.Decode()
			if err == nil {
				t.Fatal("Decode succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeCodeWritingNeedsNoAnswerKey(t *testing.T) {
	rec := &QuestionRecord{
		ID:           uuid.New(),
		Type:         string(QuestionTypeCodeWriting),
		Text:         "Write a function",
		Points:       25,
		CodeTemplate: "function f() {}",
		TestCases:    json.RawMessage(`[{"input":"[1]","expected_output":"1"}]`),
	}
	q, err := rec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(q.TestCases) != 1 || q.TestCases[0].ExpectedOutput != "1" {
		t.Errorf("test cases = %+v", q.TestCases)
	}
}

func TestValidateAnswer(t *testing.T) {
	single := &Question{Type: QuestionTypeSingleChoice, Options: []string{"a", "b"}}
	multi := &Question{Type: QuestionTypeMultipleChoice, Options: []string{"a", "b", "c"}}
	text := &Question{Type: QuestionTypeTextInput}

	tests := []struct {
		name    string
		q       *Question
		a       *Answer
		wantErr error
	}{
		{"single valid", single, &Answer{Value: "a"}, nil},
		{"single with value set", single, &Answer{Values: []string{"a"}}, ErrAnswerShape},
		{"single outside options", single, &Answer{Value: "z"}, ErrAnswerShape},
		{"multi valid subset", multi, &Answer{Values: []string{"a", "c"}}, nil},
		{"multi with scalar value", multi, &Answer{Value: "a"}, ErrAnswerShape},
		{"multi outside options", multi, &Answer{Values: []string{"a", "z"}}, ErrAnswerShape},
		{"text free form", text, &Answer{Value: "anything at all"}, nil},
		{"text with value set", text, &Answer{Values: []string{"x"}}, ErrAnswerShape},
		{"unknown variant", &Question{Type: "ESSAY"}, &Answer{Value: "x"}, ErrUnsupportedQuestionType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.ValidateAnswer(tt.a)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAnswer = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAnswer = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
