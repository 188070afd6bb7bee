package grading

import (
	"testing"

	"github.com/google/uuid"
	"github.com/servimatch/skilltest-backend/internal/model"
)

func TestEvaluate(t *testing.T) {
	single := &model.Question{
		Type:           model.QuestionTypeSingleChoice,
		Options:        []string{"red", "green", "blue"},
		CorrectAnswers: []string{"green"},
	}
	multi := &model.Question{
		Type:           model.QuestionTypeMultipleChoice,
		Options:        []string{"a", "b", "c", "d"},
		CorrectAnswers: []string{"a", "c"},
	}
	text := &model.Question{
		Type:           model.QuestionTypeTextInput,
		CorrectAnswers: []string{"Paris", "paris, france"},
	}
	code := &model.Question{Type: model.QuestionTypeCodeWriting}

	tests := []struct {
		name string
		q    *model.Question
		a    *model.Answer
		want Verdict
	}{
		{"single correct", single, &model.Answer{Value: "green"}, Verdict{Correct: true}},
		{"single wrong", single, &model.Answer{Value: "red"}, Verdict{}},
		{"single empty", single, &model.Answer{}, Verdict{}},

		{"multi exact set", multi, &model.Answer{Values: []string{"a", "c"}}, Verdict{Correct: true}},
		{"multi order-insensitive", multi, &model.Answer{Values: []string{"c", "a"}}, Verdict{Correct: true}},
		{"multi missing selection", multi, &model.Answer{Values: []string{"a"}}, Verdict{}},
		{"multi extra selection", multi, &model.Answer{Values: []string{"a", "c", "d"}}, Verdict{}},
		{"multi duplicate selections collapse", multi, &model.Answer{Values: []string{"a", "a", "c"}}, Verdict{Correct: true}},

		{"text exact", text, &model.Answer{Value: "Paris"}, Verdict{Correct: true}},
		{"text trims and ignores case", text, &model.Answer{Value: "  pArIs "}, Verdict{Correct: true}},
		{"text matches any accepted answer", text, &model.Answer{Value: "PARIS, FRANCE"}, Verdict{Correct: true}},
		{"text wrong", text, &model.Answer{Value: "London"}, Verdict{}},

		{"code non-empty is attempted and deferred", code, &model.Answer{Value: "func main() {}"}, Verdict{Correct: true, Deferred: true}},
		{"code whitespace only", code, &model.Answer{Value: "   \n\t"}, Verdict{Correct: false, Deferred: true}},
		{"code empty", code, &model.Answer{}, Verdict{}},

		{"unknown type", &model.Question{Type: "ESSAY"}, &model.Answer{Value: "x"}, Verdict{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.q, tt.a); got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluateNilSafe(t *testing.T) {
	q := &model.Question{
		Type:           model.QuestionTypeSingleChoice,
		Options:        []string{"a"},
		CorrectAnswers: []string{"a"},
	}
	var a *model.Answer
	if got := Evaluate(q, a); got != (Verdict{}) {
		t.Errorf("Evaluate(nil answer) = %+v, want zero verdict", got)
	}
}

func TestIsCorrect(t *testing.T) {
	q := &model.Question{
		ID:             uuid.New(),
		Type:           model.QuestionTypeSingleChoice,
		Options:        []string{"x", "y"},
		CorrectAnswers: []string{"y"},
	}
	if !IsCorrect(q, &model.Answer{Value: "y"}) {
		t.Error("IsCorrect = false for the correct option")
	}
	if IsCorrect(q, &model.Answer{Value: "x"}) {
		t.Error("IsCorrect = true for a wrong option")
	}
}
