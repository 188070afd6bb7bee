package grading

import (
	"strings"

	"github.com/servimatch/skilltest-backend/internal/model"
)

// Verdict is the outcome of evaluating one answer. Deferred means the
// real verdict belongs to a deeper grading step (code execution); Correct
// then only reflects whether a non-empty submission was made.
type Verdict struct {
	Correct  bool
	Deferred bool
}

// Evaluate computes correctness for a single question/answer pair. Pure:
// a missing or empty answer is simply incorrect, never a panic. The
// switch is exhaustive over the closed variant set; an unknown type is
// incorrect (it can only occur if the catalog decode boundary was
// bypassed).
func Evaluate(q *model.Question, a *model.Answer) Verdict {
	if a.IsEmpty() {
		return Verdict{}
	}

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		return Verdict{Correct: containsString(q.CorrectAnswers, a.Value)}

	case model.QuestionTypeMultipleChoice:
		// Exact set equality: extra and missing selections both fail.
		return Verdict{Correct: setsEqual(a.Values, q.CorrectAnswers)}

	case model.QuestionTypeTextInput:
		submitted := strings.ToLower(strings.TrimSpace(a.Value))
		for _, want := range q.CorrectAnswers {
			if submitted == strings.ToLower(strings.TrimSpace(want)) {
				return Verdict{Correct: true}
			}
		}
		return Verdict{}

	case model.QuestionTypeCodeWriting:
		// Non-empty means attempted; the verdict is deferred to the
		// grading result.
		return Verdict{Correct: strings.TrimSpace(a.Value) != "", Deferred: true}
	}

	return Verdict{}
}

// IsCorrect is the boolean convenience form of Evaluate.
func IsCorrect(q *model.Question, a *model.Answer) bool {
	return Evaluate(q, a).Correct
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func setsEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}
