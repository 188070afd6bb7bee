package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

type stubTestSource struct {
	test *model.Test
	err  error
}

func (s *stubTestSource) GetTestWithAnswers(context.Context, uuid.UUID) (*model.Test, error) {
	return s.test, s.err
}

func gradedTest() *model.Test {
	return &model.Test{
		ID:                  uuid.New(),
		PassingScorePercent: 70,
		Questions: []model.Question{
			{
				ID:             uuid.New(),
				Type:           model.QuestionTypeSingleChoice,
				Points:         10,
				Options:        []string{"a", "b"},
				CorrectAnswers: []string{"a"},
				Explanation:    "a is right",
			},
			{
				ID:             uuid.New(),
				Type:           model.QuestionTypeMultipleChoice,
				Points:         10,
				Options:        []string{"x", "y", "z"},
				CorrectAnswers: []string{"x", "y"},
			},
			{
				ID:             uuid.New(),
				Type:           model.QuestionTypeTextInput,
				Points:         5,
				CorrectAnswers: []string{"answer"},
			},
			{
				ID:     uuid.New(),
				Type:   model.QuestionTypeCodeWriting,
				Points: 25,
			},
		},
	}
}

func TestLocalGraderScoresAttempt(t *testing.T) {
	test := gradedTest()
	grader := NewLocalGrader(&stubTestSource{test: test}, zerolog.Nop())

	sub := AttemptSubmission{
		TestID:     test.ID,
		ProviderID: 1,
		Answers: []model.Answer{
			{QuestionID: test.Questions[0].ID, Value: "a"},                    // correct, 10
			{QuestionID: test.Questions[1].ID, Values: []string{"x", "z"}},   // wrong set, 0
			{QuestionID: test.Questions[2].ID, Value: " Answer "},            // correct, 5
			{QuestionID: test.Questions[3].ID, Value: "return items.sum()"},  // attempted code, 25
		},
		TimeSpentMinutes: 12.5,
	}

	result, err := grader.SubmitAttempt(context.Background(), sub)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	// 40 of 50 points.
	if result.Score != 80 {
		t.Errorf("score = %v, want 80", result.Score)
	}
	if !result.Passed {
		t.Error("passed = false, want true at 80 >= 70")
	}
	if result.TimeSpentMinutes != 12.5 {
		t.Errorf("time spent = %v, want 12.5", result.TimeSpentMinutes)
	}
	if len(result.Questions) != 4 {
		t.Fatalf("question results = %d, want 4", len(result.Questions))
	}

	if qr := result.Questions[0]; qr.Correct == nil || !*qr.Correct || qr.PointsAwarded != 10 || qr.Explanation != "a is right" {
		t.Errorf("q0 result = %+v", qr)
	}
	if qr := result.Questions[1]; qr.Correct == nil || *qr.Correct || qr.PointsAwarded != 0 {
		t.Errorf("q1 result = %+v", qr)
	}
	// Code verdict is deferred: points awarded, no boolean verdict.
	if qr := result.Questions[3]; qr.Correct != nil || qr.PointsAwarded != 25 {
		t.Errorf("q3 result = %+v, want deferred verdict with points", qr)
	}
}

func TestLocalGraderUnansweredQuestionsScoreZero(t *testing.T) {
	test := gradedTest()
	grader := NewLocalGrader(&stubTestSource{test: test}, zerolog.Nop())

	result, err := grader.SubmitAttempt(context.Background(), AttemptSubmission{TestID: test.ID})
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("score = %v, want 0", result.Score)
	}
	if result.Passed {
		t.Error("passed = true for an empty submission")
	}
	if len(result.Questions) != 4 {
		t.Errorf("question results = %d, want one per question", len(result.Questions))
	}
	// An unanswered code question is definitively incorrect, not deferred.
	if qr := result.Questions[3]; qr.Correct == nil || *qr.Correct || qr.PointsAwarded != 0 {
		t.Errorf("unanswered code result = %+v", qr)
	}
}

func TestLocalGraderFailureIsRetryable(t *testing.T) {
	grader := NewLocalGrader(&stubTestSource{err: errors.New("redis down")}, zerolog.Nop())

	_, err := grader.SubmitAttempt(context.Background(), AttemptSubmission{TestID: uuid.New()})
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Errorf("err = %v, want ErrSubmissionFailed", err)
	}
}
