package grading

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

// ErrSubmissionFailed wraps transient grading failures. The session keeps
// its answers and allows a retry with the same payload.
var ErrSubmissionFailed = errors.New("grading submission failed")

// AttemptSubmission is the payload sent to a grading service.
type AttemptSubmission struct {
	TestID           uuid.UUID      `json:"test_id"`
	ProviderID       int            `json:"provider_id"`
	Answers          []model.Answer `json:"answers"`
	TimeSpentMinutes float64        `json:"time_spent_minutes"`
}

// Service is the authoritative scorer collaborator. Implementations must
// be retryable: a failed call must not consume or mutate the submission.
type Service interface {
	SubmitAttempt(ctx context.Context, sub AttemptSubmission) (*model.Result, error)
}

// TestSource supplies the full test, answer data included, for grading.
type TestSource interface {
	GetTestWithAnswers(ctx context.Context, testID uuid.UUID) (*model.Test, error)
}

// LocalGrader grades attempts in-process against the catalog's answer
// data. It is the authoritative scorer in the default deployment.
type LocalGrader struct {
	tests TestSource
	log   zerolog.Logger
}

// NewLocalGrader creates an in-process grading service.
func NewLocalGrader(tests TestSource, log zerolog.Logger) *LocalGrader {
	return &LocalGrader{
		tests: tests,
		log:   log.With().Str("component", "local_grader").Logger(),
	}
}

// SubmitAttempt scores every question in test order. CODE_WRITING
// questions earn their points for a non-empty submission and report a
// deferred (nil) per-question verdict.
func (g *LocalGrader) SubmitAttempt(ctx context.Context, sub AttemptSubmission) (*model.Result, error) {
	test, err := g.tests.GetTestWithAnswers(ctx, sub.TestID)
	if err != nil {
		return nil, fmt.Errorf("%w: load test: %v", ErrSubmissionFailed, err)
	}

	byQuestion := make(map[uuid.UUID]*model.Answer, len(sub.Answers))
	for i := range sub.Answers {
		byQuestion[sub.Answers[i].QuestionID] = &sub.Answers[i]
	}

	var earned float64
	results := make([]model.QuestionResult, 0, len(test.Questions))

	for i := range test.Questions {
		q := &test.Questions[i]
		qr := model.QuestionResult{QuestionID: q.ID, Explanation: q.Explanation}

		ans, answered := byQuestion[q.ID]
		if !answered {
			ans = &model.Answer{QuestionID: q.ID}
		}

		verdict := Evaluate(q, ans)
		if verdict.Correct {
			qr.PointsAwarded = float64(q.Points)
			earned += qr.PointsAwarded
		}
		if !verdict.Deferred {
			correct := verdict.Correct
			qr.Correct = &correct
		}
		results = append(results, qr)
	}

	var score float64
	if total := test.TotalPoints(); total > 0 {
		score = earned / float64(total) * 100
	}

	result := &model.Result{
		Score:            score,
		Passed:           score >= float64(test.PassingScorePercent),
		TimeSpentMinutes: sub.TimeSpentMinutes,
		Questions:        results,
	}

	g.log.Info().
		Str("test_id", sub.TestID.String()).
		Int("provider_id", sub.ProviderID).
		Float64("score", score).
		Bool("passed", result.Passed).
		Msg("Attempt graded")
	return result, nil
}
