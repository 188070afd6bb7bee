package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/config"
	"github.com/servimatch/skilltest-backend/internal/grading"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/repository"
	"github.com/servimatch/skilltest-backend/internal/session"
)

// Attempt errors.
var (
	ErrNoActiveSession  = errors.New("no active attempt session")
	ErrAttemptCompleted = errors.New("test already completed by this provider")
)

// AttemptView pairs the provider-facing test payload with the session
// state. It is what the portal renders.
type AttemptView struct {
	Payload *model.TestPayload `json:"payload"`
	State   session.State      `json:"state"`
}

// AttemptService drives provider test attempts: it owns the in-memory
// session registry, routes answers through the Redis autosave lane, and
// runs the submission pipeline against the grading collaborator.
type AttemptService struct {
	manager  *session.Manager
	catalog  *CatalogService
	grader   grading.Service
	attempts *repository.AttemptRepository
	rdb      *redis.Client
	clock    session.Clock
	log      zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	manager *session.Manager,
	catalog *CatalogService,
	grader grading.Service,
	attempts *repository.AttemptRepository,
	rdb *redis.Client,
	clock session.Clock,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		manager:  manager,
		catalog:  catalog,
		grader:   grader,
		attempts: attempts,
		rdb:      rdb,
		clock:    clock,
		log:      log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start begins a new attempt at the published test for the requested
// service category and level. One active attempt per provider; a provider
// who already completed this test is rejected, while a dangling attempt
// row from a restart is resumed instead.
func (s *AttemptService) Start(ctx context.Context, providerID int, req *model.StartAttemptRequest) (*AttemptView, error) {
	if existing, ok := s.manager.Get(providerID); ok && existing.Status().Active() {
		return nil, session.ErrSessionActive
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid service id: %w", err)
	}

	test, err := s.catalog.FindPublishedTest(ctx, serviceID, req.Level)
	if err != nil {
		return nil, err
	}

	startedAt := s.clock.Now()
	_, err = s.attempts.Create(ctx, test.ID, providerID, startedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, gerr := s.attempts.GetByTestAndProvider(ctx, test.ID, providerID)
		if gerr != nil {
			return nil, gerr
		}
		if existing.Status == model.SessionStatusCompleted {
			return nil, ErrAttemptCompleted
		}
		// Dangling IN_PROGRESS row from a previous process: resume it.
		return s.resume(ctx, providerID, existing)
	}
	if err != nil {
		return nil, err
	}

	testID := test.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.AttemptStartKey(testID, providerID), startedAt.Format(time.RFC3339Nano), 0)
	pipe.Set(ctx, config.CacheKey.ProviderActiveAttemptKey(providerID), testID, 0)
	pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(testID, providerID))
	if _, perr := pipe.Exec(ctx); perr != nil {
		s.log.Warn().Err(perr).Msg("Failed to seed attempt cache keys")
	}

	sess := session.New(s.clock, s.log)
	sess.OnExpire(func() { s.autoSubmit(providerID, sess) })
	if err := sess.StartTest(test); err != nil {
		return nil, err
	}
	if err := s.manager.Put(providerID, sess); err != nil {
		sess.Teardown()
		return nil, err
	}

	return &AttemptView{Payload: model.PayloadFor(test), State: sess.State()}, nil
}

// resume rebuilds a live session from the attempt row, the Redis autosave
// hash, and the recorded start time, with Postgres as the fallback for
// both.
func (s *AttemptService) resume(ctx context.Context, providerID int, attempt *model.Attempt) (*AttemptView, error) {
	test, err := s.catalog.GetTestWithAnswers(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	testID := test.ID.String()

	answers := s.loadAutosavedAnswers(ctx, test.ID, providerID)

	startedAt := attempt.StartedAt
	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptStartKey(testID, providerID)).Result()
	if err == nil {
		if parsed, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			startedAt = parsed
		}
	} else {
		// Self-heal the cache from the durable row.
		s.rdb.Set(ctx, config.CacheKey.AttemptStartKey(testID, providerID), startedAt.Format(time.RFC3339Nano), 0)
	}
	s.rdb.Set(ctx, config.CacheKey.ProviderActiveAttemptKey(providerID), testID, 0)

	remaining := test.TimeLimitMinutes*60 - int(s.clock.Now().Sub(startedAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	sess := session.New(s.clock, s.log)
	sess.OnExpire(func() { s.autoSubmit(providerID, sess) })
	if err := sess.Resume(test, answers, remaining, startedAt); err != nil {
		return nil, err
	}
	if err := s.manager.Put(providerID, sess); err != nil {
		sess.Teardown()
		return nil, err
	}

	s.log.Info().
		Int("provider_id", providerID).
		Str("test_id", testID).
		Int("remaining_seconds", remaining).
		Msg("Attempt session rebuilt")
	return &AttemptView{Payload: model.PayloadFor(test), State: sess.State()}, nil
}

// loadAutosavedAnswers reads the autosave hash, falling back to the
// durable attempt_answers rows when Redis is cold.
func (s *AttemptService) loadAutosavedAnswers(ctx context.Context, testID uuid.UUID, providerID int) []model.Answer {
	fields, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(testID.String(), providerID)).Result()
	if err == nil && len(fields) > 0 {
		answers := make([]model.Answer, 0, len(fields))
		for _, raw := range fields {
			var a model.Answer
			if jerr := json.Unmarshal([]byte(raw), &a); jerr != nil {
				s.log.Warn().Err(jerr).Msg("Skipping corrupt autosaved answer")
				continue
			}
			answers = append(answers, a)
		}
		return answers
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Autosave hash read failed, falling back to database")
	}

	answers, err := s.attempts.ListAnswers(ctx, testID, providerID)
	if err != nil {
		s.log.Warn().Err(err).Msg("Durable answer load failed, resuming with empty answers")
		return nil
	}
	return answers
}

// Session returns the provider's live session, rebuilding it from
// persisted state when the process restarted mid-attempt.
func (s *AttemptService) Session(ctx context.Context, providerID int) (*session.Session, error) {
	if sess, ok := s.manager.Get(providerID); ok {
		return sess, nil
	}

	attempt, err := s.attempts.GetActiveByProvider(ctx, providerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.resume(ctx, providerID, attempt); err != nil {
		return nil, err
	}
	sess, ok := s.manager.Get(providerID)
	if !ok {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// State returns the current attempt view for the provider.
func (s *AttemptService) State(ctx context.Context, providerID int) (*AttemptView, error) {
	sess, err := s.Session(ctx, providerID)
	if err != nil {
		return nil, err
	}
	test := sess.Test()
	if test == nil {
		return nil, ErrNoActiveSession
	}
	return &AttemptView{Payload: model.PayloadFor(test), State: sess.State()}, nil
}

// RecordAnswer saves an answer into the session and the Redis fast lane.
// The durable write happens asynchronously via the answer worker; a Redis
// outage degrades autosave but never fails the request, since the session
// remains the in-flight source of truth.
func (s *AttemptService) RecordAnswer(ctx context.Context, providerID int, req *model.RecordAnswerRequest) error {
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return fmt.Errorf("invalid question id: %w", err)
	}

	sess, err := s.Session(ctx, providerID)
	if err != nil {
		return err
	}
	if err := sess.RecordAnswer(questionID, req.Value, req.Values); err != nil {
		return err
	}

	testID := sess.Test().ID
	answerJSON, err := json.Marshal(&model.Answer{
		QuestionID: questionID,
		Value:      req.Value,
		Values:     req.Values,
	})
	if err != nil {
		return err
	}
	taskJSON, err := json.Marshal(&model.AnswerTask{
		TestID:     testID,
		ProviderID: providerID,
		QuestionID: questionID,
		Answer:     answerJSON,
	})
	if err != nil {
		return err
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, config.CacheKey.AttemptAnswersKey(testID.String(), providerID), questionID.String(), answerJSON)
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, taskJSON)
	if _, perr := pipe.Exec(ctx); perr != nil {
		s.log.Warn().Err(perr).Int("provider_id", providerID).Msg("Answer autosave degraded")
	}
	return nil
}

// Advance moves to the next question. On the last question it triggers
// the submission pipeline instead and reports that it did.
func (s *AttemptService) Advance(ctx context.Context, providerID int) (submitted bool, err error) {
	sess, err := s.Session(ctx, providerID)
	if err != nil {
		return false, err
	}
	submit, err := sess.Advance()
	if err != nil {
		return false, err
	}
	if !submit {
		return false, nil
	}
	return true, s.submit(ctx, providerID, sess)
}

// GoBack moves to the previous question.
func (s *AttemptService) GoBack(ctx context.Context, providerID int) error {
	sess, err := s.Session(ctx, providerID)
	if err != nil {
		return err
	}
	return sess.GoBack()
}

// Submit runs the submission pipeline for a manual submit or a retry
// after SUBMIT_FAILED.
func (s *AttemptService) Submit(ctx context.Context, providerID int) error {
	sess, err := s.Session(ctx, providerID)
	if err != nil {
		return err
	}
	return s.submit(ctx, providerID, sess)
}

// submit is the single submission pipeline shared by manual submits,
// retries, and timer expiry. BeginSubmit's state guard makes concurrent
// callers harmless: the loser gets ErrSubmitInFlight, reported as nil.
func (s *AttemptService) submit(ctx context.Context, providerID int, sess *session.Session) error {
	snap, err := sess.BeginSubmit()
	if errors.Is(err, session.ErrSubmitInFlight) {
		return nil
	}
	if err != nil {
		return err
	}

	result, err := s.grader.SubmitAttempt(ctx, grading.AttemptSubmission{
		TestID:           snap.TestID,
		ProviderID:       providerID,
		Answers:          snap.Answers,
		TimeSpentMinutes: snap.TimeSpentMinutes,
	})
	if err != nil {
		sess.FailSubmit(err)
		return err
	}
	if err := sess.CompleteSubmit(result); err != nil {
		return err
	}

	taskJSON, merr := json.Marshal(&model.ResultTask{
		TestID:           snap.TestID,
		ProviderID:       providerID,
		Score:            result.Score,
		Passed:           result.Passed,
		TimeSpentMinutes: result.TimeSpentMinutes,
		FinishedAt:       s.clock.Now(),
	})
	if merr != nil {
		return merr
	}
	if perr := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, taskJSON).Err(); perr != nil {
		s.log.Error().Err(perr).Int("provider_id", providerID).Msg("Failed to enqueue graded result")
	}
	return nil
}

// autoSubmit is the countdown expiry hook. It runs outside any request,
// so failures only land in the session state and the log; the provider
// sees SUBMIT_FAILED on the next state fetch and can retry.
func (s *AttemptService) autoSubmit(providerID int, sess *session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.submit(ctx, providerID, sess); err != nil {
		s.log.Error().Err(err).Int("provider_id", providerID).Msg("Auto-submit failed")
	}
}

// Result returns the grading result of a completed attempt.
func (s *AttemptService) Result(ctx context.Context, providerID int) (*model.Result, error) {
	sess, ok := s.manager.Get(providerID)
	if !ok {
		return nil, ErrNoActiveSession
	}
	return sess.Result()
}

// Dismiss releases a finished session after the provider viewed the
// result, clearing the active-attempt pointer. The graded outcome is
// already durable via the result worker.
func (s *AttemptService) Dismiss(ctx context.Context, providerID int) error {
	sess, ok := s.manager.Get(providerID)
	if !ok {
		return ErrNoActiveSession
	}
	if sess.Status().Active() {
		return fmt.Errorf("%w: dismiss while %s", session.ErrInvalidStateTransition, sess.Status())
	}
	s.manager.Release(providerID)
	if err := s.rdb.Del(ctx, config.CacheKey.ProviderActiveAttemptKey(providerID)).Err(); err != nil {
		s.log.Warn().Err(err).Int("provider_id", providerID).Msg("Failed to clear active attempt pointer")
	}
	return nil
}

// ListResults returns a page of attempts for one test, for catalog
// administration.
func (s *AttemptService) ListResults(ctx context.Context, testID uuid.UUID, page, perPage int) ([]model.Attempt, int, error) {
	if _, err := s.catalog.GetByID(ctx, testID); err != nil {
		return nil, 0, err
	}
	return s.attempts.ListByTest(ctx, testID, page, perPage)
}
