package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

// Domain errors.
var (
	// ErrInvalidStateTransition signals a state-changing call outside its
	// valid source state. Always a wiring defect in the caller; it is
	// returned loudly, never swallowed into a silent no-op.
	ErrInvalidStateTransition = errors.New("invalid session state transition")

	// ErrSubmitInFlight is returned by BeginSubmit when a submission has
	// already won the race (status SUBMITTING or COMPLETED). Callers treat
	// it as a benign no-op: first submit wins.
	ErrSubmitInFlight = errors.New("submission already in flight or settled")

	// ErrUnknownQuestion signals an answer for a question that is not part
	// of the session's test.
	ErrUnknownQuestion = errors.New("question does not belong to this test")

	// ErrNoResult signals a result read before the session completed.
	ErrNoResult = errors.New("session has no result yet")
)

// Snapshot is the immutable submission payload taken when a session
// enters SUBMITTING. Answers are ordered by question position. A retry
// after SUBMIT_FAILED re-sends the same accumulated answers.
type Snapshot struct {
	TestID           uuid.UUID
	Answers          []model.Answer
	TimeSpentMinutes float64
}

// State is a read-only view of the session for API responses.
type State struct {
	Status               model.SessionStatus `json:"status"`
	TestID               uuid.UUID           `json:"test_id"`
	CurrentQuestionIndex int                 `json:"current_question_index"`
	RemainingSeconds     int                 `json:"remaining_seconds"`
	Answers              []model.Answer      `json:"answers"`
	SubmitError          string              `json:"submit_error,omitempty"`
	Result               *model.Result       `json:"result,omitempty"`
	StartedAt            time.Time           `json:"started_at,omitempty"`
}

// Session drives one provider's attempt at a single test: BROWSING →
// IN_PROGRESS → SUBMITTING → COMPLETED, with SUBMIT_FAILED as the
// retryable branch. All methods are safe for concurrent use; the mutex
// serializes user events, countdown ticks, and grading callbacks.
type Session struct {
	mu    sync.Mutex
	clock Clock
	log   zerolog.Logger

	status          model.SessionStatus
	test            *model.Test
	index           int
	answers         map[uuid.UUID]*model.Answer
	remaining       int
	startedAt       time.Time
	questionShownAt time.Time
	result          *model.Result
	submitErr       error

	countdown *Countdown

	// onExpire is invoked exactly once, from the countdown goroutine, when
	// remaining reaches zero. It must route into the submit pipeline.
	onExpire func()
	// onTick receives the remaining seconds after every decrement.
	onTick func(remaining int)
}

// New creates a session in BROWSING state.
func New(clock Clock, log zerolog.Logger) *Session {
	return &Session{
		clock:   clock,
		log:     log.With().Str("component", "session").Logger(),
		status:  model.SessionStatusBrowsing,
		answers: make(map[uuid.UUID]*model.Answer),
	}
}

// OnExpire registers the auto-submit hook. Set before StartTest.
func (s *Session) OnExpire(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// OnTick registers a listener for countdown updates (e.g. a WebSocket
// pusher). Pass nil to detach.
func (s *Session) OnTick(fn func(remaining int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTick = fn
}

// StartTest transitions BROWSING → IN_PROGRESS: empty answers, index 0,
// full time limit, countdown running.
func (s *Session) StartTest(test *model.Test) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusBrowsing {
		return fmt.Errorf("%w: start from %s", ErrInvalidStateTransition, s.status)
	}
	if len(test.Questions) == 0 {
		return errors.New("test has no questions")
	}

	s.test = test
	s.index = 0
	s.answers = make(map[uuid.UUID]*model.Answer, len(test.Questions))
	s.remaining = test.TimeLimitMinutes * 60
	s.startedAt = s.clock.Now()
	s.questionShownAt = s.startedAt
	s.status = model.SessionStatusInProgress

	s.startCountdownLocked()

	s.log.Info().
		Str("test_id", test.ID.String()).
		Int("questions", len(test.Questions)).
		Int("remaining_seconds", s.remaining).
		Msg("Attempt started")
	return nil
}

// Resume rebuilds an IN_PROGRESS session from persisted state after a
// process restart: previously autosaved answers, the recomputed remaining
// time, and the original start timestamp. The current question becomes the
// first unanswered one.
func (s *Session) Resume(test *model.Test, answers []model.Answer, remainingSeconds int, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusBrowsing {
		return fmt.Errorf("%w: resume from %s", ErrInvalidStateTransition, s.status)
	}
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}

	s.test = test
	s.answers = make(map[uuid.UUID]*model.Answer, len(test.Questions))
	for i := range answers {
		a := answers[i]
		if test.QuestionByID(a.QuestionID) == nil {
			continue
		}
		s.answers[a.QuestionID] = &a
	}
	s.index = 0
	for i := range test.Questions {
		if _, ok := s.answers[test.Questions[i].ID]; !ok {
			s.index = i
			break
		}
	}
	s.remaining = remainingSeconds
	s.startedAt = startedAt
	s.questionShownAt = s.clock.Now()
	s.status = model.SessionStatusInProgress

	s.startCountdownLocked()

	s.log.Info().
		Str("test_id", test.ID.String()).
		Int("answers", len(s.answers)).
		Int("remaining_seconds", s.remaining).
		Msg("Attempt resumed")

	if s.remaining == 0 {
		// Time ran out while the session was offline; submit immediately.
		go s.expire()
	}
	return nil
}

func (s *Session) startCountdownLocked() {
	s.countdown = newCountdown(s.clock)
	s.countdown.Start(s.handleTick)
}

// handleTick runs in the countdown goroutine once per second. Returning
// false ends the countdown loop.
func (s *Session) handleTick() bool {
	s.mu.Lock()
	if s.status != model.SessionStatusInProgress {
		// A stray tick after submission must never submit twice.
		s.mu.Unlock()
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	remaining := s.remaining
	listener := s.onTick
	s.mu.Unlock()

	if listener != nil {
		listener(remaining)
	}
	if remaining == 0 {
		s.expire()
		return false
	}
	return true
}

// expire fires the auto-submit hook. State guards in BeginSubmit make the
// race with a concurrent manual submit harmless: first one wins.
func (s *Session) expire() {
	s.mu.Lock()
	fn := s.onExpire
	inProgress := s.status == model.SessionStatusInProgress
	s.mu.Unlock()

	if inProgress && fn != nil {
		s.log.Info().Msg("Time limit reached, auto-submitting")
		fn()
	}
}

// RecordAnswer upserts the answer for a question. Valid only while
// IN_PROGRESS; the value shape is validated against the question variant.
// The current question index is not changed.
func (s *Session) RecordAnswer(questionID uuid.UUID, value string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return fmt.Errorf("%w: record answer while %s", ErrInvalidStateTransition, s.status)
	}

	q := s.test.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	ans := &model.Answer{QuestionID: questionID, Value: value, Values: values}
	if err := q.ValidateAnswer(ans); err != nil {
		return err
	}

	if prev, ok := s.answers[questionID]; ok {
		ans.TimeSpentSeconds = prev.TimeSpentSeconds
	}
	s.answers[questionID] = ans
	return nil
}

// Advance finalizes time spent on the current question and moves to the
// next one. On the last question it does not move; it reports that the
// caller must submit instead.
func (s *Session) Advance() (submit bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return false, fmt.Errorf("%w: advance while %s", ErrInvalidStateTransition, s.status)
	}

	s.finalizeTimeSpentLocked()

	if s.index == len(s.test.Questions)-1 {
		return true, nil
	}
	s.index++
	s.questionShownAt = s.clock.Now()
	return false, nil
}

// GoBack moves to the previous question. A no-op at index 0; an existing
// answer is not required.
func (s *Session) GoBack() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusInProgress {
		return fmt.Errorf("%w: go back while %s", ErrInvalidStateTransition, s.status)
	}
	if s.index == 0 {
		return nil
	}

	s.finalizeTimeSpentLocked()
	s.index--
	s.questionShownAt = s.clock.Now()
	return nil
}

// finalizeTimeSpentLocked accumulates elapsed display time into the
// current question's answer, if one was recorded.
func (s *Session) finalizeTimeSpentLocked() {
	q := &s.test.Questions[s.index]
	ans, ok := s.answers[q.ID]
	if !ok {
		return
	}
	elapsed := int(s.clock.Now().Sub(s.questionShownAt).Seconds())
	if elapsed > 0 {
		ans.TimeSpentSeconds += elapsed
	}
}

// BeginSubmit transitions IN_PROGRESS or SUBMIT_FAILED → SUBMITTING, stops
// the countdown, and snapshots the accumulated answers in question order.
// While SUBMITTING or COMPLETED it returns ErrSubmitInFlight so that a
// timer-triggered and a user-triggered submit can never both run.
func (s *Session) BeginSubmit() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case model.SessionStatusInProgress:
		s.finalizeTimeSpentLocked()
	case model.SessionStatusSubmitFailed:
		// Retry path: same accumulated answers, timer already stopped.
	case model.SessionStatusSubmitting, model.SessionStatusCompleted:
		return nil, ErrSubmitInFlight
	default:
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidStateTransition, s.status)
	}

	s.status = model.SessionStatusSubmitting
	s.submitErr = nil
	if s.countdown != nil {
		s.countdown.Stop()
	}

	snap := &Snapshot{
		TestID:           s.test.ID,
		Answers:          s.orderedAnswersLocked(),
		TimeSpentMinutes: s.clock.Now().Sub(s.startedAt).Minutes(),
	}
	return snap, nil
}

// CompleteSubmit records the grading result: SUBMITTING → COMPLETED.
func (s *Session) CompleteSubmit(result *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusSubmitting {
		return fmt.Errorf("%w: complete submit from %s", ErrInvalidStateTransition, s.status)
	}
	s.status = model.SessionStatusCompleted
	s.result = result
	s.log.Info().
		Float64("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Attempt completed")
	return nil
}

// FailSubmit records a grading failure: SUBMITTING → SUBMIT_FAILED. The
// answers stay untouched so Submit can be retried without data loss.
func (s *Session) FailSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != model.SessionStatusSubmitting {
		return
	}
	s.status = model.SessionStatusSubmitFailed
	s.submitErr = err
	s.log.Warn().Err(err).Msg("Submission failed, attempt is retryable")
}

// Teardown cancels the countdown without changing state. Used when the
// owning process discards the session.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown != nil {
		s.countdown.Stop()
	}
}

// Status returns the current session status.
func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Test returns the test under attempt, or nil while BROWSING.
func (s *Session) Test() *model.Test {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test
}

// Result returns the grading result once COMPLETED.
func (s *Session) Result() (*model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != model.SessionStatusCompleted || s.result == nil {
		return nil, ErrNoResult
	}
	return s.result, nil
}

// State returns a read-only view of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Status:               s.status,
		CurrentQuestionIndex: s.index,
		RemainingSeconds:     s.remaining,
		StartedAt:            s.startedAt,
		Result:               s.result,
	}
	if s.test != nil {
		st.TestID = s.test.ID
		st.Answers = s.orderedAnswersLocked()
	}
	if s.submitErr != nil {
		st.SubmitError = s.submitErr.Error()
	}
	return st
}

// orderedAnswersLocked returns recorded answers in question order.
func (s *Session) orderedAnswersLocked() []model.Answer {
	out := make([]model.Answer, 0, len(s.answers))
	for i := range s.test.Questions {
		if a, ok := s.answers[s.test.Questions[i].ID]; ok {
			out = append(out, *a)
		}
	}
	return out
}
