package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

func twoQuestionTest() *model.Test {
	return &model.Test{
		ID:                  uuid.New(),
		ServiceID:           uuid.New(),
		Level:               "intermediate",
		Title:               "Plumbing Basics",
		TimeLimitMinutes:    1,
		PassingScorePercent: 50,
		Questions: []model.Question{
			{
				ID:             uuid.New(),
				Type:           model.QuestionTypeSingleChoice,
				Text:           "Pick one",
				Points:         10,
				Options:        []string{"a", "b", "c"},
				CorrectAnswers: []string{"b"},
				OrderNum:       0,
			},
			{
				ID:       uuid.New(),
				Type:     model.QuestionTypeCodeWriting,
				Text:     "Write code",
				Points:   20,
				OrderNum: 1,
			},
		},
	}
}

func newTestSession(t *testing.T) (*Session, *fakeClock, *model.Test) {
	t.Helper()
	clock := newFakeClock()
	s := New(clock, zerolog.Nop())
	test := twoQuestionTest()
	return s, clock, test
}

func completeInline(s *Session) func() {
	return func() {
		if _, err := s.BeginSubmit(); err != nil {
			return
		}
		s.CompleteSubmit(&model.Result{Score: 100, Passed: true})
	}
}

func TestStartTest(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}

	st := s.State()
	if st.Status != model.SessionStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", st.Status)
	}
	if st.CurrentQuestionIndex != 0 {
		t.Errorf("index = %d, want 0", st.CurrentQuestionIndex)
	}
	if st.RemainingSeconds != 60 {
		t.Errorf("remaining = %d, want 60", st.RemainingSeconds)
	}
	if len(st.Answers) != 0 {
		t.Errorf("answers = %d, want 0", len(st.Answers))
	}
}

func TestStartTestRequiresBrowsing(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	if err := s.StartTest(test); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("second StartTest = %v, want ErrInvalidStateTransition", err)
	}
}

func TestRecordAnswer(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	q0 := test.Questions[0].ID
	if err := s.RecordAnswer(q0, "b", nil); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("record while BROWSING = %v, want ErrInvalidStateTransition", err)
	}

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}

	if err := s.RecordAnswer(uuid.New(), "b", nil); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("unknown question = %v, want ErrUnknownQuestion", err)
	}
	if err := s.RecordAnswer(q0, "", []string{"a", "b"}); !errors.Is(err, model.ErrAnswerShape) {
		t.Errorf("value-set for single choice = %v, want ErrAnswerShape", err)
	}
	if err := s.RecordAnswer(q0, "z", nil); !errors.Is(err, model.ErrAnswerShape) {
		t.Errorf("non-option value = %v, want ErrAnswerShape", err)
	}

	if err := s.RecordAnswer(q0, "a", nil); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	// Overwrite is allowed; the index does not move.
	if err := s.RecordAnswer(q0, "b", nil); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	st := s.State()
	if st.CurrentQuestionIndex != 0 {
		t.Errorf("index moved to %d on record", st.CurrentQuestionIndex)
	}
	if len(st.Answers) != 1 || st.Answers[0].Value != "b" {
		t.Errorf("answers = %+v, want single value b", st.Answers)
	}
}

func TestAdvanceAndGoBack(t *testing.T) {
	s, clock, test := newTestSession(t)
	defer s.Teardown()

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	if err := s.GoBack(); err != nil {
		t.Fatalf("GoBack at first question should be a no-op, got %v", err)
	}
	if s.State().CurrentQuestionIndex != 0 {
		t.Error("GoBack at index 0 moved the index")
	}

	q0 := test.Questions[0].ID
	if err := s.RecordAnswer(q0, "b", nil); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	clock.Advance(30 * time.Second)

	submit, err := s.Advance()
	if err != nil || submit {
		t.Fatalf("Advance = (%v, %v), want (false, nil)", submit, err)
	}
	if got := s.State().CurrentQuestionIndex; got != 1 {
		t.Errorf("index = %d, want 1", got)
	}

	// Display time was accumulated into the recorded answer.
	if got := s.State().Answers[0].TimeSpentSeconds; got != 30 {
		t.Errorf("time spent = %d, want 30", got)
	}

	// Last question: Advance signals submission instead of moving.
	submit, err = s.Advance()
	if err != nil || !submit {
		t.Fatalf("Advance on last = (%v, %v), want (true, nil)", submit, err)
	}
	if got := s.State().CurrentQuestionIndex; got != 1 {
		t.Errorf("index moved to %d on last-question advance", got)
	}

	if err := s.GoBack(); err != nil {
		t.Fatalf("GoBack: %v", err)
	}
	if got := s.State().CurrentQuestionIndex; got != 0 {
		t.Errorf("index = %d after GoBack, want 0", got)
	}

	// Re-recording preserves accumulated time.
	if err := s.RecordAnswer(q0, "a", nil); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if got := s.State().Answers[0].TimeSpentSeconds; got != 30 {
		t.Errorf("time spent after re-record = %d, want 30", got)
	}
}

func TestSubmitLifecycle(t *testing.T) {
	s, clock, test := newTestSession(t)
	defer s.Teardown()

	if _, err := s.BeginSubmit(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("BeginSubmit while BROWSING = %v, want ErrInvalidStateTransition", err)
	}

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	q0 := test.Questions[0].ID
	if err := s.RecordAnswer(q0, "b", nil); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	clock.Advance(90 * time.Second)

	snap, err := s.BeginSubmit()
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if snap.TestID != test.ID {
		t.Errorf("snapshot test id = %s, want %s", snap.TestID, test.ID)
	}
	if len(snap.Answers) != 1 || snap.Answers[0].QuestionID != q0 {
		t.Errorf("snapshot answers = %+v", snap.Answers)
	}
	if snap.TimeSpentMinutes != 1.5 {
		t.Errorf("time spent = %v minutes, want 1.5", snap.TimeSpentMinutes)
	}

	// First submit wins: a concurrent caller gets a benign sentinel.
	if _, err := s.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("BeginSubmit while SUBMITTING = %v, want ErrSubmitInFlight", err)
	}

	// Answers are frozen once submitting.
	if err := s.RecordAnswer(q0, "a", nil); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("record while SUBMITTING = %v, want ErrInvalidStateTransition", err)
	}

	result := &model.Result{Score: 100, Passed: true}
	if err := s.CompleteSubmit(result); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}
	if s.Status() != model.SessionStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", s.Status())
	}
	got, err := s.Result()
	if err != nil || got != result {
		t.Errorf("Result = (%+v, %v)", got, err)
	}
	if _, err := s.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("BeginSubmit while COMPLETED = %v, want ErrSubmitInFlight", err)
	}
}

func TestFailSubmitKeepsAnswersForRetry(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	q0 := test.Questions[0].ID
	if err := s.RecordAnswer(q0, "c", nil); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	first, err := s.BeginSubmit()
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}

	s.FailSubmit(errors.New("grading unavailable"))
	st := s.State()
	if st.Status != model.SessionStatusSubmitFailed {
		t.Fatalf("status = %s, want SUBMIT_FAILED", st.Status)
	}
	if st.SubmitError == "" {
		t.Error("submit error not surfaced in state")
	}
	if _, err := s.Result(); !errors.Is(err, ErrNoResult) {
		t.Errorf("Result after failure = %v, want ErrNoResult", err)
	}

	// Retry re-sends the same accumulated answers.
	retry, err := s.BeginSubmit()
	if err != nil {
		t.Fatalf("retry BeginSubmit: %v", err)
	}
	if len(retry.Answers) != len(first.Answers) || retry.Answers[0].Value != first.Answers[0].Value {
		t.Errorf("retry snapshot %+v differs from first %+v", retry.Answers, first.Answers)
	}
	if err := s.CompleteSubmit(&model.Result{Score: 0}); err != nil {
		t.Fatalf("CompleteSubmit after retry: %v", err)
	}
}

func TestCountdownExpiryAutoSubmits(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	s.OnExpire(completeInline(s))

	var seen []int
	s.OnTick(func(remaining int) { seen = append(seen, remaining) })

	if err := s.StartTest(test); err != nil {
		t.Fatalf("StartTest: %v", err)
	}

	// Drive a full minute of ticks directly.
	for i := 0; i < 60; i++ {
		cont := s.handleTick()
		if i < 59 && !cont {
			t.Fatalf("countdown ended early at tick %d", i)
		}
		if i == 59 && cont {
			t.Fatal("countdown kept running after expiry")
		}
	}

	if len(seen) != 60 {
		t.Fatalf("tick listener fired %d times, want 60", len(seen))
	}
	for i, r := range seen {
		if r != 59-i {
			t.Fatalf("tick %d reported %d remaining, want %d", i, r, 59-i)
		}
	}

	if s.Status() != model.SessionStatusCompleted {
		t.Errorf("status = %s, want COMPLETED after expiry", s.Status())
	}
	if got := s.State().RemainingSeconds; got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}

	// Stray ticks after completion must be inert.
	if s.handleTick() {
		t.Error("stray tick continued the countdown")
	}
	if got := s.State().RemainingSeconds; got != 0 {
		t.Errorf("remaining went to %d after stray tick", got)
	}
}

func TestResume(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	q0 := test.Questions[0].ID
	saved := []model.Answer{
		{QuestionID: q0, Value: "b", TimeSpentSeconds: 12},
		{QuestionID: uuid.New(), Value: "stale"}, // Not part of the test; dropped.
	}
	startedAt := time.Date(2026, 1, 15, 8, 59, 0, 0, time.UTC)

	if err := s.Resume(test, saved, 42, startedAt); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	st := s.State()
	if st.Status != model.SessionStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", st.Status)
	}
	if st.RemainingSeconds != 42 {
		t.Errorf("remaining = %d, want 42", st.RemainingSeconds)
	}
	if !st.StartedAt.Equal(startedAt) {
		t.Errorf("started at = %v, want %v", st.StartedAt, startedAt)
	}
	if len(st.Answers) != 1 || st.Answers[0].TimeSpentSeconds != 12 {
		t.Errorf("answers = %+v, want the single saved answer", st.Answers)
	}
	// Current question is the first unanswered one.
	if st.CurrentQuestionIndex != 1 {
		t.Errorf("index = %d, want 1", st.CurrentQuestionIndex)
	}
}

func TestResumeWithNoTimeLeftSubmitsImmediately(t *testing.T) {
	s, _, test := newTestSession(t)
	defer s.Teardown()

	done := make(chan struct{})
	s.OnExpire(func() {
		completeInline(s)()
		close(done)
	})

	if err := s.Resume(test, nil, -5, time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expiry hook not fired for a resumed session with no time left")
	}
	if s.Status() != model.SessionStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", s.Status())
	}
	if got := s.State().RemainingSeconds; got != 0 {
		t.Errorf("remaining = %d, want clamped 0", got)
	}
}
