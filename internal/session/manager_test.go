package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

func activeSession(t *testing.T) *Session {
	t.Helper()
	s := New(newFakeClock(), zerolog.Nop())
	if err := s.StartTest(twoQuestionTest()); err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	return s
}

func TestManagerRejectsSecondActiveSession(t *testing.T) {
	m := NewManager()
	defer m.TeardownAll()

	first := activeSession(t)
	if err := m.Put(7, first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := m.Put(7, activeSession(t)); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Put over active session = %v, want ErrSessionActive", err)
	}

	got, ok := m.Get(7)
	if !ok || got != first {
		t.Error("original session was displaced")
	}

	// A different provider is unaffected.
	if err := m.Put(8, activeSession(t)); err != nil {
		t.Errorf("Put for other provider: %v", err)
	}
}

func TestManagerReplacesFinishedSession(t *testing.T) {
	m := NewManager()
	defer m.TeardownAll()

	finished := activeSession(t)
	if _, err := finished.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if err := finished.CompleteSubmit(&model.Result{Score: 80, Passed: true}); err != nil {
		t.Fatalf("CompleteSubmit: %v", err)
	}
	if err := m.Put(7, finished); err != nil {
		t.Fatalf("Put: %v", err)
	}

	replacement := activeSession(t)
	if err := m.Put(7, replacement); err != nil {
		t.Fatalf("Put over completed session = %v, want nil", err)
	}
	got, _ := m.Get(7)
	if got != replacement {
		t.Error("completed session was not replaced")
	}
}

func TestManagerRelease(t *testing.T) {
	m := NewManager()
	defer m.TeardownAll()

	if err := m.Put(7, activeSession(t)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	m.Release(7)
	if _, ok := m.Get(7); ok {
		t.Error("session still present after Release")
	}

	// Releasing an absent provider is a no-op.
	m.Release(99)
}
