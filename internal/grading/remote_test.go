package grading

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

func TestRemoteGraderSubmitsAndDecodes(t *testing.T) {
	testID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/grade" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var sub AttemptSubmission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			t.Errorf("decode submission: %v", err)
		}
		if sub.TestID != testID || sub.ProviderID != 42 {
			t.Errorf("submission = %+v", sub)
		}
		json.NewEncoder(w).Encode(model.Result{Score: 85, Passed: true})
	}))
	defer srv.Close()

	grader := NewRemoteGrader(srv.URL, 5*time.Second, zerolog.Nop())
	result, err := grader.SubmitAttempt(context.Background(), AttemptSubmission{
		TestID:     testID,
		ProviderID: 42,
	})
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Score != 85 || !result.Passed {
		t.Errorf("result = %+v", result)
	}
}

func TestRemoteGraderWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	grader := NewRemoteGrader(srv.URL, 5*time.Second, zerolog.Nop())
	_, err := grader.SubmitAttempt(context.Background(), AttemptSubmission{TestID: uuid.New()})
	if !errors.Is(err, ErrSubmissionFailed) {
		t.Errorf("err = %v, want ErrSubmissionFailed", err)
	}

	// Unreachable host: transport errors wrap the same sentinel so the
	// session's retry path treats them alike.
	down := NewRemoteGrader("http://127.0.0.1:1", time.Second, zerolog.Nop())
	if _, err := down.SubmitAttempt(context.Background(), AttemptSubmission{}); !errors.Is(err, ErrSubmissionFailed) {
		t.Errorf("transport err = %v, want ErrSubmissionFailed", err)
	}
}
