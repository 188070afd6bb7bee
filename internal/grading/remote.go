package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/model"
)

// RemoteGrader submits attempts to an external grading service over
// JSON/HTTP, for deployments where scoring (e.g. code execution) lives in
// a separate system. Failures are wrapped in ErrSubmissionFailed; the
// caller retries with the same payload.
type RemoteGrader struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewRemoteGrader creates a grading client for the given base URL.
func NewRemoteGrader(baseURL string, timeout time.Duration, log zerolog.Logger) *RemoteGrader {
	return &RemoteGrader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "remote_grader").Logger(),
	}
}

// SubmitAttempt POSTs the submission and decodes the result.
func (g *RemoteGrader) SubmitAttempt(ctx context.Context, sub AttemptSubmission) (*model.Result, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal submission: %v", ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/grade", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.log.Warn().Int("status", resp.StatusCode).Msg("Grading service rejected submission")
		return nil, fmt.Errorf("%w: grading service returned %d", ErrSubmissionFailed, resp.StatusCode)
	}

	var result model.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", ErrSubmissionFailed, err)
	}
	return &result, nil
}
