package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/servimatch/skilltest-backend/internal/model"
)

// AttemptRepository handles attempt and autosaved answer persistence.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create inserts a new attempt row. The (test_id, provider_id) pair is
// unique; a conflicting insert returns pgx.ErrNoRows so the caller can
// load the existing attempt and decide between resume and rejection.
func (r *AttemptRepository) Create(ctx context.Context, testID uuid.UUID, providerID int, startedAt time.Time) (*model.Attempt, error) {
	a := &model.Attempt{
		TestID:     testID,
		ProviderID: providerID,
		Status:     model.SessionStatusInProgress,
		StartedAt:  startedAt,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (test_id, provider_id, status, started_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (test_id, provider_id) DO NOTHING
		 RETURNING id`,
		testID, providerID, a.Status, startedAt,
	).Scan(&a.ID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByTestAndProvider loads one attempt row.
func (r *AttemptRepository) GetByTestAndProvider(ctx context.Context, testID uuid.UUID, providerID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, provider_id, status, score, passed, time_spent_minutes, started_at, finished_at
		 FROM attempts WHERE test_id = $1 AND provider_id = $2`,
		testID, providerID,
	).Scan(&a.ID, &a.TestID, &a.ProviderID, &a.Status, &a.Score, &a.Passed,
		&a.TimeSpentMinutes, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActiveByProvider returns the provider's unfinished attempt, if any.
// pgx.ErrNoRows when the provider has nothing in flight.
func (r *AttemptRepository) GetActiveByProvider(ctx context.Context, providerID int) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, provider_id, status, score, passed, time_spent_minutes, started_at, finished_at
		 FROM attempts
		 WHERE provider_id = $1 AND status = $2
		 ORDER BY started_at DESC
		 LIMIT 1`,
		providerID, model.SessionStatusInProgress,
	).Scan(&a.ID, &a.TestID, &a.ProviderID, &a.Status, &a.Score, &a.Passed,
		&a.TimeSpentMinutes, &a.StartedAt, &a.FinishedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertAnswer persists one autosaved answer. Last write wins.
func (r *AttemptRepository) UpsertAnswer(ctx context.Context, testID uuid.UUID, providerID int, questionID uuid.UUID, answer json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempt_answers (test_id, provider_id, question_id, answer, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (test_id, provider_id, question_id)
		 DO UPDATE SET answer = EXCLUDED.answer, updated_at = NOW()`,
		testID, providerID, questionID, answer,
	)
	return err
}

// ListAnswers loads the durably persisted answers for one attempt.
// Fallback source when the Redis autosave hash is gone.
func (r *AttemptRepository) ListAnswers(ctx context.Context, testID uuid.UUID, providerID int) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT answer FROM attempt_answers
		 WHERE test_id = $1 AND provider_id = $2`,
		testID, providerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var a model.Answer
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// CompletedAttempt is one graded outcome for bulk persistence.
type CompletedAttempt struct {
	TestID           uuid.UUID
	ProviderID       int
	Score            float64
	Passed           bool
	TimeSpentMinutes float64
	FinishedAt       time.Time
}

// CompleteBulk marks a batch of attempts as completed in one UNNEST
// statement. Used by the result worker to keep the write rate flat under
// submission bursts.
func (r *AttemptRepository) CompleteBulk(ctx context.Context, batch []CompletedAttempt) error {
	if len(batch) == 0 {
		return nil
	}

	testIDs := make([]uuid.UUID, len(batch))
	providerIDs := make([]int, len(batch))
	scores := make([]float64, len(batch))
	passed := make([]bool, len(batch))
	timeSpent := make([]float64, len(batch))
	finishedAt := make([]time.Time, len(batch))

	for i, c := range batch {
		testIDs[i] = c.TestID
		providerIDs[i] = c.ProviderID
		scores[i] = c.Score
		passed[i] = c.Passed
		timeSpent[i] = c.TimeSpentMinutes
		finishedAt[i] = c.FinishedAt
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE attempts AS a SET
		   status = $7,
		   score = v.score,
		   passed = v.passed,
		   time_spent_minutes = v.time_spent,
		   finished_at = v.finished_at
		 FROM (
		   SELECT UNNEST($1::uuid[]) AS test_id,
		          UNNEST($2::int[]) AS provider_id,
		          UNNEST($3::float8[]) AS score,
		          UNNEST($4::bool[]) AS passed,
		          UNNEST($5::float8[]) AS time_spent,
		          UNNEST($6::timestamptz[]) AS finished_at
		 ) AS v
		 WHERE a.test_id = v.test_id AND a.provider_id = v.provider_id`,
		testIDs, providerIDs, scores, passed, timeSpent, finishedAt,
		model.SessionStatusCompleted,
	)
	return err
}

// Complete marks a single attempt as completed. Fallback path when a
// bulk write fails and each row must be retried individually.
func (r *AttemptRepository) Complete(ctx context.Context, c CompletedAttempt) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET
		   status = $1, score = $2, passed = $3, time_spent_minutes = $4, finished_at = $5
		 WHERE test_id = $6 AND provider_id = $7`,
		model.SessionStatusCompleted, c.Score, c.Passed, c.TimeSpentMinutes, c.FinishedAt,
		c.TestID, c.ProviderID,
	)
	return err
}

// ListByTest returns a page of attempts for a test, newest first, with
// the total row count for pagination metadata.
func (r *AttemptRepository) ListByTest(ctx context.Context, testID uuid.UUID, page, perPage int) ([]model.Attempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE test_id = $1`, testID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, provider_id, status, score, passed, time_spent_minutes, started_at, finished_at
		 FROM attempts
		 WHERE test_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2 OFFSET $3`,
		testID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.TestID, &a.ProviderID, &a.Status, &a.Score, &a.Passed,
			&a.TimeSpentMinutes, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}
