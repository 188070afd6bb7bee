package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/servimatch/skilltest-backend/internal/model"
)

// TestRepository handles skill test and question data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// Create inserts a test and its questions in a single transaction.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO tests (service_id, level, title, time_limit_minutes, passing_score_percent, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		t.ServiceID, t.Level, t.Title, t.TimeLimitMinutes, t.PassingScorePercent, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert test: %w", err)
	}

	for i := range t.Questions {
		q := &t.Questions[i]
		q.TestID = t.ID

		options, err := marshalOrNil(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		correct, err := marshalOrNil(q.CorrectAnswers)
		if err != nil {
			return fmt.Errorf("marshal correct answers: %w", err)
		}
		cases, err := marshalOrNil(q.TestCases)
		if err != nil {
			return fmt.Errorf("marshal test cases: %w", err)
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO questions
			 (test_id, question_type, question_text, points, options, correct_answers,
			  code_template, code_solution, expected_output, test_cases, explanation, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING id`,
			q.TestID, q.Type, q.Text, q.Points, options, correct,
			q.CodeTemplate, q.CodeSolution, q.ExpectedOutput, cases, q.Explanation, q.OrderNum,
		).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a test with its questions, strictly decoded.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t := &model.Test{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, service_id, level, title, time_limit_minutes, passing_score_percent, status, created_at, updated_at
		 FROM tests WHERE id = $1`, id,
	).Scan(&t.ID, &t.ServiceID, &t.Level, &t.Title, &t.TimeLimitMinutes,
		&t.PassingScorePercent, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	questions, err := r.listQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Questions = questions
	return t, nil
}

// FindPublishedIDForService returns the ID of the most recently published
// test for a service category and level. pgx.ErrNoRows when none exists.
// The full test is then served from the Redis fast lane.
func (r *TestRepository) FindPublishedIDForService(ctx context.Context, serviceID uuid.UUID, level string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM tests
		 WHERE service_id = $1 AND level = $2 AND status = $3
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		serviceID, level, model.TestStatusPublished,
	).Scan(&id)
	return id, err
}

// ListPublished retrieves all published tests without their questions.
func (r *TestRepository) ListPublished(ctx context.Context) ([]model.Test, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, service_id, level, title, time_limit_minutes, passing_score_percent, status, created_at, updated_at
		 FROM tests WHERE status = $1`, model.TestStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		var t model.Test
		if err := rows.Scan(&t.ID, &t.ServiceID, &t.Level, &t.Title, &t.TimeLimitMinutes,
			&t.PassingScorePercent, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// UpdateStatus changes a test's catalog status.
func (r *TestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TestStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tests SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// listQuestions loads and decodes a test's questions in display order.
// A row that fails the strict decode fails the whole load: a malformed
// question must never reach a session.
func (r *TestRepository) listQuestions(ctx context.Context, testID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, question_type, question_text, points, options, correct_answers,
		        code_template, code_solution, expected_output, test_cases, explanation, order_num
		 FROM questions WHERE test_id = $1 ORDER BY order_num ASC`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var rec model.QuestionRecord
		var options, correct, cases []byte
		var codeTemplate, codeSolution, expectedOutput, explanation *string

		if err := rows.Scan(&rec.ID, &rec.TestID, &rec.Type, &rec.Text, &rec.Points,
			&options, &correct, &codeTemplate, &codeSolution, &expectedOutput,
			&cases, &explanation, &rec.OrderNum); err != nil {
			return nil, err
		}

		rec.Options = options
		rec.CorrectAnswers = correct
		rec.TestCases = cases
		rec.CodeTemplate = deref(codeTemplate)
		rec.CodeSolution = deref(codeSolution)
		rec.ExpectedOutput = deref(expectedOutput)
		rec.Explanation = deref(explanation)

		q, err := rec.Decode()
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", testID, err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func marshalOrNil(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case []string:
		if t == nil {
			return nil, nil
		}
	case []model.TestCase:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
