package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/config"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/repository"
)

// Catalog errors.
var (
	ErrTestNotFound     = errors.New("test not found")
	ErrNoTestsAvailable = errors.New("no published test for this service and level")
	ErrTestNotDraft     = errors.New("only draft tests can be published")
	ErrNoQuestions      = errors.New("test has no questions")
)

// CatalogService manages the test catalog and its Redis fast lane. A
// published test lives in two cache entries: the provider payload
// (answers stripped) and the full answer set for the in-process grader.
type CatalogService struct {
	tests *repository.TestRepository
	rdb   *redis.Client
	log   zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(tests *repository.TestRepository, rdb *redis.Client, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		tests: tests,
		rdb:   rdb,
		log:   log.With().Str("component", "catalog_service").Logger(),
	}
}

// Create validates and stores a new test in DRAFT status. Every question
// passes the strict decode boundary before anything is written.
func (s *CatalogService) Create(ctx context.Context, req *model.CreateTestRequest) (*model.Test, error) {
	if len(req.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("invalid service id: %w", err)
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i := range req.Questions {
		q, err := req.Questions[i].ToRecord(i).Decode()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, *q)
	}

	t := &model.Test{
		ServiceID:           serviceID,
		Level:               req.Level,
		Title:               req.Title,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		PassingScorePercent: req.PassingScorePercent,
		Status:              model.TestStatusDraft,
		Questions:           questions,
	}
	if err := s.tests.Create(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("test_id", t.ID.String()).
		Str("service_id", t.ServiceID.String()).
		Str("level", t.Level).
		Int("questions", len(t.Questions)).
		Msg("Test created")
	return t, nil
}

// Publish moves a draft test to PUBLISHED and warms its caches so the
// first attempt never hits Postgres.
func (s *CatalogService) Publish(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	t, err := s.getByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TestStatusDraft {
		return nil, ErrTestNotDraft
	}
	if len(t.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.warmTestCache(ctx, t); err != nil {
		return nil, fmt.Errorf("warm cache: %w", err)
	}
	if err := s.tests.UpdateStatus(ctx, testID, model.TestStatusPublished); err != nil {
		return nil, err
	}
	t.Status = model.TestStatusPublished

	s.log.Info().Str("test_id", testID.String()).Msg("Test published")
	return t, nil
}

// Archive retires a published test and drops its caches.
func (s *CatalogService) Archive(ctx context.Context, testID uuid.UUID) error {
	t, err := s.getByID(ctx, testID)
	if err != nil {
		return err
	}
	if err := s.tests.UpdateStatus(ctx, testID, model.TestStatusArchived); err != nil {
		return err
	}
	id := t.ID.String()
	if err := s.rdb.Del(ctx,
		config.CacheKey.TestPayloadKey(id),
		config.CacheKey.TestAnswersKey(id),
	).Err(); err != nil {
		s.log.Warn().Err(err).Str("test_id", id).Msg("Failed to drop test caches")
	}
	s.log.Info().Str("test_id", id).Msg("Test archived")
	return nil
}

// GetByID loads a full test for catalog administration.
func (s *CatalogService) GetByID(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	return s.getByID(ctx, testID)
}

// FindPublishedTest returns the full published test for a service
// category and level, cache-first. Used to start attempts.
func (s *CatalogService) FindPublishedTest(ctx context.Context, serviceID uuid.UUID, level string) (*model.Test, error) {
	id, err := s.tests.FindPublishedIDForService(ctx, serviceID, level)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTestsAvailable
	}
	if err != nil {
		return nil, err
	}
	return s.GetTestWithAnswers(ctx, id)
}

// FindPublishedPayload returns the provider-facing payload for a service
// category and level, for previewing a test before starting it.
func (s *CatalogService) FindPublishedPayload(ctx context.Context, serviceID uuid.UUID, level string) (*model.TestPayload, error) {
	id, err := s.tests.FindPublishedIDForService(ctx, serviceID, level)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTestsAvailable
	}
	if err != nil {
		return nil, err
	}
	return s.GetPayload(ctx, id)
}

// GetPayload returns the provider-facing payload for a published test,
// from Redis when warm and Postgres on a miss.
func (s *CatalogService) GetPayload(ctx context.Context, testID uuid.UUID) (*model.TestPayload, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.TestPayloadKey(testID.String())).Result()
	if err == nil {
		payload := &model.TestPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err == nil {
			return payload, nil
		}
		s.log.Warn().Str("test_id", testID.String()).Msg("Corrupt payload cache entry, rebuilding")
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Msg("Payload cache read failed, falling back to database")
	}

	t, err := s.getByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if err := s.warmTestCache(ctx, t); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Failed to rewarm test cache")
	}
	return model.PayloadFor(t), nil
}

// GetTestWithAnswers returns the full test including answer data. It is
// the grading.TestSource implementation; the answers cache keeps grading
// off Postgres on the hot path.
func (s *CatalogService) GetTestWithAnswers(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.TestAnswersKey(testID.String())).Result()
	if err == nil {
		t := &model.Test{}
		if err := json.Unmarshal([]byte(raw), t); err == nil {
			return t, nil
		}
		s.log.Warn().Str("test_id", testID.String()).Msg("Corrupt answers cache entry, rebuilding")
	} else if err != redis.Nil {
		s.log.Warn().Err(err).Msg("Answers cache read failed, falling back to database")
	}

	t, err := s.getByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if err := s.warmTestCache(ctx, t); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID.String()).Msg("Failed to rewarm test cache")
	}
	return t, nil
}

// PrewarmAllCaches loads every published test into Redis. Called once on
// startup.
func (s *CatalogService) PrewarmAllCaches(ctx context.Context) error {
	tests, err := s.tests.ListPublished(ctx)
	if err != nil {
		return err
	}
	for i := range tests {
		t, err := s.getByID(ctx, tests[i].ID)
		if err != nil {
			s.log.Error().Err(err).Str("test_id", tests[i].ID.String()).Msg("Prewarm: failed to load test")
			continue
		}
		if err := s.warmTestCache(ctx, t); err != nil {
			s.log.Error().Err(err).Str("test_id", t.ID.String()).Msg("Prewarm: failed to warm cache")
		}
	}
	s.log.Info().Int("tests", len(tests)).Msg("Catalog caches prewarmed")
	return nil
}

func (s *CatalogService) getByID(ctx context.Context, testID uuid.UUID) (*model.Test, error) {
	t, err := s.tests.GetByID(ctx, testID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// warmTestCache writes both cache entries in one pipeline. No TTL:
// entries are refreshed on publish and dropped on archive.
func (s *CatalogService) warmTestCache(ctx context.Context, t *model.Test) error {
	payloadJSON, err := json.Marshal(model.PayloadFor(t))
	if err != nil {
		return err
	}
	answersJSON, err := json.Marshal(t)
	if err != nil {
		return err
	}

	id := t.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.TestPayloadKey(id), payloadJSON, 0)
	pipe.Set(ctx, config.CacheKey.TestAnswersKey(id), answersJSON, 0)
	_, err = pipe.Exec(ctx)
	return err
}
