package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/config"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/repository"
)

const (
	resultBatchSize    = 50
	resultBatchTimeout = 2 * time.Second
	resultPollTimeout  = 1 * time.Second
)

// ResultWorker consumes the persist-results queue and marks attempts
// completed in batches, keeping the Postgres write rate flat under
// submission bursts (exam-end spikes).
type ResultWorker struct {
	attempts *repository.AttemptRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(attempts *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		attempts: attempts,
		rdb:      rdb,
		log:      log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]*model.ResultTask, 0, resultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= resultBatchSize || time.Since(lastFlush) >= resultBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested, flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, resultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var task model.ResultTask
			if err := json.Unmarshal([]byte(item[1]), &task); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, &task)
		}
	}
}

// flushSafe writes the batch in one bulk statement, falling back to
// per-row writes and requeueing anything that still fails.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.ResultTask) {
	if len(batch) == 0 {
		return
	}

	if err := w.attempts.CompleteBulk(ctx, toCompleted(batch)); err != nil {
		w.log.Warn().Err(err).Msg("Bulk completion failed, using fallback")

		for _, task := range batch {
			if err := w.attempts.Complete(ctx, completed(task)); err != nil {
				w.log.Error().Err(err).
					Int("provider_id", task.ProviderID).
					Msg("Single completion failed, requeueing")
				raw, _ := json.Marshal(task)
				w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
			}
		}
		return
	}

	// Completed attempts no longer need their autosave buffers.
	w.clearAutosaveBuffers(ctx, batch)
}

func (w *ResultWorker) clearAutosaveBuffers(ctx context.Context, batch []*model.ResultTask) {
	pipe := w.rdb.Pipeline()
	for _, task := range batch {
		pipe.Del(ctx,
			config.CacheKey.AttemptAnswersKey(task.TestID.String(), task.ProviderID),
			config.CacheKey.AttemptStartKey(task.TestID.String(), task.ProviderID),
		)
	}
	_, _ = pipe.Exec(ctx)
}

func completed(task *model.ResultTask) repository.CompletedAttempt {
	return repository.CompletedAttempt{
		TestID:           task.TestID,
		ProviderID:       task.ProviderID,
		Score:            task.Score,
		Passed:           task.Passed,
		TimeSpentMinutes: task.TimeSpentMinutes,
		FinishedAt:       task.FinishedAt,
	}
}

func toCompleted(batch []*model.ResultTask) []repository.CompletedAttempt {
	out := make([]repository.CompletedAttempt, len(batch))
	for i, task := range batch {
		out[i] = completed(task)
	}
	return out
}
