package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/servimatch/skilltest-backend/internal/config"
	"github.com/servimatch/skilltest-backend/internal/database"
	"github.com/servimatch/skilltest-backend/internal/logger"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/repository"
	"github.com/servimatch/skilltest-backend/internal/service"
)

// seed-tests creates and publishes a sample test for local development,
// and prints a provider token to take it with.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	testRepo := repository.NewTestRepository(pool)
	catalog := service.NewCatalogService(testRepo, rdb, log)
	auth := service.NewAuthService(cfg)

	serviceID := uuid.New()
	req := &model.CreateTestRequest{
		ServiceID:           serviceID.String(),
		Level:               "intermediate",
		Title:               "Web Development — Intermediate",
		TimeLimitMinutes:    30,
		PassingScorePercent: 70,
		Questions: []model.CreateQuestionRequest{
			{
				Type:           string(model.QuestionTypeSingleChoice),
				Text:           "Which HTTP status code means Not Found?",
				Points:         10,
				Options:        mustJSON([]string{"200", "301", "404", "500"}),
				CorrectAnswers: mustJSON([]string{"404"}),
				Explanation:    "404 is the standard response for a missing resource.",
				OrderNum:       0,
			},
			{
				Type:           string(model.QuestionTypeMultipleChoice),
				Text:           "Which of these are valid CSS position values?",
				Points:         10,
				Options:        mustJSON([]string{"absolute", "floating", "relative", "sticky"}),
				CorrectAnswers: mustJSON([]string{"absolute", "relative", "sticky"}),
				OrderNum:       1,
			},
			{
				Type:           string(model.QuestionTypeTextInput),
				Text:           "What does the 'C' in CSS stand for?",
				Points:         5,
				CorrectAnswers: mustJSON([]string{"cascading"}),
				OrderNum:       2,
			},
			{
				Type:         string(model.QuestionTypeCodeWriting),
				Text:         "Write a function that returns the sum of an array of numbers.",
				Points:       25,
				CodeTemplate: "function sum(numbers) {\n  // your code here\n}",
				TestCases: mustJSON([]model.TestCase{
					{Input: "[1, 2, 3]", ExpectedOutput: "6"},
					{Input: "[]", ExpectedOutput: "0"},
				}),
				OrderNum: 3,
			},
		},
	}

	test, err := catalog.Create(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create test")
	}
	if _, err := catalog.Publish(ctx, test.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish test")
	}

	token, err := auth.GenerateProviderToken(1)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate provider token")
	}

	fmt.Println("Seeded and published test:")
	fmt.Printf("  test_id:    %s\n", test.ID)
	fmt.Printf("  service_id: %s\n", serviceID)
	fmt.Printf("  level:      %s\n", test.Level)
	fmt.Println("Provider token (provider_id=1):")
	fmt.Printf("  %s\n", token)
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
