package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TestPayloadKey returns the cache key for a published test's provider payload.
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// TestAnswersKey returns the cache key for a published test's full question
// set including answer data, used by the in-process grader.
func (r *CacheKeyStruct) TestAnswersKey(testID string) string {
	return fmt.Sprintf("test:%s:answers", testID)
}

// AttemptAnswersKey returns the cache key for a provider's autosaved answers.
func (r *CacheKeyStruct) AttemptAnswersKey(testID string, providerID int) string {
	return fmt.Sprintf("provider:%d:test:%s:answers", providerID, testID)
}

// AttemptStartKey returns the cache key for a provider's attempt start time.
func (r *CacheKeyStruct) AttemptStartKey(testID string, providerID int) string {
	return fmt.Sprintf("provider:%d:test:%s:attempt_start", providerID, testID)
}

// ProviderActiveAttemptKey returns the cache key holding the test ID of a
// provider's currently active attempt.
func (r *CacheKeyStruct) ProviderActiveAttemptKey(providerID int) string {
	return fmt.Sprintf("provider:%d:active_attempt", providerID)
}

var CacheKey = NewCacheKeyStruct()
