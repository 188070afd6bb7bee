package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/servimatch/skilltest-backend/internal/grading"
	"github.com/servimatch/skilltest-backend/internal/middleware"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/response"
	"github.com/servimatch/skilltest-backend/internal/service"
	"github.com/servimatch/skilltest-backend/internal/session"
	"github.com/servimatch/skilltest-backend/internal/validator"
)

// ProviderPortalHandler handles provider-facing endpoints: browsing,
// starting, driving, and submitting test attempts.
type ProviderPortalHandler struct {
	attempts *service.AttemptService
	catalog  *service.CatalogService
}

// NewProviderPortalHandler creates a new ProviderPortalHandler.
func NewProviderPortalHandler(attempts *service.AttemptService, catalog *service.CatalogService) *ProviderPortalHandler {
	return &ProviderPortalHandler{attempts: attempts, catalog: catalog}
}

// GetTestPreview godoc
// GET /api/v1/provider/tests?service_id=&level=
// Returns the answer-stripped test payload so a provider can see the
// title, time limit and question count before committing to an attempt.
func (h *ProviderPortalHandler) GetTestPreview(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	level := c.Query("level")
	if level == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	payload, err := h.catalog.FindPublishedPayload(c.Request.Context(), serviceID, level)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": payload})
}

// StartAttempt godoc
// POST /api/v1/provider/attempts
// Starts a timed attempt at the published test for a service and level.
func (h *ProviderPortalHandler) StartAttempt(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.attempts.Start(c.Request.Context(), claims.ProviderID, &req)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// GetActiveAttempt godoc
// GET /api/v1/provider/attempts/active
// Returns the payload and state of the provider's current attempt. Covers
// page reloads and process restarts: the session is rebuilt from
// persisted state when needed.
func (h *ProviderPortalHandler) GetActiveAttempt(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.attempts.State(c.Request.Context(), claims.ProviderID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// RecordAnswer godoc
// PUT /api/v1/provider/attempts/active/answer
// Saves one answer. Does not move the current question.
func (h *ProviderPortalHandler) RecordAnswer(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attempts.RecordAnswer(c.Request.Context(), claims.ProviderID, &req); err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// Advance godoc
// POST /api/v1/provider/attempts/active/advance
// Moves to the next question; on the last question it submits instead.
func (h *ProviderPortalHandler) Advance(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	submitted, err := h.attempts.Advance(c.Request.Context(), claims.ProviderID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	view, verr := h.attempts.State(c.Request.Context(), claims.ProviderID)
	if verr != nil {
		failAttemptError(c, verr)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submitted": submitted, "state": view.State})
}

// GoBack godoc
// POST /api/v1/provider/attempts/active/back
// Moves to the previous question. A no-op on the first one.
func (h *ProviderPortalHandler) GoBack(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.attempts.GoBack(c.Request.Context(), claims.ProviderID); err != nil {
		failAttemptError(c, err)
		return
	}

	view, err := h.attempts.State(c.Request.Context(), claims.ProviderID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"state": view.State})
}

// Submit godoc
// POST /api/v1/provider/attempts/active/submit
// Submits the attempt for grading. Also the retry endpoint after a
// failed submission; the same accumulated answers are re-sent.
func (h *ProviderPortalHandler) Submit(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.attempts.Submit(c.Request.Context(), claims.ProviderID); err != nil {
		failAttemptError(c, err)
		return
	}

	result, err := h.attempts.Result(c.Request.Context(), claims.ProviderID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// GetResult godoc
// GET /api/v1/provider/attempts/active/result
// Returns the grading result of the completed attempt.
func (h *ProviderPortalHandler) GetResult(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	result, err := h.attempts.Result(c.Request.Context(), claims.ProviderID)
	if err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// DismissAttempt godoc
// DELETE /api/v1/provider/attempts/active
// Releases a finished session after the provider viewed the result.
func (h *ProviderPortalHandler) DismissAttempt(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.attempts.Dismiss(c.Request.Context(), claims.ProviderID); err != nil {
		failAttemptError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "dismissed"})
}

// failAttemptError maps attempt pipeline sentinels to API error codes.
func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionActive):
		response.Fail(c, http.StatusConflict, response.ErrSessionActive)
	case errors.Is(err, service.ErrNoActiveSession), errors.Is(err, session.ErrNoResult):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrAttemptCompleted):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrNoTestsAvailable):
		response.Fail(c, http.StatusNotFound, response.ErrNoTestsAvailable)
	case errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
	case errors.Is(err, session.ErrInvalidStateTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidStateTransition)
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, model.ErrUnsupportedQuestionType):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrUnsupportedQuestion)
	case errors.Is(err, model.ErrAnswerShape):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, grading.ErrSubmissionFailed):
		response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
