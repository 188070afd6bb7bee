package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/response"
	"github.com/servimatch/skilltest-backend/internal/service"
	"github.com/servimatch/skilltest-backend/internal/validator"
)

// CatalogAdminHandler handles internal catalog endpoints called by the
// marketplace core, guarded by the service API key.
type CatalogAdminHandler struct {
	catalog  *service.CatalogService
	attempts *service.AttemptService
}

// NewCatalogAdminHandler creates a new CatalogAdminHandler.
func NewCatalogAdminHandler(catalog *service.CatalogService, attempts *service.AttemptService) *CatalogAdminHandler {
	return &CatalogAdminHandler{catalog: catalog, attempts: attempts}
}

// CreateTest godoc
// POST /api/v1/catalog/tests
// Ingests a new test in DRAFT status. Questions pass the strict decode
// boundary; a single malformed question rejects the whole payload.
func (h *CatalogAdminHandler) CreateTest(c *gin.Context) {
	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.catalog.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
		case errors.Is(err, model.ErrUnsupportedQuestionType):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrUnsupportedQuestion)
		default:
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// GetTest godoc
// GET /api/v1/catalog/tests/:test_id
func (h *CatalogAdminHandler) GetTest(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.catalog.GetByID(c.Request.Context(), testID)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// PublishTest godoc
// POST /api/v1/catalog/tests/:test_id/publish
// Publishes a draft test and warms its Redis caches.
func (h *CatalogAdminHandler) PublishTest(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.catalog.Publish(c.Request.Context(), testID)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// ArchiveTest godoc
// POST /api/v1/catalog/tests/:test_id/archive
func (h *CatalogAdminHandler) ArchiveTest(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.catalog.Archive(c.Request.Context(), testID); err != nil {
		failCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "archived"})
}

// ListResults godoc
// GET /api/v1/catalog/tests/:test_id/results?page=&per_page=
// Returns attempts for a test, newest first.
func (h *CatalogAdminHandler) ListResults(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	attempts, total, err := h.attempts.ListResults(c.Request.Context(), testID, page, perPage)
	if err != nil {
		failCatalogError(c, err)
		return
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

func failCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
	case errors.Is(err, service.ErrTestNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrTestNotDraft)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
