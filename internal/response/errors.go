package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrProviderAccessOnly ErrCode = "PROVIDER_ACCESS_ONLY"
	ErrServiceKeyInvalid  ErrCode = "SERVICE_KEY_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Assessment-specific ───────────────────────────────────────────
	ErrTestNotFound           ErrCode = "TEST_NOT_FOUND"
	ErrNoTestsAvailable       ErrCode = "NO_TESTS_AVAILABLE"
	ErrTestNotPublished       ErrCode = "TEST_NOT_PUBLISHED"
	ErrTestNotDraft           ErrCode = "TEST_NOT_DRAFT"
	ErrNoQuestions            ErrCode = "NO_QUESTIONS"
	ErrSessionActive          ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrNoActiveSession        ErrCode = "NO_ACTIVE_SESSION"
	ErrInvalidStateTransition ErrCode = "INVALID_STATE_TRANSITION"
	ErrUnsupportedQuestion    ErrCode = "UNSUPPORTED_QUESTION_TYPE"
	ErrSubmissionFailed       ErrCode = "SUBMISSION_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrProviderAccessOnly:
		return "This resource is restricted to providers."
	case ErrServiceKeyInvalid:
		return "Service API key is missing or invalid."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Assessment-specific ───────────────────────────────────────────
	case ErrTestNotFound:
		return "No test exists for the requested service and level."
	case ErrNoTestsAvailable:
		return "There are no tests available right now."
	case ErrTestNotPublished:
		return "This test has not been published."
	case ErrTestNotDraft:
		return "This test is not in DRAFT status."
	case ErrNoQuestions:
		return "This test has no questions."
	case ErrSessionActive:
		return "Another test session is already in progress."
	case ErrNoActiveSession:
		return "No active test session was found."
	case ErrInvalidStateTransition:
		return "This action is not allowed in the current session state."
	case ErrUnsupportedQuestion:
		return "The test contains an unsupported question type."
	case ErrSubmissionFailed:
		return "Submitting your answers failed. Your answers are saved — please retry."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
