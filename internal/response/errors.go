package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Admission ─────────────────────────────────────────────────────
	ErrRoomNotFound        ErrCode = "ROOM_NOT_FOUND"
	ErrAdmissionInvalid    ErrCode = "ADMISSION_INVALID"
	ErrAdmissionExpired    ErrCode = "ADMISSION_EXPIRED"
	ErrMaxAttemptsExceeded ErrCode = "MAX_ATTEMPTS_EXCEEDED"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrBeforeOpen           ErrCode = "BEFORE_OPEN"
	ErrAfterClose           ErrCode = "AFTER_CLOSE"
	ErrTimeExpired          ErrCode = "TIME_EXPIRED"
	ErrAttemptSubmitted     ErrCode = "ATTEMPT_ALREADY_SUBMITTED"
	ErrShouldCreateAttempt  ErrCode = "SHOULD_CREATE_NEW_ATTEMPT"
	ErrFaceCheckRequired    ErrCode = "FACE_CHECK_REQUIRED"
	ErrCardCheckRequired    ErrCode = "CARD_CHECK_REQUIRED"
	ErrQuestionNotInAttempt ErrCode = "QUESTION_NOT_IN_ATTEMPT"

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
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

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

	// ─── Admission ─────────────────────────────────────────────────────
	case ErrRoomNotFound:
		return "No exam was found for this room code."
	case ErrAdmissionInvalid:
		return "The admission token is invalid."
	case ErrAdmissionExpired:
		return "The admission token has expired. Please verify the room code again."
	case ErrMaxAttemptsExceeded:
		return "You have used all allowed attempts for this exam."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrBeforeOpen:
		return "This exam has not opened yet."
	case ErrAfterClose:
		return "This exam is already closed."
	case ErrTimeExpired:
		return "Your time for this attempt has run out."
	case ErrAttemptSubmitted:
		return "This attempt has already been submitted."
	case ErrShouldCreateAttempt:
		return "This attempt is finished. Start a new attempt to continue."
	case ErrFaceCheckRequired:
		return "Identity verification is required before entering this exam."
	case ErrCardCheckRequired:
		return "An exam card check is required before entering this exam."
	case ErrQuestionNotInAttempt:
		return "This question does not belong to the attempt's exam."

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
