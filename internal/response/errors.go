package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"

	// ─── Quiz state ────────────────────────────────────────────────────
	ErrNotLoaded        ErrCode = "NOT_LOADED"
	ErrUnknownQuestion  ErrCode = "UNKNOWN_QUESTION"
	ErrChoiceOutOfRange ErrCode = "CHOICE_OUT_OF_RANGE"

	// ─── Upstream quiz server ──────────────────────────────────────────
	ErrUpstreamUnavailable ErrCode = "UPSTREAM_UNAVAILABLE"
	ErrMalformedResponse   ErrCode = "MALFORMED_RESPONSE"
	ErrUpstreamRejected    ErrCode = "UPSTREAM_REJECTED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Check the submitted fields."

	case ErrNotLoaded:
		return "Questions are not loaded yet."
	case ErrUnknownQuestion:
		return "No loaded question has that id."
	case ErrChoiceOutOfRange:
		return "The question has no option with that index."

	case ErrUpstreamUnavailable:
		return "Could not reach the quiz server."
	case ErrMalformedResponse:
		return "The quiz server sent a response that could not be read."
	case ErrUpstreamRejected:
		return "The quiz server rejected the request."

	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "Internal error."
	default:
		return "Unexpected error."
	}
}
