package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these, not on
// Message.
const (
	ErrCodeBadRequest       = "bad_request"        // 400, malformed path or query
	ErrCodeValidation       = "validation_failed"  // 400, body failed validation
	ErrCodeNotFound         = "not_found"          // 404
	ErrCodeMethodNotAllowed = "method_not_allowed" // 405
	ErrCodeRateLimited      = "too_many_requests"  // 429
	ErrCodeInternal         = "internal_error"     // 500

	// 500s raised by a specific operation.
	ErrCodeCreateFailed = "create_failed"
	ErrCodeDeleteFailed = "delete_failed"
	ErrCodeListFailed   = "list_failed"
)
