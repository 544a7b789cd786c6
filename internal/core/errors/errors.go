package errors

// Error type identifiers returned in HTTP error responses.
const (
	HttpInternalError       = "internal_error"
	HttpInvalidJsonError    = "invalid_json"
	HttpInvalidDateKeyError = "invalid_date_key"
	HttpInvalidNumberError  = "invalid_number"
	HttpInvalidPeriodError  = "invalid_period"
	HttpNotFoundError       = "not_found"
)

// ErrorResponse is the error response body for API errors.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
