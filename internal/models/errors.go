package models

// ValidationError is a coded error for invalid or missing records
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a coded error
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

var (
	ErrConsensusNotFound = NewValidationError("consensus_not_found", "consensus record not found")
	ErrResultNotFound    = NewValidationError("result_not_found", "result record not found")
	ErrInvalidMarket     = NewValidationError("invalid_market", "invalid market payload")
)
