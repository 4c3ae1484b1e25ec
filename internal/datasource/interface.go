// Package datasource fetches final game scores from external providers.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/josema3054/predicciones-deportivas/internal/models"
)

// ResultsSource defines the interface for fetching completed game results
type ResultsSource interface {
	// FetchResults retrieves the completed games played on date
	FetchResults(ctx context.Context, date time.Time) ([]*models.ResultRecord, error)

	// FetchRange retrieves completed games for every date in [start, end]
	FetchRange(ctx context.Context, start, end time.Time) ([]*models.ResultRecord, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string
	Err     error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotFound          = errors.New("data not found")
	ErrInvalidData       = errors.New("invalid data format")
	ErrServerError       = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsRateLimited reports whether err is a rate limit failure from any source
func IsRateLimited(err error) bool {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code == ErrCodeRateLimitExceeded
	}
	return errors.Is(err, ErrRateLimitExceeded)
}
