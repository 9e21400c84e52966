package company

import "errors"

// Domain errors
var (
	// Record errors
	ErrCompanyNotFound  = errors.New("company not found")
	ErrInvalidTicker    = errors.New("invalid ticker symbol")
	ErrInsufficientData = errors.New("merged record below minimum field threshold")

	// External API errors
	ErrRateLimited     = errors.New("upstream rate limit exceeded")
	ErrExternalAPI     = errors.New("external API error")
	ErrInvalidResponse = errors.New("invalid response from external API")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrCompanyNotFound)
}

// IsRateLimited checks if the error marks the upstream rate-limit condition
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
