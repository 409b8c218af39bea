package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound           ErrorCode = 200
	ErrCodeMissingIndicatorColumn ErrorCode = 201
	ErrCodeQueryFailed            ErrorCode = 202
	ErrCodeUnorderedSeries        ErrorCode = 203
	ErrCodeEmptySeries            ErrorCode = 204

	// Strategy errors (300-399)
	ErrCodeStrategyNotFound      ErrorCode = 300
	ErrCodeStrategyAlreadyExists ErrorCode = 301
	ErrCodeStrategyConfigError   ErrorCode = 302

	// Simulation errors (400-499)
	ErrCodeSimulationFailed ErrorCode = 400
	ErrCodeResultWriteError ErrorCode = 401

	// Market data errors (500-599)
	ErrCodeMarketDataFetchFailed ErrorCode = 500
	ErrCodeMarketDataWriteFailed ErrorCode = 501
	ErrCodeInvalidInterval       ErrorCode = 502
)
