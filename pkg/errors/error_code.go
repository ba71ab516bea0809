package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199). Fatal: abort the whole run.
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeUnknownStrategy      ErrorCode = 102
	ErrCodeUnknownProvider      ErrorCode = 103
	ErrCodeNoStrategySpecified  ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105

	// Market data errors (200-299). Recoverable per ticker: skip and continue.
	ErrCodeNoDataFound           ErrorCode = 200
	ErrCodeMarketDataFetchFailed ErrorCode = 201
	ErrCodeMarketDataParseFailed ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeInsufficientData       ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyAlreadyExists ErrorCode = 400
	ErrCodeStrategyConfigError   ErrorCode = 401

	// Trading errors (500-599). An invariant violation means the position state
	// machine emitted an order it never should have; the pass is aborted.
	ErrCodeOrderFailed        ErrorCode = 500
	ErrCodeInvalidOrder       ErrorCode = 501
	ErrCodeInvariantViolation ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestConfigError ErrorCode = 600
	ErrCodeBacktestEmptySeries ErrorCode = 601

	// Reporting errors (700-799). Logged, never fatal: a failed report must not
	// discard the already-computed result.
	ErrCodeReportWriteFailed  ErrorCode = 700
	ErrCodeReportRenderFailed ErrorCode = 701
)
