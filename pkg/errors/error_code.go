package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Config validation errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeInvalidDateRange     ErrorCode = 101
	ErrCodeDateSpanTooLong      ErrorCode = 102
	ErrCodeInvalidInitialAmount ErrorCode = 103
	ErrCodeInvalidFrequency     ErrorCode = 104
	ErrCodeNoFundCodes          ErrorCode = 105
	ErrCodeInvalidFundCode      ErrorCode = 106

	// Data errors (200-299)
	ErrCodeNoNavData            ErrorCode = 200
	ErrCodeNavSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed          ErrorCode = 202
	ErrCodeAllFundsExcluded     ErrorCode = 203

	// Strategy errors (400-499)
	ErrCodeUnknownStrategy       ErrorCode = 400
	ErrCodeStrategyParams        ErrorCode = 401
	ErrCodeMissingParameter      ErrorCode = 402
	ErrCodeInvalidMultiplier     ErrorCode = 403
	ErrCodeInvalidGrowthRate     ErrorCode = 404
	ErrCodeInvalidFeeRate        ErrorCode = 405
	ErrCodeInvalidAllocation     ErrorCode = 406
	ErrCodeInvalidBaseInvestment ErrorCode = 407

	// Simulation errors (600-699)
	ErrCodeOversell             ErrorCode = 600
	ErrCodeInsufficientCash     ErrorCode = 601
	ErrCodeSimulationAborted    ErrorCode = 602
	ErrCodeEngineNotInitialized ErrorCode = 603
	ErrCodeResultStoreFailed    ErrorCode = 604
)
