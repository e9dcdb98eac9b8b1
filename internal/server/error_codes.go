package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument  = 1000
	ErrCodeInvalidJSON      = 1001
	ErrCodeMissingRequired  = 1002
	ErrCodeInvalidID        = 1003
	ErrCodeUnsupportedMedia = 1004
	ErrCodeRequestTooLarge  = 1005

	// Auth (2xxx)
	ErrCodeUnauthorized = 2000
	ErrCodeForbidden    = 2001

	// Resources (3xxx)
	ErrCodePostNotFound = 3000

	// Internal (5xxx)
	ErrCodeInternal       = 5000
	ErrCodeStoreFailure   = 5001
	ErrCodeBlobFailure    = 5002
	ErrCodePublishFailure = 5003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeForbidden
	case 404:
		return ErrCodePostNotFound
	default:
		return ErrCodeInternal
	}
}
