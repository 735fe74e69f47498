package request

import "github.com/infigaming-com/bpi-log-job/errors"

const (
	ErrCodeInvalidRequestTimeout = 50000 + iota
	ErrCodeFailedToCreateRequest
	ErrCodeFailedToSendRequest
	ErrCodeFailedToReadResponseBody
)

var (
	ErrInvalidRequestTimeout = errors.NewError(ErrCodeInvalidRequestTimeout, "invalid request timeout", nil)
)

// IsSuccessStatus reports whether code is a 2xx HTTP status.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
