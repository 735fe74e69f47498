package errors

// Codes are grouped by the stage of the run that produced them.
const (
	ErrCodeUpstreamRequest = 10000 + iota
	ErrCodeUpstreamStatus
	ErrCodeUpstreamPayload
)

const (
	ErrCodeMissingField = 20000 + iota
	ErrCodeMalformedField
	ErrCodeConversion
)

const (
	ErrCodeStorage = 30000 + iota
	ErrCodeBucketNotFound
	ErrCodeEncode
)

const (
	ErrCodeLoad = 40000 + iota
	ErrCodeLoadJob
)

func inRange(err error, lo, hi int64) bool {
	code := CodeOf(err)
	return code >= lo && code < hi
}

func IsFetchError(err error) bool {
	return inRange(err, 10000, 20000)
}

func IsTransformError(err error) bool {
	return inRange(err, 20000, 30000)
}

func IsStorageError(err error) bool {
	return inRange(err, 30000, 40000)
}

func IsLoadError(err error) bool {
	return inRange(err, 40000, 50000)
}
