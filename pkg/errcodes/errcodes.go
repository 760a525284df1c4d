package errcodes

import "errors"

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

const (
	InternalServerError ErrorCode = "InternalServerError"
	TimeoutExceeded     ErrorCode = "TimeoutExceeded"
	ValidationError     ErrorCode = "ValidationError"
	NotFound            ErrorCode = "NotFound"

	// Ingestion pipeline.
	TruncatedInput        ErrorCode = "TruncatedInput"
	InvalidCodecState     ErrorCode = "InvalidCodecState"
	UnresolvableReference ErrorCode = "UnresolvableReference"
	WriteConflict         ErrorCode = "WriteConflict"
	StoreUnavailable      ErrorCode = "StoreUnavailable"
	QueueFull             ErrorCode = "QueueFull"
	UnknownServer         ErrorCode = "UnknownServer"
)

// Coder is implemented by errors carrying an ErrorCode.
type Coder interface {
	ErrorCode() ErrorCode
}

// Code returns the code of the first error in the chain implementing Coder,
// or an empty code.
func Code(err error) ErrorCode {
	var coder Coder
	if errors.As(err, &coder) {
		return coder.ErrorCode()
	}

	return ""
}
