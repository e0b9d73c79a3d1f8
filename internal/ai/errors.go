package ai

import (
	"errors"
	"fmt"
)

// MaxBulkTextLen is the cutoff for bulk categorization input, counted in
// characters rather than bytes so multibyte text is not penalized. Average
// token length is ~4 chars and the flash models carry a large context
// window, so 100k characters is a safe limit; anything larger is rejected
// locally without a model call.
const MaxBulkTextLen = 100000

// ErrOversizedInput reports bulk text exceeding MaxBulkTextLen.
var ErrOversizedInput = errors.New("the provided text is too long; please shorten it and try again")

// ServiceErrorCode classifies assistant failures.
type ServiceErrorCode string

const (
	ErrModelUnavailable ServiceErrorCode = "MODEL_UNAVAILABLE"
	ErrEmptyResponse    ServiceErrorCode = "EMPTY_RESPONSE"
	ErrBadResponse      ServiceErrorCode = "BAD_RESPONSE"
)

// ServiceError is a structured error for assistant failures.
type ServiceError struct {
	Code      ServiceErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
