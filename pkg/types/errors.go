package types

import (
	"errors"
	"fmt"
)

// Machine-readable error codes surfaced to tool callers
const (
	CodeInvalidSearchIndex     = "INVALID_SEARCH_INDEX"
	CodeInvalidMaxBatchResults = "INVALID_MAX_BATCH_RESULTS"
	CodeMissingLabelQuery      = "MISSING_LABEL_QUERY"
	CodeInvalidKinds           = "INVALID_KINDS"
	CodeInvalidSource          = "INVALID_SOURCE"
	CodeInvalidRegex           = "INVALID_REGEX"
	CodeInternal               = "INTERNAL_ERROR"
)

// Domain errors
var (
	ErrUnknownSource = errors.New("unknown symbol source")
)

// SearchError is a validation or provider failure with enough detail for the
// caller to correct the request
type SearchError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError creates a SearchError without a cause
func NewSearchError(code, message string, details map[string]any) *SearchError {
	return &SearchError{Code: code, Message: message, Details: details}
}

// ErrorCode extracts the code of a SearchError anywhere in err's chain,
// falling back to CodeInternal.
func ErrorCode(err error) string {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeInternal
}
