package submission

import "fmt"

// Code is the error string reported to clients in the "error" field.
type Code string

const (
	CodeInvalidToken     Code = "invalid_token"
	CodeMissingStats     Code = "missing_stats"
	CodeInvalidClient    Code = "invalid_client"
	CodeInvalidStat      Code = "invalid_stat"
	CodeInvalidJvmArgs   Code = "invalid_jvm_args"
	CodeAlreadySubmitted Code = "already_submitted"
	CodeUnknownError     Code = "unknown_error"
)

// Error is a rejected submission. Stat is set for CodeInvalidStat. Err holds
// the underlying cause and is never shown to clients.
type Error struct {
	Code Code
	Stat string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Stat != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Stat)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func reject(code Code) *Error { return &Error{Code: code} }
