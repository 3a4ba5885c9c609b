// Package errors provides coded errors for the failure classes a run distinguishes.
//
// Only CodeLedgerWrite is fatal to a run: every other code is logged at the
// boundary where it occurs and processing continues.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code int

const (
	CodeUnknown Code = iota + 1
	CodeDataUnavailable
	CodeCorruptLedger
	CodeNotificationFailure
	CodeSymbolFailure
	CodeLedgerWrite
	CodeInvalidConfig
	CodeReportFailure
)

var codeNames = map[Code]string{
	CodeUnknown:             "UNKNOWN",
	CodeDataUnavailable:     "DATA_UNAVAILABLE",
	CodeCorruptLedger:       "CORRUPT_LEDGER",
	CodeNotificationFailure: "NOTIFICATION_FAILURE",
	CodeSymbolFailure:       "SYMBOL_FAILURE",
	CodeLedgerWrite:         "LEDGER_WRITE",
	CodeInvalidConfig:       "INVALID_CONFIG",
	CodeReportFailure:       "REPORT_FAILURE",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// Error is a failure tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// GetCode returns the code of the first *Error in err's chain, or CodeUnknown.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}
