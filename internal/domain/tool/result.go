package tool

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrorKind classifies a failed invocation. Every transport maps kinds to
// its own error codes; the kind names are part of the wire contract.
type ErrorKind string

const (
	KindColumnNotFound      ErrorKind = "ColumnNotFound"
	KindNotNumeric          ErrorKind = "NotNumeric"
	KindInsufficientData    ErrorKind = "InsufficientData"
	KindProviderUnavailable ErrorKind = "ProviderUnavailable"
	KindSymbolNotFound      ErrorKind = "SymbolNotFound"
	KindNotFound            ErrorKind = "NotFound"
	KindMissingArgument     ErrorKind = "MissingArgument"
	KindInvalidArgument     ErrorKind = "InvalidArgument"
	KindHandlerFailure      ErrorKind = "HandlerFailure"
)

// InvocationError is the error half of a Result.
type InvocationError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *InvocationError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Result is either Ok(Value) or Err(kind, message), never both.
// Value is a string or a float64.
type Result struct {
	Value any
	Err   *InvocationError
}

func Ok(v any) Result {
	return Result{Value: v}
}

func Fail(kind ErrorKind, message string) Result {
	return Result{Err: &InvocationError{Kind: kind, Message: message}}
}

func (r Result) IsError() bool {
	return r.Err != nil
}

// Text renders the result as a single line: the value, or "Kind: message".
func (r Result) Text() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	switch v := r.Value.(type) {
	case string:
		return v
	case float64:
		return FormatFloat(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// FormatFloat prints the shortest representation that round-trips, keeping
// a trailing ".0" on integral values so 20 reads as a float (20.0).
func FormatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) || math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

