package error

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorCategory classifies errors by the stage that raised them and how the
// caller is expected to react.
type ErrorCategory int

const (
	// ErrCategoryPlanning covers malformed or unsupported plans: unresolvable or
	// ambiguous columns, type mismatches, unsupported constructs. The query is
	// aborted and nothing is retried.
	ErrCategoryPlanning ErrorCategory = iota

	// ErrCategoryAlgebra marks an internal planner defect found while rewriting
	// expressions (inverting a non-arithmetic operator and the like). Never
	// expected for well-formed input.
	ErrCategoryAlgebra

	// ErrCategoryExecution covers failures raised while pulling tuples: storage
	// reads, spill writes, evaluation errors such as division by zero.
	ErrCategoryExecution

	// ErrCategoryResource covers exhausted memory or disk budgets.
	ErrCategoryResource
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryPlanning:
		return "planning"
	case ErrCategoryAlgebra:
		return "algebra"
	case ErrCategoryExecution:
		return "execution"
	case ErrCategoryResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error codes shared across packages.
const (
	CodeColumnNotFound    = "COLUMN_NOT_FOUND"
	CodeAmbiguousColumn   = "AMBIGUOUS_COLUMN"
	CodeDuplicateColumn   = "DUPLICATE_COLUMN"
	CodeTableNotFound     = "TABLE_NOT_FOUND"
	CodeFunctionNotFound  = "FUNCTION_NOT_FOUND"
	CodeTypeMismatch      = "TYPE_MISMATCH"
	CodeUnsupported       = "UNSUPPORTED"
	CodeAlgebra           = "ALGEBRA_ERROR"
	CodeDivisionByZero    = "DIVISION_BY_ZERO"
	CodeStorage           = "STORAGE_ERROR"
	CodeSpill             = "SPILL_ERROR"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeIteratorNotOpened = "ITERATOR_NOT_OPENED"
)

// DBError is a structured error carrying the stage, code and origin of a
// failure. The cause chain is kept so errors.Is and errors.As see through it.
type DBError struct {
	// Code is a stable identifier such as COLUMN_NOT_FOUND.
	Code string

	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides context about this particular instance.
	Detail string

	// Hint suggests how the caller might fix the problem.
	Hint string

	// Operation names the operation in progress, e.g. "Transpose" or "ExternalSort.spill".
	Operation string

	// Component names the subsystem, e.g. "optimizer" or "HashJoin".
	Component string

	Cause error
}

// New creates a DBError. The cause is a cockroachdb error so a stack trace is
// attached at the creation site.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Cause:    errors.NewWithDepth(1, message),
	}
}

// Newf is New with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...any) *DBError {
	msg := fmt.Sprintf(format, args...)
	return &DBError{
		Code:     code,
		Category: category,
		Message:  msg,
		Cause:    errors.NewWithDepth(1, msg),
	}
}

// Algebraf reports an internal defect detected while rewriting an expression.
func Algebraf(operation, format string, args ...any) *DBError {
	cause := errors.AssertionFailedWithDepthf(1, format, args...)
	return &DBError{
		Code:      CodeAlgebra,
		Category:  ErrCategoryAlgebra,
		Message:   fmt.Sprintf(format, args...),
		Operation: operation,
		Component: "algebra",
		Cause:     cause,
	}
}

// Wrap wraps an existing error with database-specific context information.
// If the error already is a DBError, it is enriched with operation and
// component (only where those are not yet set) and returned as is.
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategoryExecution,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     errors.WithStackDepth(err, 1),
	}
}

// WithDetail sets Detail and returns the receiver for chaining.
func (e *DBError) WithDetail(format string, args ...any) *DBError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint sets Hint and returns the receiver for chaining.
func (e *DBError) WithHint(hint string) *DBError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component)
func (e *DBError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)

	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}

	if e.Operation != "" {
		fmt.Fprintf(&b, " (operation: %s", e.Operation)
		if e.Component != "" {
			fmt.Fprintf(&b, ", component: %s", e.Component)
		}
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// FormatStack returns the stack trace recorded by the cause, if any.
func (e *DBError) FormatStack() string {
	if e.Cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.Cause)
}

// HasCode reports whether err is, or wraps, a DBError with the given code.
func HasCode(err error, code string) bool {
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		return false
	}
	return dbErr.Code == code
}

// CategoryOf returns the category of the first DBError in err's chain.
func CategoryOf(err error) (ErrorCategory, bool) {
	var dbErr *DBError
	if !errors.As(err, &dbErr) {
		return 0, false
	}
	return dbErr.Category, true
}
