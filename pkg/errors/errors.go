package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// List collects several business errors that are reported together,
// e.g. every failed precondition of a bid.
type List []*AppError

func (l List) Error() string {
	parts := make([]string, 0, len(l))
	for _, e := range l {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Codes returns the codes of the collected errors in order.
func (l List) Codes() []string {
	codes := make([]string, 0, len(l))
	for _, e := range l {
		codes = append(codes, e.Code)
	}
	return codes
}

// OrNil returns nil for an empty list so callers can `return l.OrNil()`.
func (l List) OrNil() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// CodeOf returns the code of the first AppError in err's chain, or "".
// For a List the first element's code is returned.
func CodeOf(err error) string {
	var list List
	if stderrors.As(err, &list) && len(list) > 0 {
		return list[0].Code
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries code, either directly or as one
// element of a List.
func HasCode(err error, code string) bool {
	var list List
	if stderrors.As(err, &list) {
		for _, e := range list {
			if e.Code == code {
				return true
			}
		}
		return false
	}
	return CodeOf(err) == code
}

// As is re-exported so callers importing this package under the name
// "errors" keep access to the standard helper.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Economy error codes
const (
	ErrCodeAuctionNotFound      = "AUCTION_NOT_FOUND"
	ErrCodeNoActiveCharacter    = "NO_ACTIVE_CHARACTER"
	ErrCodeBidTooLow            = "BID_TOO_LOW"
	ErrCodeAuctionClosed        = "AUCTION_CLOSED"
	ErrCodeSelfBid              = "SELF_BID"
	ErrCodeFormula              = "FORMULA_ERROR"
	ErrCodeConcurrencyExhausted = "CONCURRENCY_EXHAUSTED"
	ErrCodeEscrowHeld           = "ESCROW_HELD"
)
