// Package errors implements the closed error taxonomy shared by every formula function
// and the classifier that turns any failure into a uniform ErrorResult.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/onchain-formulas/internal/types"
)

// FunctionError is a failure tagged with its ErrorKind and the data its message needs
type FunctionError struct {
	Kind       types.ErrorKind
	Field      string
	Value      any
	Input      string
	StatusCode int
	Message    string
	Reason     any
	Cause      error
}

// Error implements the error interface
func (e *FunctionError) Error() string {
	msg := e.Render("").Message
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *FunctionError) Unwrap() error {
	return e.Cause
}

// Render builds the caller-facing result for this error
func (e *FunctionError) Render(functionName string) *types.ErrorResult {
	res := &types.ErrorResult{Type: e.Kind, FunctionName: functionName}

	switch e.Kind {
	case types.KindMissingParam:
		res.Message = fmt.Sprintf("Missing param: %s", e.Field)
	case types.KindInvalidParam:
		res.Message = fmt.Sprintf("%v is an invalid value for %s", e.Value, e.Field)
		if e.Message != "" {
			res.Reason = e.Message
		}
	case types.KindInvalidChain:
		res.Message = fmt.Sprintf("%s is not a supported chain for this function", e.Input)
	case types.KindInvalidAddress:
		res.Message = fmt.Sprintf("%s is not a supported address", e.Input)
	case types.KindENS:
		res.Message = fmt.Sprintf("%s is not a supported ens name", e.Input)
	case types.KindMissingKey:
		res.Message = fmt.Sprintf("Api key for %s is missing", firstNonEmpty(e.Input, functionName, "this api"))
	case types.KindInvalidAPIKey:
		res.Message = fmt.Sprintf("%s: Invalid API key", firstNonEmpty(e.Input, functionName, "this api"))
	case types.KindRateLimit:
		res.Message = fmt.Sprintf("Rate limit for %s has been reached", firstNonEmpty(e.Input, functionName, "this api"))
	case types.KindNetworkError:
		if e.StatusCode == http.StatusTooManyRequests {
			res.Type = types.KindRateLimit
			res.Message = fmt.Sprintf("Rate limit for %s has been reached", firstNonEmpty(functionName, "this function"))
			break
		}
		res.Message = fmt.Sprintf("Api failed with status code %d", e.StatusCode)
	case types.KindMaxPageLimit:
		res.Message = fmt.Sprintf("Max page limit is %d", types.MaxPageLimit)
	case types.KindCustom:
		res.Message = e.Message
		res.Reason = e.Reason
		if res.Reason == nil {
			res.Reason = e.Message
		}
	default:
		res.Type = types.KindDefault
		res.Message = "An unexpected error occurred"
		res.Reason = e.Reason
		if res.Reason == nil && e.Cause != nil {
			res.Reason = e.Cause.Error()
		}
	}

	return res
}

// NewMissingParamError creates a missing parameter error
func NewMissingParamError(field string) *FunctionError {
	return &FunctionError{Kind: types.KindMissingParam, Field: field}
}

// NewInvalidParamError creates an invalid parameter error
func NewInvalidParamError(field string, value any) *FunctionError {
	return &FunctionError{Kind: types.KindInvalidParam, Field: field, Value: value}
}

// NewInvalidParamErrorf creates an invalid parameter error carrying a detail message
func NewInvalidParamErrorf(field string, value any, format string, args ...any) *FunctionError {
	return &FunctionError{Kind: types.KindInvalidParam, Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidChainError creates an invalid chain error
func NewInvalidChainError(chain string) *FunctionError {
	return &FunctionError{Kind: types.KindInvalidChain, Input: chain}
}

// NewInvalidAddressError creates an invalid address error
func NewInvalidAddressError(address string) *FunctionError {
	return &FunctionError{Kind: types.KindInvalidAddress, Input: address}
}

// NewENSError creates an unresolved name error
func NewENSError(name string) *FunctionError {
	return &FunctionError{Kind: types.KindENS, Input: name}
}

// NewMissingKeyError creates a missing credential error
func NewMissingKeyError(keyName string) *FunctionError {
	return &FunctionError{Kind: types.KindMissingKey, Input: keyName}
}

// NewInvalidAPIKeyError creates a rejected credential error
func NewInvalidAPIKeyError(keyName string) *FunctionError {
	return &FunctionError{Kind: types.KindInvalidAPIKey, Input: keyName}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(keyName string) *FunctionError {
	return &FunctionError{Kind: types.KindRateLimit, Input: keyName}
}

// NewNetworkError creates a network error for a non-2xx status
func NewNetworkError(statusCode int) *FunctionError {
	return &FunctionError{Kind: types.KindNetworkError, StatusCode: statusCode}
}

// NewMaxPageLimitError creates a page ceiling error
func NewMaxPageLimitError() *FunctionError {
	return &FunctionError{Kind: types.KindMaxPageLimit}
}

// NewCustomError creates an adapter-specific error
func NewCustomError(message string, reason any) *FunctionError {
	return &FunctionError{Kind: types.KindCustom, Message: message, Reason: reason}
}

// NewDefaultError wraps an unexpected failure
func NewDefaultError(cause error) *FunctionError {
	return &FunctionError{Kind: types.KindDefault, Cause: cause}
}

// Classify converts any error into the uniform ErrorResult, tagging it with functionName
func Classify(err error, functionName string) *types.ErrorResult {
	if err == nil {
		return nil
	}

	var fnErr *FunctionError
	if stderrors.As(err, &fnErr) {
		return fnErr.Render(functionName)
	}

	var res *types.ErrorResult
	if stderrors.As(err, &res) {
		out := *res
		if out.FunctionName == "" {
			out.FunctionName = functionName
		}
		return &out
	}

	return NewDefaultError(err).Render(functionName)
}

// KindOf returns the ErrorKind an error would be classified as
func KindOf(err error) types.ErrorKind {
	if err == nil {
		return ""
	}
	return Classify(err, "").Type
}

// IsUserError reports whether the error was caused by the caller's input
func IsUserError(err error) bool {
	switch KindOf(err) {
	case types.KindMissingParam, types.KindInvalidParam, types.KindInvalidChain,
		types.KindInvalidAddress, types.KindENS, types.KindMaxPageLimit, types.KindMissingKey:
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
