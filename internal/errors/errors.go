// Package errors defines the application error taxonomy shared by every layer of the bot.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes grouped by origin.
const (
	CodeValidation = "E100"
	CodeStorage    = "E200"
	CodeExternal   = "E300"
	CodeState      = "E400"
	CodeRateLimit  = "E500"
)

// GenericUserMessage is shown whenever nothing more specific is known.
const GenericUserMessage = "Something went wrong, please try again."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Is matches another AppError by code so callers can test with errors.Is(err, &AppError{Code: ...}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}

	return t.Code != "" && t.Code == e.Code
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
	}
}

// NewDatabaseError wraps a storage failure (Redis or Postgres). It is retryable.
func NewDatabaseError(op string, cause error) *AppError {
	return &AppError{
		Code:        CodeStorage,
		Message:     fmt.Sprintf("storage error during %s", op),
		UserMessage: GenericUserMessage,
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        CodeExternal,
		Message:     fmt.Sprintf("external api error: %s", apiName),
		UserMessage: "The service is temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "That action is not available right now.",
		Severity:    SeverityMedium,
	}
}

// NewSessionExpiredError reports an action that needs a conversation context the user no longer has.
func NewSessionExpiredError(action string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     fmt.Sprintf("no conversation context for %q", action),
		UserMessage: "Your session has expired, please send the listing link again.",
		Severity:    SeverityLow,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
	}
}
