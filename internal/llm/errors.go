package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrKind buckets completion failures so the transport layer can pick a
// user-safe message without inspecting raw provider errors.
type ErrKind int

const (
	ErrKindGeneric ErrKind = iota
	ErrKindMissingCredentials
	ErrKindTimeout
	ErrKindRateLimited
	ErrKindAuth
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindMissingCredentials:
		return "missing_credentials"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindRateLimited:
		return "rate_limited"
	case ErrKindAuth:
		return "auth"
	default:
		return "generic"
	}
}

// APIError wraps a completion-provider failure with its classified kind.
type APIError struct {
	Kind ErrKind
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// UserMessage is what the client is allowed to see. Raw provider detail
// stays in the logs.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case ErrKindMissingCredentials:
		return "The assistant is not configured yet. Please try again later."
	case ErrKindTimeout:
		return "The assistant took too long to respond. Please try again."
	case ErrKindRateLimited:
		return "The assistant is handling a lot of requests right now. Please try again in a moment."
	case ErrKindAuth:
		return "The assistant could not authenticate with its language model. Please try again later."
	default:
		return "Something went wrong while generating a response. Please try again."
	}
}

// Classify maps an upstream error into an APIError. Already-classified
// errors pass through unchanged.
func Classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: ErrKindTimeout, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return &APIError{Kind: ErrKindTimeout, Err: err}
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "overloaded"):
		return &APIError{Kind: ErrKindRateLimited, Err: err}
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key") || strings.Contains(msg, "authentication"):
		return &APIError{Kind: ErrKindAuth, Err: err}
	default:
		return &APIError{Kind: ErrKindGeneric, Err: err}
	}
}
