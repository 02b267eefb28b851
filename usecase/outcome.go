package usecase

import (
	"errors"

	"github.com/satriahrh/mentalhs/server/adapters/llm"
)

// Outcome tells whether a value came from the enhanced path
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFallback Outcome = "fallback"
)

// Reason explains a fallback, or a trivial success
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonIdentity                Reason = "identity"
	ReasonOffline                 Reason = "offline"
	ReasonCredentialInvalid       Reason = "credential-invalid"
	ReasonTransportError          Reason = "transport-error"
	ReasonMalformedRemoteResponse Reason = "malformed-remote-response"
	ReasonCapabilityUnavailable   Reason = "capability-unavailable"
)

var (
	// ErrCredentialInvalid is returned when no usable credential is configured
	ErrCredentialInvalid = errors.New("credential invalid")
	// ErrMalformedResponse is returned when the remote answer cannot be used
	ErrMalformedResponse = errors.New("malformed remote response")
	// ErrCapabilityUnavailable is returned when an optional port is not wired
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

// Result is what every fallback-chain component returns. Value is always
// usable regardless of Outcome.
type Result[T any] struct {
	Value   T       `json:"value"`
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason,omitempty"`
}

// Fallback reports whether the value came from the local path
func (r Result[T]) Fallback() bool {
	return r.Outcome == OutcomeFallback
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeSuccess}
}

func fallback[T any](v T, reason Reason) Result[T] {
	return Result[T]{Value: v, Outcome: OutcomeFallback, Reason: reason}
}

// ReasonFor classifies an error from the enhanced path
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrCredentialInvalid):
		return ReasonCredentialInvalid
	case errors.Is(err, ErrCapabilityUnavailable):
		return ReasonCapabilityUnavailable
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, llm.ErrEmptyResponse):
		return ReasonMalformedRemoteResponse
	default:
		return ReasonTransportError
	}
}
