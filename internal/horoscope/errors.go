package horoscope

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures for logs. Users always see the same message.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
)

var (
	ErrTimeout   = errors.New("horoscope: provider timeout")
	ErrTransport = errors.New("horoscope: provider unreachable")
	ErrStatus    = errors.New("horoscope: unexpected provider status")
	ErrMalformed = errors.New("horoscope: malformed provider payload")
)

// ProviderError wraps a failed provider call.
type ProviderError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == KindStatus && e.StatusCode != 0 {
		return fmt.Sprintf("horoscope provider: %s (%d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("horoscope provider: %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of the error kind.
func (e *ProviderError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindTimeout:
		return target == ErrTimeout
	case KindTransport:
		return target == ErrTransport
	case KindStatus:
		return target == ErrStatus
	case KindDecode:
		return target == ErrMalformed
	}
	return false
}

// Code is picked up by handler summaries as err_code.
func (e *ProviderError) Code() string {
	if e == nil {
		return ""
	}
	return "provider_" + string(e.Kind)
}

// ErrorCode returns a stable code for err, or "internal" for unclassified errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code()
	}
	return "internal"
}
