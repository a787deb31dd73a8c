package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifica as falhas que atravessam as camadas do serviço.
type ErrorKind string

const (
	KindConfigMissing   ErrorKind = "config_missing"
	KindUpstream        ErrorKind = "upstream_error"
	KindRateLimited     ErrorKind = "rate_limited"
	KindValidation      ErrorKind = "validation_error"
	KindTrackingFailure ErrorKind = "tracking_failure"
)

// Error carrega o tipo da falha, a operação e a causa original.
type Error struct {
	Kind       ErrorKind
	Op         string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is compara pelo Kind, de modo que errors.Is(err, ErrUpstream) funciona para qualquer falha upstream.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

var (
	ErrConfigMissing   = &Error{Kind: KindConfigMissing}
	ErrUpstream        = &Error{Kind: KindUpstream}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrTrackingFailure = &Error{Kind: KindTrackingFailure}
)

func NewError(kind ErrorKind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func WrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func IsRateLimitedError(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// KindOf devolve o Kind do primeiro *Error na cadeia, ou "" se não houver.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
