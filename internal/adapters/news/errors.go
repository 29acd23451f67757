package news

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures inside the news pipeline
type ErrorKind int

const (
	// KindTransientFetch is a network or provider failure
	KindTransientFetch ErrorKind = iota + 1
	// KindMalformedPayload is a provider payload missing expected structure
	KindMalformedPayload
	// KindPersistence is a cache store or on-disk read/write failure
	KindPersistence
	// KindNotFound means a tier has no data for the symbol
	KindNotFound
	// KindDecode is stored data that could not be parsed back
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransientFetch:
		return "transient_fetch"
	case KindMalformedPayload:
		return "malformed_payload"
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not_found"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ErrNoSnapshot is returned when a tier holds nothing for a symbol
var ErrNoSnapshot = errors.New("no snapshot")

// Error is the typed error returned by every tier of the news pipeline
type Error struct {
	Err    error
	Op     string
	Symbol string
	Kind   ErrorKind
}

func (e *Error) Error() string {
	return fmt.Sprintf("news %s %s (%s): %v", e.Op, e.Symbol, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, symbol string, err error) *Error {
	return &Error{Kind: kind, Op: op, Symbol: symbol, Err: err}
}

// KindOf returns the kind of a pipeline error, 0 for foreign errors
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
