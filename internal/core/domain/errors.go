package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies probe failures.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"  // connection or timeout failure
	KindProtocol ErrorKind = "protocol" // non-success HTTP status or RPC error
	KindParse    ErrorKind = "parse"    // payload missing expected field or shape
	KindUnknown  ErrorKind = "unknown"
)

// Error is a classified probe failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NetworkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func ProtocolError(op string, err error) error {
	return &Error{Kind: KindProtocol, Op: op, Err: err}
}

func ParseError(op string, err error) error {
	return &Error{Kind: KindParse, Op: op, Err: err}
}

// KindOf returns the classification of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
