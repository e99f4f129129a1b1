package report

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindMissingInput      Kind = "MissingInput"
	KindUnsupportedFormat Kind = "UnsupportedFormat"
	KindPayloadTooLarge   Kind = "PayloadTooLarge"
	KindConfiguration     Kind = "ConfigurationError"
	KindUnknownProvider   Kind = "UnknownProvider"
	KindProvider          Kind = "ExtractionProviderError"
	KindSchemaViolation   Kind = "ExtractionSchemaViolation"
	KindPersistence       Kind = "PersistenceError"
)

// Error carries a Kind through wrapping so the HTTP layer can pick a status.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first report.Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
