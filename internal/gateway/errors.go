package gateway

import (
	"errors"

	mssql "github.com/microsoft/go-mssqldb"
)

// ErrorKind classifies where a call failed. It is informational only:
// every kind is reported to callers the same way.
type ErrorKind uint8

const (
	ErrConnection ErrorKind = iota + 1
	ErrExecution
	ErrMaterialization
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConnection:
		return "connection"
	case ErrExecution:
		return "execution"
	case ErrMaterialization:
		return "materialization"
	}
	return "unknown"
}

var (
	ErrProcedureRequired = errors.New("procedure name is required")
	ErrQueryRequired     = errors.New("sql text is required")
)

// Error is the failure of a gateway call. Its message is the underlying
// error's message, unchanged.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of a gateway error, or 0 for other errors.
func KindOf(err error) ErrorKind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return 0
}

// sqlErrorNumber extracts the SQL Server error number for logging.
func sqlErrorNumber(err error) (int32, bool) {
	var merr mssql.Error
	if errors.As(err, &merr) {
		return merr.Number, true
	}
	var pmerr *mssql.Error
	if errors.As(err, &pmerr) && pmerr != nil {
		return pmerr.Number, true
	}
	return 0, false
}
