package query

import (
	"errors"
	"fmt"
)

var (
	ErrQuery           = errors.New("query: statement failed")
	ErrNoTable         = errors.New("query: table is not set")
	ErrInvalidOperator = errors.New("query: invalid comparison operator")
	ErrEmptyWhereIn    = errors.New("query: whereIn requires at least one value")
	ErrEmptyValues     = errors.New("query: no column values given")
	ErrTxNotSupported  = errors.New("query: executor cannot begin transactions")
	ErrUnknownDialect  = errors.New("query: unknown dialect")
)

// QueryError wraps a driver failure together with the statement that caused it.
// The raw driver error stays reachable through errors.Unwrap for logging,
// while callers classify with errors.Is(err, ErrQuery).
type QueryError struct {
	Err  error
	SQL  string
	Args []any
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query: error with query: %s: %v", e.SQL, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports ErrQuery as a match so every statement failure is one error kind.
func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// AsQueryError extracts the QueryError from an error chain.
// Returns nil if err is not a statement failure.
func AsQueryError(err error) *QueryError {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}
	return nil
}
