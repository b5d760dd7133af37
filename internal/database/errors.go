package database

import "fmt"

// Kind classifies a database failure.
type Kind int

const (
	// KindPool means no connection could be checked out.
	KindPool Kind = iota + 1
	// KindQuery means a statement failed or its result could not be read.
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindPool:
		return "pool"
	case KindQuery:
		return "query"
	}
	return "unknown"
}

// Error wraps every failure coming out of the pool or a statement.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "create_todo"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
