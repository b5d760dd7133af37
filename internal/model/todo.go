package model

import "math"

// MaxOrdering is the largest ordering every supported database stores in
// its BIGINT column.
const MaxOrdering = math.MaxInt64

// Todo is a single item of the todo list and maps to a row of the `todo`
// table.  ID is nil until the database assigns one.
type Todo struct {
	ID       *uint64 `json:"id" db:"id"`             // todo.id
	Name     string  `json:"name" db:"name"`         // todo.name
	Ordering uint64  `json:"ordering" db:"ordering"` // client side sort position
	Checked  bool    `json:"checked" db:"checked"`   // completion flag
}

// TodoInput is the request body accepted by create and update.  Fields are
// pointers so that a field missing from the JSON can be told apart from its
// zero value.  Any id sent by the client is ignored.
type TodoInput struct {
	Name     *string `json:"name"`
	Ordering *uint64 `json:"ordering"`
	Checked  *bool   `json:"checked"`
}

// Complete reports whether every field was present in the body.
func (in TodoInput) Complete() bool {
	return in.Name != nil && in.Ordering != nil && in.Checked != nil
}

// Todo converts a complete input into a Todo without an id.
func (in TodoInput) Todo() Todo {
	return Todo{Name: *in.Name, Ordering: *in.Ordering, Checked: *in.Checked}
}
