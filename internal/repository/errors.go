// Package repository contains data access logic separated from HTTP handlers.
// Statement failures come back as *database.Error; a write that matched no
// row comes back as ErrTodoNotFound.
package repository

import "errors"

// ErrTodoNotFound is returned when an update or delete matched no row.
// Handlers translate it into an HTTP 404 response.
var ErrTodoNotFound = errors.New("todo not found")
