package users

import (
	"fmt"

	"github.com/odyssey-erp/userdir/internal/shared"
)

// ErrNotFound is returned when an operation references an id that is not stored.
var ErrNotFound = fmt.Errorf("user %w", shared.ErrNotFound)

// User is a directory entry.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// UserInput carries the editable fields of a User. Ids are always assigned by the store.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
