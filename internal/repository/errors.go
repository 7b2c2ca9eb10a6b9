package repository

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// UserChanges lists the user fields that may be rewritten after signup.
// A nil field is left untouched.
type UserChanges struct {
	PasswordHash *string
}

func (c UserChanges) empty() bool {
	return c.PasswordHash == nil
}
