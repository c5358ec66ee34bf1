package entities

import "errors"

// Errors returned by the persistence layer, independent of the database driver.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDesignNotFound  = errors.New("design not found")
)
