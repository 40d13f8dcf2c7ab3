package people

import "errors"

var (
	ErrNotFound  = errors.New("person not found")
	ErrDuplicate = errors.New("employee number or email already registered")
)
