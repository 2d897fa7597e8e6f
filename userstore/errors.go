package userstore

import "fmt"

type (
	// StorageError is returned when the store cannot persist its content
	StorageError struct {
		Path  string
		cause error
	}
)

func (s StorageError) Error() string {
	return fmt.Sprintf("unable to persist users to %v, cause %v", s.Path, s.cause)
}

func (s StorageError) Unwrap() error {
	return s.cause
}
