package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError under errors.Is.
var ErrNotFound = errors.New("catalog: entry not found")

// NotFoundError is returned by the generated Lookup method when no entry
// of Catalog is registered under Name.
type NotFoundError struct {
	Catalog string
	Name    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("catalog: no %s entry named %q", e.Catalog, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError reports that catalog has no entry named name.
func NewNotFoundError(catalog, name string) error {
	return &NotFoundError{Catalog: catalog, Name: name}
}

// IsNotFound reports whether err is, or wraps, a lookup miss.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
