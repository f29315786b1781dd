package ids

import (
	"errors"

	"github.com/segmentio/ksuid"
)

var ErrMalformed = errors.New("malformed id")

// New returns a fresh 27-character sortable identifier.
func New() string {
	return ksuid.New().String()
}

// Parse validates that s is a well-formed identifier and returns its
// canonical string form. Malformed input yields ErrMalformed so callers
// can distinguish a bad id from an absent record.
func Parse(s string) (string, error) {
	id, err := ksuid.Parse(s)
	if err != nil {
		return "", ErrMalformed
	}
	return id.String(), nil
}
