package domain

import (
	"errors"
	"fmt"
)

// InvalidQueryError means the query itself makes filtering meaningless, for
// example a non-positive radius or a place name the geocoder cannot resolve.
// It fails the whole request rather than degrading it.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// IsInvalidQuery reports whether err wraps an InvalidQueryError.
func IsInvalidQuery(err error) bool {
	var iq *InvalidQueryError
	return errors.As(err, &iq)
}

// IntegrityError means an event reached the AOI filter with coordinates the
// normalizers should have rejected. It indicates a bug upstream, not bad feed
// data, so the filter fails loudly instead of guessing.
type IntegrityError struct {
	Source Source
	ID     string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s event %q: %s", e.Source, e.ID, e.Detail)
}
