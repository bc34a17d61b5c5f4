package domain

import "context"

// Place is a geocoding result: a resolved point plus the provider's display
// name for it.
type Place struct {
	Point
	DisplayName string
}

// Geocoder resolves a free-text place name to coordinates. Implementations
// return an InvalidQueryError when the place does not resolve to anything,
// and a plain error for transport failures.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (Place, error)
}
