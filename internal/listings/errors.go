package listings

import "errors"

var (
	// ErrListingNotFound is returned when no listing has the requested id
	ErrListingNotFound = errors.New("listing not found")

	// ErrInvalidCity is returned for city codes outside the supported set
	ErrInvalidCity = errors.New("unknown city code")

	// ErrInvalidDealType is returned for deal types other than rent or buy
	ErrInvalidDealType = errors.New("unknown deal type")

	// ErrInvalidRooms is returned for room categories other than 1, 2 or 3+
	ErrInvalidRooms = errors.New("unknown room category")
)
