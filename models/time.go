package models

import "time"

// Now returns the current time in the precision the store keeps, so that an
// entity serialized before and after a store round-trip is byte-identical.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
