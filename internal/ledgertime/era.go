package ledgertime

import "math"

// Era is a fixed run of SlotsPerEra consecutive slots. It exists for
// reporting and the era-scoped balance query; expiry is decided on slots.
type Era uint64

// MaxEra is the last representable era.
const MaxEra Era = math.MaxUint64

// Next returns the following era, staying at MaxEra once reached.
func (e Era) Next() Era {
	if e == MaxEra {
		return e
	}
	return e + 1
}

// Prev returns the preceding era, staying at zero once reached.
func (e Era) Prev() Era {
	if e == 0 {
		return e
	}
	return e - 1
}
