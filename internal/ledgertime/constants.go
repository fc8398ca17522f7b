package ledgertime

const (
	// DefaultUnitDuration is the reference tick width of one slot, used by
	// the demo binary and throughout the test suite.
	DefaultUnitDuration Tick = 400

	// DefaultSlotsPerEra splits an era into four slots, mirroring the
	// quarter-style display decomposition of the reference configuration.
	DefaultSlotsPerEra uint64 = 4

	// DefaultValiditySlots is the reference two-slot validity window: a
	// batch minted in slot k stops being spendable when slot k+2 begins.
	DefaultValiditySlots uint64 = 2
)

// DefaultWindow returns the reference window configuration.
func DefaultWindow() Window {
	return Window{
		UnitDuration:  DefaultUnitDuration,
		SlotsPerEra:   DefaultSlotsPerEra,
		ValiditySlots: DefaultValiditySlots,
	}
}
