package domain

// Denomination identifies which of the two accepted currencies a
// purchase is paid in.
type Denomination string

const (
	DenominationNative Denomination = "native"
	DenominationToken  Denomination = "token"
)

// ParseDenomination maps the wire value to a Denomination.
func ParseDenomination(s string) (Denomination, bool) {
	switch Denomination(s) {
	case DenominationNative:
		return DenominationNative, true
	case DenominationToken:
		return DenominationToken, true
	}
	return "", false
}

// Event is a sellable batch of tickets. Invariant: SoldCount <= Capacity
// at every observable point, and Capacity never decreases.
type Event struct {
	ID          uint64
	SoldCount   uint64
	Capacity    uint64
	PriceNative uint64
	PriceToken  uint64
}

// PriceFor returns the per-ticket price in the given denomination,
// in that currency's smallest unit.
func (e Event) PriceFor(d Denomination) uint64 {
	if d == DenominationToken {
		return e.PriceToken
	}
	return e.PriceNative
}

// Remaining returns how many tickets are still sellable.
func (e Event) Remaining() uint64 {
	return e.Capacity - e.SoldCount
}
