package enums

// MovementType labels a stock ledger entry.
type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

// IsValid reports whether the movement type belongs to the known set.
func (m MovementType) IsValid() bool {
	switch m {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	default:
		return false
	}
}
