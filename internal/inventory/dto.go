package inventory

import "github.com/google/uuid"

// MovementInput carries the parameters for a stock receipt or withdrawal.
type MovementInput struct {
	ProductID uuid.UUID
	Quantity  int
	Actor     string
	Reason    string
}

// AdjustInput sets the on-hand quantity to an absolute target, recording the
// delta as an adjustment movement.
type AdjustInput struct {
	ProductID      uuid.UUID
	TargetQuantity int
	Actor          string
	Reason         string
}
