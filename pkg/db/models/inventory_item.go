package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks the current on-hand quantity per product. The row is a
// cached view over the stock movement log and must always equal its running sum.
type InventoryItem struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	Quantity  int       `gorm:"column:quantity;not null;default:0" json:"quantity"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
