package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/megatech/storefront-backend/pkg/enums"
)

// StockMovement is the append-only audit entry for a single inventory change.
type StockMovement struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Type      enums.MovementType `gorm:"column:type;not null" json:"type"`
	Quantity  int                `gorm:"column:quantity;not null" json:"quantity"`
	Before    int                `gorm:"column:before_qty;not null" json:"before"`
	After     int                `gorm:"column:after_qty;not null" json:"after"`
	Actor     string             `gorm:"column:actor;not null" json:"actor"`
	Reason    string             `gorm:"column:reason" json:"reason"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
