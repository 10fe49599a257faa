package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/pkg/types"
)

// FailedOrderItem captures one attempted line of a failed order.
type FailedOrderItem struct {
	ProductID uuid.UUID             `json:"product_id"`
	Title     types.LocalizedString `json:"title"`
	Price     decimal.Decimal       `json:"price"`
	Quantity  int                   `json:"quantity"`
}

// FailedOrder is the diagnostic record written when order placement aborts.
// Read-only after creation; operational visibility only.
type FailedOrder struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Client    OrderClient       `gorm:"embedded" json:"client"`
	Items     []FailedOrderItem `gorm:"column:items;type:jsonb;serializer:json" json:"items"`
	Reason    string            `gorm:"column:reason" json:"reason"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
