package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/pkg/types"
)

// OrderItem snapshots one purchased line at order time. Title and price are
// copied from the catalog so later product edits do not rewrite history.
type OrderItem struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID             `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Title     types.LocalizedString `gorm:"column:title;type:jsonb" json:"title"`
	Price     decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Quantity  int                   `gorm:"column:quantity;not null" json:"quantity"`
}
