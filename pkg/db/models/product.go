package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/pkg/types"
)

// Product is the canonical catalog listing with per-language content.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        types.LocalizedString `gorm:"column:name;type:jsonb" json:"name"`
	Description types.LocalizedString `gorm:"column:description;type:jsonb" json:"description"`
	Ingredients types.LocalizedString `gorm:"column:ingredients;type:jsonb" json:"ingredients"`
	Category    types.LocalizedString `gorm:"column:category;type:jsonb" json:"category"`
	SubCategory types.LocalizedString `gorm:"column:sub_category;type:jsonb" json:"sub_category"`
	Brand       string                `gorm:"column:brand;index" json:"brand"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	SalePrice   *decimal.Decimal      `gorm:"column:sale_price;type:numeric(12,2)" json:"sale_price,omitempty"`
	Currency    string                `gorm:"column:currency;not null;default:'GEL'" json:"currency"`
	Slug        string                `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Barcode     *string               `gorm:"column:barcode;index" json:"barcode,omitempty"`
	Images      pq.StringArray        `gorm:"column:images;type:text[]" json:"images"`
	IsActive    bool                  `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	Inventory   *InventoryItem        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"inventory,omitempty"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
