package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for inventory rows and the
// stock movement log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetQuantity(ctx context.Context, productID uuid.UUID) (int, bool, error)
	Increment(ctx context.Context, productID uuid.UUID, qty int) error
	Decrement(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	SetQuantity(ctx context.Context, productID uuid.UUID, qty int) error
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListItems(ctx context.Context, params pagination.Params) ([]models.InventoryItem, error)
	ListMovements(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.StockMovement, error)
}
