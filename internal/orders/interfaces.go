package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/enums"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their failure log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, error)
	ListForExport(ctx context.Context, filters ExportFilters) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	CreateFailedOrder(ctx context.Context, failed *models.FailedOrder) error
	ListFailedOrders(ctx context.Context, params pagination.Params) ([]models.FailedOrder, error)
}
