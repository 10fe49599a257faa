package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/pkg/db/models"
	"github.com/megatech/storefront-backend/pkg/enums"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains per-product stock levels. Every change flows through the
// movement log so the on-hand quantity can always be audited back to its
// receipts, withdrawals and adjustments.
type Service interface {
	Add(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error)
	Remove(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error)
	Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.StockMovement, error)
	Quantity(ctx context.Context, productID uuid.UUID) (int, error)
	Stocks(ctx context.Context, params pagination.Params) (pagination.Page[models.InventoryItem], error)
	Movements(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.StockMovement], error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the inventory service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

// inTx runs fn inside the caller's transaction when one is supplied,
// otherwise opens a new one.
func (s *service) inTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.tx.WithTx(ctx, fn)
}

func (s *service) Add(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error) {
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Increment(ctx, input.ProductID, input.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "incrementing stock")
		}
		after, _, err := repo.GetQuantity(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading stock after increment")
		}
		movement = &models.StockMovement{
			ProductID: input.ProductID,
			Type:      enums.MovementIn,
			Quantity:  input.Quantity,
			Before:    after - input.Quantity,
			After:     after,
			Actor:     actorOrSystem(input.Actor),
			Reason:    input.Reason,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording stock movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithProductID(ctx, input.ProductID.String())
	s.logg.Info(ctx, "stock received")
	return movement, nil
}

func (s *service) Remove(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.StockMovement, error) {
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.Decrement(ctx, input.ProductID, input.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrementing stock")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
				WithDetails(map[string]any{"product_id": input.ProductID, "requested": input.Quantity})
		}
		after, _, err := repo.GetQuantity(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading stock after decrement")
		}
		movement = &models.StockMovement{
			ProductID: input.ProductID,
			Type:      enums.MovementOut,
			Quantity:  input.Quantity,
			Before:    after + input.Quantity,
			After:     after,
			Actor:     actorOrSystem(input.Actor),
			Reason:    input.Reason,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording stock movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithProductID(ctx, input.ProductID.String())
	s.logg.Info(ctx, "stock withdrawn")
	return movement, nil
}

func (s *service) Adjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.StockMovement, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.TargetQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target quantity cannot be negative")
	}

	var movement *models.StockMovement
	err := s.inTx(ctx, tx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		before, _, err := repo.GetQuantity(ctx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading stock before adjust")
		}
		if err := repo.SetQuantity(ctx, input.ProductID, input.TargetQuantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "setting stock quantity")
		}
		movement = &models.StockMovement{
			ProductID: input.ProductID,
			Type:      enums.MovementAdjust,
			Quantity:  input.TargetQuantity - before,
			Before:    before,
			After:     input.TargetQuantity,
			Actor:     actorOrSystem(input.Actor),
			Reason:    input.Reason,
		}
		if err := repo.CreateMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording stock movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithProductID(ctx, input.ProductID.String())
	s.logg.Info(ctx, "stock adjusted")
	return movement, nil
}

func (s *service) Quantity(ctx context.Context, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	qty, found, err := s.repo.GetQuantity(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading stock quantity")
	}
	if !found {
		return 0, nil
	}
	return qty, nil
}

func (s *service) Stocks(ctx context.Context, params pagination.Params) (pagination.Page[models.InventoryItem], error) {
	items, err := s.repo.ListItems(ctx, params)
	if err != nil {
		return pagination.Page[models.InventoryItem]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing stock levels")
	}
	return pagination.NewPage(items, params.Limit, func(i models.InventoryItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.UpdatedAt, ID: i.ProductID}
	}), nil
}

// Movements pages the audit log, newest first. A nil product id spans the
// whole catalog.
func (s *service) Movements(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.StockMovement], error) {
	movements, err := s.repo.ListMovements(ctx, productID, params)
	if err != nil {
		return pagination.Page[models.StockMovement]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing stock movements")
	}
	return pagination.NewPage(movements, params.Limit, func(m models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	}), nil
}

func validateMovementInput(input MovementInput) error {
	if input.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}
