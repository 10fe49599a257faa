package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/megatech/storefront-backend/internal/inventory"
	"github.com/megatech/storefront-backend/pkg/db"
	"github.com/megatech/storefront-backend/pkg/db/models"
	pkgerrors "github.com/megatech/storefront-backend/pkg/errors"
	"github.com/megatech/storefront-backend/pkg/logger"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

const defaultCurrency = "GEL"

// slugRetries caps the collision retries when generating a unique slug.
const slugRetries = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the multilingual product catalog.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, params ListParams) (pagination.Page[models.Product], error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkImport(ctx context.Context, inputs []CreateProductInput) (*BulkImportResult, error)
}

type service struct {
	repo  Repository
	tx    txRunner
	stock inventory.Service
	logg  *logger.Logger
}

// NewService builds the catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock inventory.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, stock: stock, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Ingredients: input.Ingredients,
		Category:    input.Category,
		SubCategory: input.SubCategory,
		Brand:       strings.TrimSpace(input.Brand),
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		Currency:    currencyOrDefault(input.Currency),
		Barcode:     input.Barcode,
		Images:      input.Images,
		IsActive:    true,
		Inventory:   &models.InventoryItem{Quantity: 0},
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(input.Name.Any())
	}
	product.Slug = slug
	product.Inventory.ProductID = product.ID

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var createErr error
		for attempt := 0; attempt <= slugRetries; attempt++ {
			createErr = repo.Create(ctx, product)
			if createErr == nil {
				break
			}
			if !db.IsUniqueViolation(createErr, "slug") {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "creating product")
			}
			if input.Slug != "" {
				// explicit slugs are not silently rewritten
				return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
			}
			product.Slug = WithSlugSuffix(slug)
		}
		if createErr != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}

		if input.InitialQuantity > 0 {
			_, err := s.stock.Add(ctx, tx, inventory.MovementInput{
				ProductID: product.ID,
				Quantity:  input.InitialQuantity,
				Actor:     "admin",
				Reason:    "initial stock",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithProductID(ctx, product.ID.String())
	s.logg.Info(ctx, "product created")
	return s.GetByID(ctx, product.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}

	product.Name = product.Name.Merge(input.Name)
	product.Description = product.Description.Merge(input.Description)
	product.Ingredients = product.Ingredients.Merge(input.Ingredients)
	product.Category = product.Category.Merge(input.Category)
	product.SubCategory = product.SubCategory.Merge(input.SubCategory)

	if product.Name.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be emptied")
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.Price = *input.Price
	}
	if input.ClearSalePrice {
		product.SalePrice = nil
	} else if input.SalePrice != nil {
		if input.SalePrice.LessThanOrEqual(decimal.Zero) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
		}
		product.SalePrice = input.SalePrice
	}
	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be empty")
		}
		product.Slug = slug
	}
	if input.Barcode != nil {
		product.Barcode = input.Barcode
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving product")
	}

	ctx = s.logg.WithProductID(ctx, product.ID.String())
	s.logg.Info(ctx, "product updated")
	return s.GetByID(ctx, product.ID)
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	return product, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[models.Product], error) {
	products, err := s.repo.List(ctx, params.Pagination, params.Filters)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}
	return pagination.NewPage(products, params.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting product")
	}

	ctx = s.logg.WithProductID(ctx, id.String())
	s.logg.Info(ctx, "product deleted")
	return nil
}

// BulkImport creates products row by row so one bad entry does not sink the
// whole upload. Failures are reported per index.
func (s *service) BulkImport(ctx context.Context, inputs []CreateProductInput) (*BulkImportResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no products to import")
	}

	result := &BulkImportResult{}
	for i, input := range inputs {
		if _, err := s.Create(ctx, input); err != nil {
			message := "import failed"
			if appErr := pkgerrors.As(err); appErr != nil {
				message = appErr.Message()
			}
			result.Errors = append(result.Errors, BulkImportRowError{Index: i, Message: message})
			continue
		}
		result.Created++
	}

	s.logg.Info(ctx, fmt.Sprintf("bulk import finished: %d created, %d failed", result.Created, len(result.Errors)))
	return result, nil
}

func validateCreateInput(input CreateProductInput) error {
	if input.Name.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required in at least one language")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.SalePrice != nil && input.SalePrice.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be positive")
	}
	if input.InitialQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial quantity cannot be negative")
	}
	return nil
}

func currencyOrDefault(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return defaultCurrency
	}
	return currency
}
