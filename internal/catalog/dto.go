package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/pkg/pagination"
	"github.com/megatech/storefront-backend/pkg/types"
)

// CreateProductInput carries a new catalog listing.
type CreateProductInput struct {
	Name            types.LocalizedString `json:"name"`
	Description     types.LocalizedString `json:"description"`
	Ingredients     types.LocalizedString `json:"ingredients"`
	Category        types.LocalizedString `json:"category"`
	SubCategory     types.LocalizedString `json:"sub_category"`
	Brand           string                `json:"brand"`
	Price           decimal.Decimal       `json:"price"`
	SalePrice       *decimal.Decimal      `json:"sale_price,omitempty"`
	Currency        string                `json:"currency,omitempty"`
	Slug            string                `json:"slug,omitempty"`
	Barcode         *string               `json:"barcode,omitempty"`
	Images          []string              `json:"images,omitempty"`
	IsActive        *bool                 `json:"is_active,omitempty"`
	InitialQuantity int                   `json:"initial_quantity,omitempty"`
}

// UpdateProductInput is the partial-update payload. Localized fields follow
// the optional-override rule: an absent language is preserved, a present one
// overwrites, including a present-but-empty string.
type UpdateProductInput struct {
	Name           *types.LocalizedUpdate `json:"name,omitempty"`
	Description    *types.LocalizedUpdate `json:"description,omitempty"`
	Ingredients    *types.LocalizedUpdate `json:"ingredients,omitempty"`
	Category       *types.LocalizedUpdate `json:"category,omitempty"`
	SubCategory    *types.LocalizedUpdate `json:"sub_category,omitempty"`
	Brand          *string                `json:"brand,omitempty"`
	Price          *decimal.Decimal       `json:"price,omitempty"`
	SalePrice      *decimal.Decimal       `json:"sale_price,omitempty"`
	ClearSalePrice bool                   `json:"clear_sale_price,omitempty"`
	Slug           *string                `json:"slug,omitempty"`
	Barcode        *string                `json:"barcode,omitempty"`
	Images         *[]string              `json:"images,omitempty"`
	IsActive       *bool                  `json:"is_active,omitempty"`
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	ActiveOnly bool
	Brand      string
	Search     string
}

// ListParams bundles filters with cursor pagination.
type ListParams struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// BulkImportRowError records why one import row was rejected.
type BulkImportRowError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BulkImportResult summarizes a bulk product import.
type BulkImportResult struct {
	Created int                  `json:"created"`
	Errors  []BulkImportRowError `json:"errors,omitempty"`
}
