package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/megatech/storefront-backend/pkg/enums"
	"github.com/megatech/storefront-backend/pkg/pagination"
)

// ClientInput is the customer contact block on a new order.
type ClientInput struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// OrderLineInput is one requested product line.
type OrderLineInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	Client ClientInput      `json:"client"`
	Items  []OrderLineInput `json:"items"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status enums.OrderStatus
	Email  string
}

// ListParams bundles filters with cursor pagination.
type ListParams struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ExportFilters scope the CSV export. Zero times mean unbounded.
type ExportFilters struct {
	Status enums.OrderStatus
	From   time.Time
	To     time.Time
}
