package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/megatech/storefront-backend/pkg/enums"
)

// OrderClient is the contact block embedded in each order.
type OrderClient struct {
	FirstName       string     `gorm:"column:client_first_name;not null" json:"first_name"`
	LastName        string     `gorm:"column:client_last_name;not null" json:"last_name"`
	Email           string     `gorm:"column:client_email;not null;index" json:"email"`
	PhoneNumber     string     `gorm:"column:client_phone_number;not null" json:"phone_number"`
	EmailVerified   bool       `gorm:"column:client_email_verified;not null;default:false" json:"email_verified"`
	EmailVerifiedAt *time.Time `gorm:"column:client_email_verified_at" json:"email_verified_at,omitempty"`
}

// Order is the customer purchase aggregate.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Status           enums.OrderStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	Client           OrderClient       `gorm:"embedded" json:"client"`
	PaymentIntentID  *string           `gorm:"column:payment_intent_id" json:"payment_intent_id,omitempty"`
	PaymentReference *string           `gorm:"column:payment_reference;uniqueIndex" json:"payment_reference,omitempty"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
