// internal/models/order.go
package models

import (
	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	QuoteID         uuid.UUID          `json:"quote_id" gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID      uuid.UUID          `json:"customer_id" gorm:"type:uuid;not null;index"`
	MiddlemanID     uuid.UUID          `json:"middleman_id" gorm:"type:uuid;not null;index"`
	SupplierID      uuid.UUID          `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Status          OrderStatus        `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	TotalAmount     float64            `json:"total_amount" gorm:"type:decimal(14,2);not null"`
	Currency        string             `json:"currency" gorm:"size:3;not null"`
	PaymentStatus   OrderPaymentStatus `json:"payment_status" gorm:"type:varchar(20);default:'pending';index"`
	ShippingAddress string             `json:"shipping_address" gorm:"type:text"`

	// Relationships
	Quote     Quote        `json:"quote,omitempty" gorm:"foreignKey:QuoteID"`
	Customer  User         `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Middleman User         `json:"middleman,omitempty" gorm:"foreignKey:MiddlemanID"`
	Supplier  User         `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Documents []Document   `json:"documents,omitempty" gorm:"foreignKey:OrderID"`
	Events    []OrderEvent `json:"events,omitempty" gorm:"foreignKey:OrderID"`
	Payments  []Payment    `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
}

// Document is an append-only child of Order (trade paperwork).
type Document struct {
	BaseModel
	OrderID    uuid.UUID    `json:"order_id" gorm:"type:uuid;not null;index"`
	Type       DocumentType `json:"type" gorm:"type:varchar(30);not null;index"`
	IssuerID   uuid.UUID    `json:"issuer_id" gorm:"type:uuid;not null"`
	Recipient  string       `json:"recipient" gorm:"size:255"`
	ContentURL string       `json:"content_url" gorm:"size:500;not null"`
	StorageKey string       `json:"storage_key" gorm:"size:500"`

	// Relationships
	Issuer User `json:"issuer,omitempty" gorm:"foreignKey:IssuerID"`
}

// OrderEvent is the append-only audit trail of an order. Rows preserve
// append order via created_at plus insertion order; they are never updated.
type OrderEvent struct {
	BaseModel
	OrderID     uuid.UUID      `json:"order_id" gorm:"type:uuid;not null;index"`
	Type        OrderEventType `json:"type" gorm:"type:varchar(30);not null"`
	Description string         `json:"description" gorm:"size:500;not null"`
	ActorID     uuid.UUID      `json:"actor_id" gorm:"type:uuid"`

	// Relationships
	Actor *User `json:"actor,omitempty" gorm:"foreignKey:ActorID"`
}
