// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment records one settlement attempt against an order. A payment is
// immutable once completed or failed; retries create new rows.
type Payment struct {
	BaseModel
	OrderID           uuid.UUID     `json:"order_id" gorm:"type:uuid;not null;index"`
	PayerID           uuid.UUID     `json:"payer_id" gorm:"type:uuid;not null;index"`
	PayeeID           uuid.UUID     `json:"payee_id" gorm:"type:uuid;not null;index"`
	Amount            float64       `json:"amount" gorm:"type:decimal(14,2);not null"`
	Currency          string        `json:"currency" gorm:"size:3;not null"`
	Status            PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Method            PaymentMethod `json:"method" gorm:"type:varchar(20);not null"`
	ProviderReference string        `json:"provider_reference,omitempty" gorm:"size:255"`
	FailureReason     string        `json:"failure_reason,omitempty" gorm:"type:text"`
	ProcessedAt       *time.Time    `json:"processed_at"`

	// Relationships
	Order Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Payer User  `json:"payer,omitempty" gorm:"foreignKey:PayerID"`
	Payee User  `json:"payee,omitempty" gorm:"foreignKey:PayeeID"`
}
