// internal/models/quote.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Quote struct {
	BaseModel
	ProductID     uuid.UUID   `json:"product_id" gorm:"type:uuid;not null;index"`
	SupplierID    uuid.UUID   `json:"supplier_id" gorm:"type:uuid;not null;index"`
	MiddlemanID   *uuid.UUID  `json:"middleman_id" gorm:"type:uuid;index"`
	CustomerID    *uuid.UUID  `json:"customer_id" gorm:"type:uuid;index"`
	Quantity      int         `json:"quantity" gorm:"not null"`
	CostPrice     float64     `json:"cost_price" gorm:"type:decimal(12,2);not null"`
	SellingPrice  *float64    `json:"selling_price" gorm:"type:decimal(12,2)"`
	MarginPercent *float64    `json:"margin_percent" gorm:"type:decimal(6,2)"`
	Currency      string      `json:"currency" gorm:"size:3;not null"`
	TradeTerm     TradeTerm   `json:"trade_term" gorm:"type:varchar(3);not null"`
	ValidUntil    time.Time   `json:"valid_until" gorm:"not null;index"`
	Status        QuoteStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	Notes         string      `json:"notes,omitempty" gorm:"type:text"`

	// OrderID back-references the order spawned on acceptance; it is the
	// guard against creating two orders from one quote.
	OrderID *uuid.UUID `json:"order_id" gorm:"type:uuid;uniqueIndex"`

	// Relationships
	Product   Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Supplier  User    `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Middleman *User   `json:"middleman,omitempty" gorm:"foreignKey:MiddlemanID"`
	Customer  *User   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// IsExpired derives expiry at read time; no background process flips the
// stored status.
func (q *Quote) IsExpired(now time.Time) bool {
	return q.ValidUntil.Before(now)
}

// EffectiveStatus reports expired for quotes past their validity window
// regardless of the stored status, unless the quote already reached a
// terminal state.
func (q *Quote) EffectiveStatus(now time.Time) QuoteStatus {
	if q.Status == QuoteStatusAccepted || q.Status == QuoteStatusRejected {
		return q.Status
	}
	if q.IsExpired(now) {
		return QuoteStatusExpired
	}
	return q.Status
}

// UnitPrice is the selling price when set, otherwise the cost price.
func (q *Quote) UnitPrice() float64 {
	if q.SellingPrice != nil {
		return *q.SellingPrice
	}
	return q.CostPrice
}
