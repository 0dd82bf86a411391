// internal/models/product.go
package models

import (
	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	Name           string    `json:"name" gorm:"size:255;not null"`
	Category       string    `json:"category" gorm:"size:100;index"`
	Description    string    `json:"description" gorm:"type:text"`
	ImageURL       string    `json:"image_url" gorm:"size:500"`
	Specifications StringMap `json:"specifications" gorm:"type:jsonb"`
	MinOrderQty    int       `json:"min_order_qty" gorm:"not null"`
	LeadTimeDays   int       `json:"lead_time_days" gorm:"not null"`
	SupplierID     uuid.UUID `json:"supplier_id" gorm:"type:uuid;not null;index"`

	// Relationships
	Supplier User    `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Quotes   []Quote `json:"quotes,omitempty" gorm:"foreignKey:ProductID"`
}
