// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key in Go so the same models work on
// PostgreSQL and on the sqlite databases used by tests.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// StringMap is a string-to-string JSONB column (product specifications).
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Enums
type UserRole string

const (
	UserRoleSupplier  UserRole = "supplier"
	UserRoleMiddleman UserRole = "middleman"
	UserRoleCustomer  UserRole = "customer"
	UserRoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// TradeTerm is the Incoterm governing the shipping/cost responsibility split.
type TradeTerm string

const (
	TradeTermEXW TradeTerm = "EXW"
	TradeTermFOB TradeTerm = "FOB"
	TradeTermCIF TradeTerm = "CIF"
	TradeTermDDP TradeTerm = "DDP"
)

func (t TradeTerm) Valid() bool {
	switch t {
	case TradeTermEXW, TradeTermFOB, TradeTermCIF, TradeTermDDP:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
)

// orderStatusRank fixes the forward-only ordering of order statuses.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusPaid:      2,
	OrderStatusShipped:   3,
	OrderStatusDelivered: 4,
	OrderStatusCompleted: 5,
}

func (s OrderStatus) Rank() (int, bool) {
	r, ok := orderStatusRank[s]
	return r, ok
}

type OrderPaymentStatus string

const (
	OrderPaymentStatusPending OrderPaymentStatus = "pending"
	OrderPaymentStatusPaid    OrderPaymentStatus = "paid"
	OrderPaymentStatusPartial OrderPaymentStatus = "partial"
)

type DocumentType string

const (
	DocumentTypeProformaInvoice   DocumentType = "proforma_invoice"
	DocumentTypeCommercialInvoice DocumentType = "commercial_invoice"
	DocumentTypePackingList       DocumentType = "packing_list"
	DocumentTypeBillOfLading      DocumentType = "bill_of_lading"
	DocumentTypeCertificateOrigin DocumentType = "certificate_origin"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeProformaInvoice, DocumentTypeCommercialInvoice,
		DocumentTypePackingList, DocumentTypeBillOfLading, DocumentTypeCertificateOrigin:
		return true
	}
	return false
}

type OrderEventType string

const (
	OrderEventCreated         OrderEventType = "created"
	OrderEventQuoteSent       OrderEventType = "quote_sent"
	OrderEventPaymentReceived OrderEventType = "payment_received"
	OrderEventShipped         OrderEventType = "shipped"
	OrderEventDelivered       OrderEventType = "delivered"
	OrderEventStatusChanged   OrderEventType = "status_changed"
	OrderEventDocumentIssued  OrderEventType = "document_issued"
)

func (t OrderEventType) Valid() bool {
	switch t {
	case OrderEventCreated, OrderEventQuoteSent, OrderEventPaymentReceived,
		OrderEventShipped, OrderEventDelivered, OrderEventStatusChanged, OrderEventDocumentIssued:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodLetterCredit PaymentMethod = "letter_credit"
	PaymentMethodCrypto       PaymentMethod = "crypto"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodLetterCredit, PaymentMethodCrypto:
		return true
	}
	return false
}
