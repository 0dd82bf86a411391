// internal/services/document_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/apperrors"
	"github.com/tradebridge/tradebridge-backend/internal/database"
	"github.com/tradebridge/tradebridge-backend/internal/models"
	"github.com/tradebridge/tradebridge-backend/internal/utils"
)

type DocumentService struct {
	db             *gorm.DB
	storageService *StorageService
	orderService   *OrderService
}

type GenerateDocumentRequest struct {
	Type      string `json:"type" validate:"required"`
	Recipient string `json:"recipient,omitempty" validate:"omitempty,max=255"`
}

// documentTitles maps each document type to its rendered heading.
var documentTitles = map[models.DocumentType]string{
	models.DocumentTypeProformaInvoice:   "Proforma Invoice",
	models.DocumentTypeCommercialInvoice: "Commercial Invoice",
	models.DocumentTypePackingList:       "Packing List",
	models.DocumentTypeBillOfLading:      "Bill of Lading",
	models.DocumentTypeCertificateOrigin: "Certificate of Origin",
}

var documentTemplate = template.Must(template.New("trade_document").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>Document No: {{.DocumentNo}}</p>
<p>Issue Date: {{.IssueDate}}</p>
<hr>
<h2>Parties</h2>
<p>Supplier: {{.SupplierName}} ({{.SupplierCountry}})</p>
<p>Buyer: {{.CustomerName}} ({{.CustomerCountry}})</p>
{{if .Recipient}}<p>Attention: {{.Recipient}}</p>{{end}}
<h2>Goods</h2>
<table border="1" cellpadding="4">
<tr><th>Description</th><th>Quantity</th><th>Unit Price</th><th>Amount</th></tr>
<tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{printf "%.2f" .UnitPrice}} {{.Currency}}</td><td>{{printf "%.2f" .TotalAmount}} {{.Currency}}</td></tr>
</table>
<p>Trade Term: {{.TradeTerm}}</p>
<p>Total: {{printf "%.2f" .TotalAmount}} {{.Currency}}</p>
{{if .ShippingAddress}}<h2>Delivery</h2><p>{{.ShippingAddress}}</p>{{end}}
</body>
</html>`))

func NewDocumentService(db *gorm.DB, storageService *StorageService, orderService *OrderService) *DocumentService {
	return &DocumentService{
		db:             db,
		storageService: storageService,
		orderService:   orderService,
	}
}

// GenerateDocument renders the trade document for an order, uploads it,
// and records it on the order with a document_issued event. Rendering and
// upload failures surface as generation failures; the upload is retried
// once before giving up.
func (s *DocumentService) GenerateDocument(orderID, issuerID uuid.UUID, req *GenerateDocumentRequest) (*models.Document, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "validation failed")
	}

	docType := models.DocumentType(req.Type)
	if !docType.Valid() {
		return nil, apperrors.Newf(apperrors.KindValidation, "invalid document type: %s", req.Type)
	}

	var order models.Order
	if err := s.db.Preload("Quote").Preload("Quote.Product").
		Preload("Customer").Preload("Supplier").
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !s.orderService.isParty(&order, issuerID) {
		var issuer models.User
		if err := s.db.First(&issuer, issuerID).Error; err != nil || issuer.Role != models.UserRoleAdmin {
			return nil, apperrors.New(apperrors.KindForbidden, "unauthorized to issue documents for order")
		}
	}

	content, err := s.renderDocument(&order, docType, req.Recipient)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindGenerationFailed, err, "failed to render document")
	}

	key := s.storageService.DocumentKey(order.ID, string(docType))
	result, err := s.storageService.Upload(key, content, "text/html")
	if err != nil {
		// One retry before reporting failure
		result, err = s.storageService.Upload(key, content, "text/html")
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindGenerationFailed, err, "failed to store document")
		}
	}

	document := &models.Document{
		OrderID:    order.ID,
		Type:       docType,
		IssuerID:   issuerID,
		Recipient:  req.Recipient,
		ContentURL: result.URL,
		StorageKey: result.Key,
	}

	if err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(document).Error; err != nil {
			return fmt.Errorf("failed to record document: %w", err)
		}
		return s.orderService.AppendEvent(tx, order.ID, models.OrderEventDocumentIssued,
			fmt.Sprintf("Document %s issued", docType), issuerID)
	}); err != nil {
		return nil, err
	}

	return document, nil
}

// ListDocuments returns an order's documents, newest first.
func (s *DocumentService) ListDocuments(orderID, actorID uuid.UUID, actorRole models.UserRole) ([]models.Document, error) {
	if _, err := s.orderService.GetOrder(orderID, actorID, actorRole); err != nil {
		return nil, err
	}

	var documents []models.Document
	if err := s.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Preload("Issuer").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}

	return documents, nil
}

// GetDownloadURL returns a time-limited download link for one of an
// order's documents. Access follows the order's visibility rules.
func (s *DocumentService) GetDownloadURL(orderID, documentID, actorID uuid.UUID, actorRole models.UserRole) (string, error) {
	if _, err := s.orderService.GetOrder(orderID, actorID, actorRole); err != nil {
		return "", err
	}

	var document models.Document
	if err := s.db.Where("id = ? AND order_id = ?", documentID, orderID).
		First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound("document")
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	url, err := s.storageService.GeneratePresignedURL(document.StorageKey, 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return url, nil
}

func (s *DocumentService) renderDocument(order *models.Order, docType models.DocumentType, recipient string) ([]byte, error) {
	data := map[string]interface{}{
		"Title":           documentTitles[docType],
		"DocumentNo":      fmt.Sprintf("%s-%s", docType, order.ID),
		"IssueDate":       time.Now().Format("2006-01-02"),
		"SupplierName":    order.Supplier.CompanyName,
		"SupplierCountry": order.Supplier.Country,
		"CustomerName":    order.Customer.CompanyName,
		"CustomerCountry": order.Customer.Country,
		"Recipient":       recipient,
		"ProductName":     order.Quote.Product.Name,
		"Quantity":        order.Quote.Quantity,
		"UnitPrice":       order.Quote.UnitPrice(),
		"TotalAmount":     order.TotalAmount,
		"Currency":        order.Currency,
		"TradeTerm":       order.Quote.TradeTerm,
		"ShippingAddress": order.ShippingAddress,
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
