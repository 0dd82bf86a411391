// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/config"
	"github.com/tradebridge/tradebridge-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// Quote notifications

func (s *NotificationService) SendQuoteSentNotification(quote *models.Quote) error {
	if quote.Customer == nil {
		return nil
	}

	data := map[string]interface{}{
		"CustomerName": quote.Customer.Username,
		"ProductName":  quote.Product.Name,
		"Quantity":     quote.Quantity,
		"UnitPrice":    quote.UnitPrice(),
		"Currency":     quote.Currency,
		"TradeTerm":    quote.TradeTerm,
		"ValidUntil":   quote.ValidUntil.Format("2006-01-02"),
	}

	subject := "New Quotation - " + quote.Product.Name
	tmpl := s.getEmailTemplate("quote_sent")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(quote.Customer.Email, subject, body)
}

func (s *NotificationService) SendQuoteAcceptedNotification(quote *models.Quote, order *models.Order) error {
	data := map[string]interface{}{
		"SupplierName": quote.Supplier.Username,
		"ProductName":  quote.Product.Name,
		"Quantity":     quote.Quantity,
		"TotalAmount":  order.TotalAmount,
		"Currency":     order.Currency,
		"OrderID":      order.ID,
	}

	subject := "Quote Accepted - " + quote.Product.Name
	tmpl := s.getEmailTemplate("quote_accepted")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(quote.Supplier.Email, subject, body)
}

// Payment notifications

func (s *NotificationService) SendPaymentReceivedNotification(payment *models.Payment) error {
	var payee models.User
	if err := s.db.First(&payee, payment.PayeeID).Error; err != nil {
		return fmt.Errorf("payee not found: %w", err)
	}

	data := map[string]interface{}{
		"PayeeName": payee.Username,
		"Amount":    payment.Amount,
		"Currency":  payment.Currency,
		"Method":    payment.Method,
		"OrderID":   payment.OrderID,
	}

	subject := "Payment Received"
	tmpl := s.getEmailTemplate("payment_received")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(payee.Email, subject, body)
}

// Order notifications

func (s *NotificationService) SendOrderStatusNotification(order *models.Order, status models.OrderStatus) error {
	var customer models.User
	if err := s.db.First(&customer, order.CustomerID).Error; err != nil {
		return fmt.Errorf("customer not found: %w", err)
	}

	data := map[string]interface{}{
		"CustomerName": customer.Username,
		"OrderID":      order.ID,
		"Status":       status,
	}

	subject := fmt.Sprintf("Order Update - %s", status)
	tmpl := s.getEmailTemplate("order_status")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(customer.Email, subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		fmt.Printf("Email would be sent to %s: %s\n", to, subject)
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"quote_sent": {
			Subject: "New Quotation",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>New Quotation</h2>
	<p>Hello {{.CustomerName}},</p>
	<p>You have received a quotation for "{{.ProductName}}":</p>
	<ul>
		<li>Quantity: {{.Quantity}}</li>
		<li>Unit price: {{.UnitPrice}} {{.Currency}} ({{.TradeTerm}})</li>
		<li>Valid until: {{.ValidUntil}}</li>
	</ul>
	<p>Best regards,<br>TradeBridge Team</p>
</body>
</html>`,
		},
		"quote_accepted": {
			Subject: "Quote Accepted",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Quote Accepted!</h2>
	<p>Hello {{.SupplierName}},</p>
	<p>Your quote for "{{.ProductName}}" (qty {{.Quantity}}) was accepted.</p>
	<p>Order {{.OrderID}} has been created for {{.TotalAmount}} {{.Currency}}.</p>
	<p>Best regards,<br>TradeBridge Team</p>
</body>
</html>`,
		},
		"payment_received": {
			Subject: "Payment Received",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Payment Received</h2>
	<p>Hello {{.PayeeName}},</p>
	<p>A payment of {{.Amount}} {{.Currency}} ({{.Method}}) was received for order {{.OrderID}}.</p>
	<p>Best regards,<br>TradeBridge Team</p>
</body>
</html>`,
		},
		"order_status": {
			Subject: "Order Update",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Order Update</h2>
	<p>Hello {{.CustomerName}},</p>
	<p>Order {{.OrderID}} is now <strong>{{.Status}}</strong>.</p>
	<p>Best regards,<br>TradeBridge Team</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
