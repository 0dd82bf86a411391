// internal/services/analytics_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradebridge/tradebridge-backend/internal/models"
)

type AnalyticsService struct {
	db *gorm.DB
}

type ProfitAnalysis struct {
	Revenue       float64 `json:"revenue"`
	Cost          float64 `json:"cost"`
	Profit        float64 `json:"profit"`
	MarginPercent float64 `json:"margin_percent"`
	OrderCount    int64   `json:"order_count"`
}

// Notification is derived on demand from pending work; nothing is stored.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Reference uuid.UUID `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

type DashboardStats struct {
	TotalUsers     int64            `json:"total_users"`
	TotalProducts  int64            `json:"total_products"`
	TotalQuotes    int64            `json:"total_quotes"`
	TotalOrders    int64            `json:"total_orders"`
	TotalRevenue   float64          `json:"total_revenue"`
	UsersByRole    map[string]int64 `json:"users_by_role"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// GetProfitAnalysis aggregates revenue, cost and margin over the actor's
// orders. Revenue is the frozen order total; cost comes from the source
// quote. A zero-revenue window reports zero margin.
func (s *AnalyticsService) GetProfitAnalysis(actorID uuid.UUID, actorRole models.UserRole, from, to *time.Time) (*ProfitAnalysis, error) {
	type row struct {
		Revenue    float64
		Cost       float64
		OrderCount int64
	}

	query := s.db.Model(&models.Order{}).
		Select("COALESCE(SUM(orders.total_amount), 0) AS revenue, "+
			"COALESCE(SUM(quotes.cost_price * quotes.quantity), 0) AS cost, "+
			"COUNT(orders.id) AS order_count").
		Joins("JOIN quotes ON quotes.id = orders.quote_id")

	if actorRole != models.UserRoleAdmin {
		query = query.Where("orders.supplier_id = ? OR orders.middleman_id = ? OR orders.customer_id = ?",
			actorID, actorID, actorID)
	}
	if from != nil {
		query = query.Where("orders.created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("orders.created_at < ?", *to)
	}

	var r row
	if err := query.Scan(&r).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate profit: %w", err)
	}

	analysis := &ProfitAnalysis{
		Revenue:    roundMoney(r.Revenue),
		Cost:       roundMoney(r.Cost),
		Profit:     roundMoney(r.Revenue - r.Cost),
		OrderCount: r.OrderCount,
	}
	if r.Revenue != 0 {
		analysis.MarginPercent = (r.Revenue - r.Cost) / r.Revenue * 100
	}

	return analysis, nil
}

// GetNotifications derives the actor's pending-attention items: sent
// quotes expiring within 24 hours and confirmed orders still awaiting
// payment. Notifications are ephemeral and always unread.
func (s *AnalyticsService) GetNotifications(actorID uuid.UUID) ([]Notification, error) {
	now := time.Now()
	notifications := []Notification{}

	// Quotes about to expire concern the parties who can still act on them
	var expiringQuotes []models.Quote
	if err := s.db.Where("status = ?", models.QuoteStatusSent).
		Where("valid_until > ? AND valid_until < ?", now, now.Add(24*time.Hour)).
		Where("supplier_id = ? OR middleman_id = ?", actorID, actorID).
		Preload("Product").
		Find(&expiringQuotes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch expiring quotes: %w", err)
	}

	for _, quote := range expiringQuotes {
		notifications = append(notifications, Notification{
			ID:        fmt.Sprintf("quote_expiring_%s", quote.ID),
			Type:      "quote_expiring",
			Message:   fmt.Sprintf("Quote for %s expires on %s", quote.Product.Name, quote.ValidUntil.Format("2006-01-02 15:04")),
			Reference: quote.ID,
			CreatedAt: now,
			Read:      false,
		})
	}

	// Confirmed orders with no settled payment nudge the paying side
	var unpaidOrders []models.Order
	if err := s.db.Where("status = ? AND payment_status = ?",
		models.OrderStatusConfirmed, models.OrderPaymentStatusPending).
		Where("middleman_id = ? OR customer_id = ?", actorID, actorID).
		Find(&unpaidOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch unpaid orders: %w", err)
	}

	for _, order := range unpaidOrders {
		notifications = append(notifications, Notification{
			ID:        fmt.Sprintf("payment_due_%s", order.ID),
			Type:      "payment_due",
			Message:   fmt.Sprintf("Order %s is confirmed and awaiting payment of %.2f %s", order.ID, order.TotalAmount, order.Currency),
			Reference: order.ID,
			CreatedAt: now,
			Read:      false,
		})
	}

	return notifications, nil
}

// GetDashboardStats aggregates platform-wide counts for the admin view.
func (s *AnalyticsService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		UsersByRole:    make(map[string]int64),
		OrdersByStatus: make(map[string]int64),
	}

	if err := s.db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := s.db.Model(&models.Quote{}).Count(&stats.TotalQuotes).Error; err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}
	if err := s.db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var revenue float64
	if err := s.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("payment_status = ?", models.OrderPaymentStatusPaid).
		Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.TotalRevenue = roundMoney(revenue)

	type roleCount struct {
		Role  string
		Count int64
	}
	var roleCounts []roleCount
	if err := s.db.Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&roleCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	for _, rc := range roleCounts {
		stats.UsersByRole[rc.Role] = rc.Count
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var statusCounts []statusCount
	if err := s.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, sc := range statusCounts {
		stats.OrdersByStatus[sc.Status] = sc.Count
	}

	return stats, nil
}
