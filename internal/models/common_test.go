// internal/models/common_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusRankOrdering(t *testing.T) {
	sequence := []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusPaid,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCompleted,
	}

	prev := -1
	for _, status := range sequence {
		rank, ok := status.Rank()
		assert.True(t, ok, string(status))
		assert.Greater(t, rank, prev, string(status))
		prev = rank
	}

	_, ok := OrderStatus("cancelled").Rank()
	assert.False(t, ok)
}

func TestQuoteEffectiveStatus(t *testing.T) {
	now := time.Now()

	quote := &Quote{Status: QuoteStatusSent, ValidUntil: now.Add(time.Hour)}
	assert.Equal(t, QuoteStatusSent, quote.EffectiveStatus(now))

	quote.ValidUntil = now.Add(-time.Hour)
	assert.Equal(t, QuoteStatusExpired, quote.EffectiveStatus(now))

	// Terminal states are never overridden by expiry
	quote.Status = QuoteStatusAccepted
	assert.Equal(t, QuoteStatusAccepted, quote.EffectiveStatus(now))

	quote.Status = QuoteStatusRejected
	assert.Equal(t, QuoteStatusRejected, quote.EffectiveStatus(now))
}

func TestQuoteUnitPrice(t *testing.T) {
	quote := &Quote{CostPrice: 25}
	assert.Equal(t, 25.0, quote.UnitPrice())

	selling := 41.67
	quote.SellingPrice = &selling
	assert.Equal(t, 41.67, quote.UnitPrice())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, TradeTerm("FOB").Valid())
	assert.False(t, TradeTerm("FCA").Valid())

	assert.True(t, DocumentType("packing_list").Valid())
	assert.False(t, DocumentType("warranty_card").Valid())

	assert.True(t, PaymentMethod("letter_credit").Valid())
	assert.False(t, PaymentMethod("cash").Valid())

	assert.True(t, OrderEventType("document_issued").Valid())
	assert.False(t, OrderEventType("note").Valid())
}
