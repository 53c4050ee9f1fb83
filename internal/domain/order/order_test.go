package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_StatusDerivation(t *testing.T) {
	now := time.Now()
	o := &Order{
		ID:    "o1",
		Total: decimal.NewFromInt(130000),
	}
	assert.Equal(t, StatusPending, o.Status())

	o.PaymentHistory = append(o.PaymentHistory, PaymentEvent{
		Amount: decimal.NewFromInt(100000), Method: "cash", PaidAt: now,
	})
	assert.Equal(t, StatusPending, o.Status())
	assert.True(t, o.Outstanding().Equal(decimal.NewFromInt(30000)))

	o.PaymentHistory = append(o.PaymentHistory, PaymentEvent{
		Amount: decimal.NewFromInt(30000), Method: "transfer", PaidAt: now,
	})
	assert.Equal(t, StatusCompleted, o.Status())
	assert.True(t, o.Outstanding().IsZero())

	// Overpayment stays completed with zero outstanding.
	o.PaymentHistory = append(o.PaymentHistory, PaymentEvent{
		Amount: decimal.NewFromInt(5000), Method: "cash", PaidAt: now,
	})
	assert.Equal(t, StatusCompleted, o.Status())
	assert.True(t, o.Outstanding().IsZero())
}

func TestOrder_CancelledWinsOverPayment(t *testing.T) {
	o := &Order{
		Total:     decimal.NewFromInt(100),
		Cancelled: true,
		PaymentHistory: []PaymentEvent{
			{Amount: decimal.NewFromInt(100)},
		},
	}
	assert.Equal(t, StatusCancelled, o.Status())
}
