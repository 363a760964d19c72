package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/model"
)

func TestNewPaymentSettled(t *testing.T) {
	p := &model.Payment{
		ID:         "pay_abc",
		OrderID:    "order_abc",
		MerchantID: "m1",
		Amount:     500,
		Currency:   "INR",
		Method:     model.MethodCard,
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := NewPaymentSettled(p, model.NewSettlement(p.ID, false, at))

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, TypePaymentSettled, ev.Type)
	assert.Equal(t, model.PaymentFailed, ev.Status)
	assert.Equal(t, model.ErrCodePaymentFailed, ev.ErrorCode)
	assert.Equal(t, at, ev.OccurredAt)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"payment_id":"pay_abc"`)

	assert.NoError(t, LogPublisher{}.Publish(context.Background(), ev))
}
