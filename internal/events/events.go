// Package events publishes payment settlement outcomes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"paygate/internal/model"
)

const TypePaymentSettled = "payment.settled"

type PaymentEvent struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	PaymentID  string              `json:"payment_id"`
	OrderID    string              `json:"order_id"`
	MerchantID string              `json:"merchant_id"`
	Amount     int64               `json:"amount"`
	Currency   string              `json:"currency"`
	Method     model.Method        `json:"method"`
	Status     model.PaymentStatus `json:"status"`
	ErrorCode  string              `json:"error_code,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

func NewPaymentSettled(p *model.Payment, st model.Settlement) PaymentEvent {
	return PaymentEvent{
		ID:         uuid.NewString(),
		Type:       TypePaymentSettled,
		PaymentID:  p.ID,
		OrderID:    p.OrderID,
		MerchantID: p.MerchantID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		Method:     p.Method,
		Status:     st.Status,
		ErrorCode:  st.ErrorCode,
		OccurredAt: st.SettledAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev PaymentEvent) error
	Close() error
}

// KafkaPublisher writes events keyed by payment id, so every event of one
// payment lands on the same partition.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev PaymentEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.PaymentID),
		Value: payload,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev PaymentEvent) error {
	slog.Info("payment settled",
		"payment_id", ev.PaymentID,
		"order_id", ev.OrderID,
		"status", ev.Status,
		"error_code", ev.ErrorCode,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }
