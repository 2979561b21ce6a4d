package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

const (
	// AuthTopic carries session lifecycle events (login, refresh, logout).
	AuthTopic = "lumenpay.auth"

	// PaymentTopic carries observed payment status transitions.
	PaymentTopic = "lumenpay.payments"
)

// AuthEvent is a session lifecycle notification.
type AuthEvent struct {
	Kind          string    `json:"kind"`
	WalletAddress string    `json:"wallet_address"`
	At            time.Time `json:"at"`
}

// PaymentEvent is an observed payment status transition.
type PaymentEvent struct {
	PaymentID string             `json:"payment_id"`
	Status    core.PaymentStatus `json:"status"`
	At        time.Time          `json:"at"`
}

// WatermillPublisher implements ports.EventPublisher on a Watermill publisher.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a Watermill-backed event publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishAuthEvent publishes a session lifecycle event.
func (p *WatermillPublisher) PublishAuthEvent(ctx context.Context, kind string, walletAddress string) error {
	return p.publish(AuthTopic, AuthEvent{
		Kind:          kind,
		WalletAddress: walletAddress,
		At:            time.Now().UTC(),
	})
}

// PublishPaymentStatus publishes an observed payment status transition.
func (p *WatermillPublisher) PublishPaymentStatus(ctx context.Context, paymentID string, status core.PaymentStatus) error {
	return p.publish(PaymentTopic, PaymentEvent{
		PaymentID: paymentID,
		Status:    status,
		At:        time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
