package ports

import (
	"context"

	"github.com/layer-3/lumenpay/core"
)

// EventPublisher notifies other processes about lifecycle transitions
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, kind string, walletAddress string) error
	PublishPaymentStatus(ctx context.Context, paymentID string, status core.PaymentStatus) error
}
