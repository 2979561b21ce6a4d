package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// DefaultPollInterval is the fixed polling cadence for payment status.
const DefaultPollInterval = 5 * time.Second

// Monitor reconciles payment settlement by polling the remote payment
// resource. Settlement is observed out-of-band; the monitor has no dependency
// on the submission result.
type Monitor struct {
	api      *api.Client
	interval time.Duration
	events   ports.EventPublisher
	log      *slog.Logger
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithPollInterval overrides the polling cadence.
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithMonitorEvents publishes every observed status transition.
func WithMonitorEvents(pub ports.EventPublisher) MonitorOption {
	return func(m *Monitor) { m.events = pub }
}

// WithMonitorLogger sets the structured logger.
func WithMonitorLogger(log *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.log = log }
}

// NewMonitor creates a payment monitor.
func NewMonitor(apiClient *api.Client, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		api:      apiClient,
		interval: DefaultPollInterval,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type monitorData struct {
	Status    core.PaymentStatus `json:"status"`
	ExpiresAt time.Time          `json:"expiresAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Watch polls the payment on a fixed interval, starting immediately, and
// emits each status change on the returned channel. The channel is closed
// the instant a terminal status is emitted, a poll fails (the failure is the
// final update, the sequence does not self-heal), or ctx is cancelled.
// Cancelling after termination is a no-op; cancelling mid-watch silences the
// underlying timer, nothing keeps polling invisibly. A terminated watch is
// not restartable; call Watch again instead.
func (m *Monitor) Watch(ctx context.Context, paymentID string) <-chan core.StatusUpdate {
	updates := make(chan core.StatusUpdate)
	go m.run(ctx, paymentID, updates)
	return updates
}

func (m *Monitor) run(ctx context.Context, paymentID string, updates chan<- core.StatusUpdate) {
	defer close(updates)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var last core.PaymentStatus
	seen := false
	for {
		var data monitorData
		err := m.api.Get(ctx, "/api/payments/"+paymentID+"/monitor", &data)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// A single fetch error ends the sequence; whether to re-watch is
			// the caller's decision.
			m.send(ctx, updates, core.StatusUpdate{
				Err: fmt.Errorf("failed to fetch payment status: %w", err),
			})
			return
		}

		if !seen || data.Status != last {
			seen = true
			last = data.Status
			m.publish(ctx, paymentID, data.Status)
			if !m.send(ctx, updates, core.StatusUpdate{
				Status:    data.Status,
				ExpiresAt: data.ExpiresAt,
				UpdatedAt: data.UpdatedAt,
			}) {
				return
			}
		}
		if data.Status.Terminal() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) send(ctx context.Context, updates chan<- core.StatusUpdate, u core.StatusUpdate) bool {
	select {
	case updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Monitor) publish(ctx context.Context, paymentID string, status core.PaymentStatus) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishPaymentStatus(ctx, paymentID, status); err != nil {
		m.log.Debug("failed to publish payment status", "payment", paymentID, "err", err)
	}
}
