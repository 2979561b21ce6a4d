// Package lumenpay wires the payment client core together: wallet
// challenge-response authentication with session lifecycle management, and
// the fixed-rate payment flow (build, sign, submit, reconcile) against a
// Stellar-style ledger. The wallet signer and the ledger network are injected
// capabilities; the core is fully testable with fakes.
package lumenpay

import (
	"log/slog"
	"time"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/auth"
	"github.com/layer-3/lumenpay/merchant"
	"github.com/layer-3/lumenpay/payment"
	"github.com/layer-3/lumenpay/ports"
	"github.com/layer-3/lumenpay/stellar"
)

// Config configures a Client.
type Config struct {
	// APIURL is the base URL of the platform API.
	APIURL string

	// Stellar is the ledger network configuration.
	Stellar stellar.Config

	// PollInterval overrides the payment status polling cadence.
	PollInterval time.Duration

	// Logger is the structured logger; slog.Default() when nil.
	Logger *slog.Logger
}

// Client bundles every component of the payment core, sharing one API client
// and one session.
type Client struct {
	Sessions  *auth.Manager
	Payments  *payment.Client
	Monitor   *payment.Monitor
	Flow      *payment.Flow
	Merchant  *merchant.Client
	Builder   *stellar.Builder
	Submitter *stellar.Submitter
}

// Option configures the client beyond Config.
type Option func(*options)

type options struct {
	events ports.EventPublisher
	ledger ports.Ledger
}

// WithEvents publishes session and payment lifecycle events.
func WithEvents(pub ports.EventPublisher) Option {
	return func(o *options) { o.events = pub }
}

// WithLedger overrides the ledger adapter, mainly for tests.
func WithLedger(ledger ports.Ledger) Option {
	return func(o *options) { o.ledger = ledger }
}

// New builds a fully wired client. signer is the external wallet capability;
// store is the durable session storage.
func New(cfg Config, signer ports.WalletSigner, store ports.SessionStore, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	apiClient := api.NewClient(cfg.APIURL)

	managerOpts := []auth.ManagerOption{auth.WithLogger(log)}
	if o.events != nil {
		managerOpts = append(managerOpts, auth.WithEvents(o.events))
	}
	sessions := auth.NewManager(apiClient, signer, store, managerOpts...)

	ledger := o.ledger
	if ledger == nil {
		ledger = stellar.NewHorizonLedger(cfg.Stellar.HorizonURL)
	}
	builder := stellar.NewBuilder(ledger, cfg.Stellar)
	submitter := stellar.NewSubmitter(ledger, log)

	payments := payment.NewClient(apiClient)
	monitorOpts := []payment.MonitorOption{payment.WithMonitorLogger(log)}
	if cfg.PollInterval > 0 {
		monitorOpts = append(monitorOpts, payment.WithPollInterval(cfg.PollInterval))
	}
	if o.events != nil {
		monitorOpts = append(monitorOpts, payment.WithMonitorEvents(o.events))
	}
	monitor := payment.NewMonitor(apiClient, monitorOpts...)
	flow := payment.NewFlow(payments, builder, submitter, signer, cfg.Stellar.NetworkPassphrase, log)

	return &Client{
		Sessions:  sessions,
		Payments:  payments,
		Monitor:   monitor,
		Flow:      flow,
		Merchant:  merchant.NewClient(apiClient),
		Builder:   builder,
		Submitter: submitter,
	}
}

// Close releases background resources, currently the session refresh timer.
func (c *Client) Close() {
	c.Sessions.Close()
}
