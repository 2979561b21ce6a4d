// Package payment implements the consumer side of the payment lifecycle:
// fetching a payment by its link, binding the payer wallet, executing the
// build/sign/submit flow and reconciling settlement status by polling.
package payment

import (
	"context"
	"fmt"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/core"
)

// Client talks to the platform's payment endpoints.
type Client struct {
	api *api.Client
}

// NewClient creates a payment client on top of the shared API client.
func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

type paymentData struct {
	Payment core.Payment `json:"payment"`
}

// GetByLink fetches the payment behind a payment link.
func (c *Client) GetByLink(ctx context.Context, paymentID string) (core.Payment, error) {
	var data paymentData
	if err := c.api.Get(ctx, "/api/payments/link/"+paymentID, &data); err != nil {
		return core.Payment{}, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}
	return data.Payment, nil
}

// BindConsumerWallet records the payer's wallet address on the payment.
func (c *Client) BindConsumerWallet(ctx context.Context, paymentID, walletAddress string) (core.Payment, error) {
	var data paymentData
	body := map[string]string{"consumerWalletAddress": walletAddress}
	if err := c.api.Post(ctx, "/api/payments/"+paymentID+"/consumer-wallet", body, &data); err != nil {
		return core.Payment{}, fmt.Errorf("failed to bind consumer wallet: %w", err)
	}
	return data.Payment, nil
}
