// Package merchant wraps the merchant-facing rate and payment-request
// endpoints. Rate viability itself (liquidity, paths, slippage) is computed
// remotely; this client only carries the request and the verdict.
package merchant

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/core"
)

// Client talks to the platform's rate endpoints with the merchant's session.
type Client struct {
	api *api.Client
}

// NewClient creates a merchant client on top of the shared API client.
func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// CreateRateParams describe a new fixed exchange rate offer.
type CreateRateParams struct {
	BaseCurrency  string          `json:"baseCurrency"`
	QuoteCurrency string          `json:"quoteCurrency"`
	Rate          decimal.Decimal `json:"rate"`
	// ValidityPeriod is the offer lifetime in hours.
	ValidityPeriod int `json:"validityPeriod"`
}

// Viability is the remote service's verdict on whether a rate can settle.
type Viability struct {
	IsViable                  bool            `json:"isViable"`
	Rate                      decimal.Decimal `json:"rate"`
	ExpectedDestinationAmount string          `json:"expectedDestinationAmount"`
}

type ratesData struct {
	Rates []core.Rate `json:"rates"`
}

type rateData struct {
	Rate core.Rate `json:"rate"`
}

// CreateRate publishes a new rate offer.
func (c *Client) CreateRate(ctx context.Context, params CreateRateParams) ([]core.Rate, error) {
	var data ratesData
	if err := c.api.Post(ctx, "/api/rates", params, &data); err != nil {
		return nil, fmt.Errorf("failed to create rate: %w", err)
	}
	return data.Rates, nil
}

// ListRates returns the authenticated merchant's rates.
func (c *Client) ListRates(ctx context.Context) ([]core.Rate, error) {
	var data ratesData
	if err := c.api.Get(ctx, "/api/rates/merchant", &data); err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	return data.Rates, nil
}

// GetRate fetches one merchant's rate for a currency pair. The endpoint is
// public; consumers use it to price a payment link.
func (c *Client) GetRate(ctx context.Context, merchantID, baseCurrency, quoteCurrency string) (core.Rate, error) {
	var data rateData
	path := fmt.Sprintf("/api/rates/%s/%s/%s", merchantID, baseCurrency, quoteCurrency)
	if err := c.api.Get(ctx, path, &data); err != nil {
		return core.Rate{}, fmt.Errorf("failed to fetch rate: %w", err)
	}
	return data.Rate, nil
}

// CreatePaymentParams describe a payment request consuming one of the
// merchant's rates.
type CreatePaymentParams struct {
	RateID        string `json:"rateId"`
	SourceAmount  string `json:"sourceAmount"`
	CustomerEmail string `json:"customerEmail"`
}

// PaymentList is the merchant's payment requests with the total count.
type PaymentList struct {
	Payments []core.Payment `json:"payments"`
	Total    int            `json:"total"`
}

type merchantPaymentData struct {
	Payment core.Payment `json:"payment"`
}

// CreatePayment creates a payment request against one of the merchant's
// rates. The server derives the destination amount from the rate and assigns
// the ledger payment address and memo.
func (c *Client) CreatePayment(ctx context.Context, params CreatePaymentParams) (core.Payment, error) {
	var data merchantPaymentData
	if err := c.api.Post(ctx, "/api/payments", params, &data); err != nil {
		return core.Payment{}, fmt.Errorf("failed to create payment request: %w", err)
	}
	return data.Payment, nil
}

// ListPayments returns the authenticated merchant's payment requests,
// optionally filtered by status.
func (c *Client) ListPayments(ctx context.Context, status core.PaymentStatus) (PaymentList, error) {
	path := "/api/payments/merchant"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var data PaymentList
	if err := c.api.Get(ctx, path, &data); err != nil {
		return PaymentList{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return data, nil
}

// GetPayment fetches one of the merchant's payment requests.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (core.Payment, error) {
	var data merchantPaymentData
	if err := c.api.Get(ctx, "/api/payments/"+paymentID, &data); err != nil {
		return core.Payment{}, fmt.Errorf("failed to fetch payment %s: %w", paymentID, err)
	}
	return data.Payment, nil
}

// CheckViability asks the remote liquidity service whether an amount can
// settle at the merchant's rate.
func (c *Client) CheckViability(ctx context.Context, merchantID, baseCurrency, quoteCurrency, amount string) (Viability, error) {
	var data Viability
	body := map[string]string{
		"baseCurrency":  baseCurrency,
		"quoteCurrency": quoteCurrency,
		"amount":        amount,
	}
	if err := c.api.Post(ctx, "/api/rates/check-viability/"+merchantID, body, &data); err != nil {
		return Viability{}, fmt.Errorf("failed to check rate viability: %w", err)
	}
	return data, nil
}
