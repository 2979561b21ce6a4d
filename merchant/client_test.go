package merchant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/core"
)

func newClient(t *testing.T, register func(*gin.Engine)) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return NewClient(api.NewClient(ts.URL))
}

func TestCreateRate(t *testing.T) {
	var got CreateRateParams
	client := newClient(t, func(r *gin.Engine) {
		r.POST("/api/rates", func(c *gin.Context) {
			require.NoError(t, c.ShouldBindJSON(&got))
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{"rates": []gin.H{{
					"_id":           "rate-1",
					"merchantId":    "merchant-1",
					"baseCurrency":  got.BaseCurrency,
					"quoteCurrency": got.QuoteCurrency,
					"rate":          got.Rate,
					"validFrom":     time.Now(),
					"validTo":       time.Now().Add(time.Duration(got.ValidityPeriod) * time.Hour),
					"status":        core.RateStatusActive,
				}}},
			})
		})
	})

	rate := decimal.RequireFromString("0.85")
	rates, err := client.CreateRate(context.Background(), CreateRateParams{
		BaseCurrency:   "USDC",
		QuoteCurrency:  "EURC",
		Rate:           rate,
		ValidityPeriod: 24,
	})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	require.Equal(t, "rate-1", rates[0].ID)
	require.True(t, rate.Equal(rates[0].Rate))
	require.Equal(t, core.RateStatusActive, rates[0].Status)

	require.Equal(t, "USDC", got.BaseCurrency)
	require.Equal(t, 24, got.ValidityPeriod)
}

func TestListRates(t *testing.T) {
	client := newClient(t, func(r *gin.Engine) {
		r.GET("/api/rates/merchant", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{"rates": []gin.H{
					{"_id": "rate-1", "status": core.RateStatusActive},
					{"_id": "rate-2", "status": core.RateStatusExpired},
				}},
			})
		})
	})

	rates, err := client.ListRates(context.Background())
	require.NoError(t, err)
	require.Len(t, rates, 2)
	require.Equal(t, "rate-2", rates[1].ID)
}

func TestGetRate(t *testing.T) {
	client := newClient(t, func(r *gin.Engine) {
		r.GET("/api/rates/:merchant/:base/:quote", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{"rate": gin.H{
					"_id":           "rate-1",
					"merchantId":    c.Param("merchant"),
					"baseCurrency":  c.Param("base"),
					"quoteCurrency": c.Param("quote"),
					"rate":          "0.85",
					"status":        core.RateStatusActive,
				}},
			})
		})
	})

	rate, err := client.GetRate(context.Background(), "merchant-1", "USDC", "EURC")
	require.NoError(t, err)
	require.Equal(t, "merchant-1", rate.MerchantID)
	require.Equal(t, "USDC", rate.BaseCurrency)
	require.True(t, decimal.RequireFromString("0.85").Equal(rate.Rate))
}

func TestGetRateNotFound(t *testing.T) {
	client := newClient(t, func(r *gin.Engine) {
		r.GET("/api/rates/:merchant/:base/:quote", func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no active rate"})
		})
	})

	_, err := client.GetRate(context.Background(), "merchant-1", "USDC", "EURC")
	var apiErr *core.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestCreatePayment(t *testing.T) {
	var got CreatePaymentParams
	client := newClient(t, func(r *gin.Engine) {
		r.POST("/api/payments", func(c *gin.Context) {
			require.NoError(t, c.ShouldBindJSON(&got))
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{"payment": gin.H{
					"_id":                   "pay-1",
					"merchantId":            "merchant-1",
					"rateId":                got.RateID,
					"sourceAmount":          got.SourceAmount,
					"sourceAsset":           "USDC",
					"customerEmail":         got.CustomerEmail,
					"stellarPaymentAddress": "GPAY",
					"stellarMemo":           "pay-1",
					"status":                core.PaymentStatusPending,
					"expiresAt":             time.Now().Add(15 * time.Minute),
				}},
			})
		})
	})

	p, err := client.CreatePayment(context.Background(), CreatePaymentParams{
		RateID:        "rate-1",
		SourceAmount:  "100",
		CustomerEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "pay-1", p.ID)
	require.Equal(t, "rate-1", p.RateID)
	require.Equal(t, "GPAY", p.LedgerAddress)
	require.Equal(t, core.PaymentStatusPending, p.Status)

	require.Equal(t, "rate-1", got.RateID)
	require.Equal(t, "buyer@example.com", got.CustomerEmail)
}

func TestListPayments(t *testing.T) {
	var gotStatus string
	client := newClient(t, func(r *gin.Engine) {
		r.GET("/api/payments/merchant", func(c *gin.Context) {
			gotStatus = c.Query("status")
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{
					"payments": []gin.H{
						{"_id": "pay-1", "status": core.PaymentStatusPending},
						{"_id": "pay-2", "status": core.PaymentStatusPending},
					},
					"total": 2,
				},
			})
		})
	})

	list, err := client.ListPayments(context.Background(), core.PaymentStatusPending)
	require.NoError(t, err)
	require.Equal(t, 2, list.Total)
	require.Len(t, list.Payments, 2)
	require.Equal(t, "pay-2", list.Payments[1].ID)
	require.Equal(t, "pending", gotStatus)
}

func TestListPaymentsWithoutStatusFilter(t *testing.T) {
	var hadStatus bool
	client := newClient(t, func(r *gin.Engine) {
		r.GET("/api/payments/merchant", func(c *gin.Context) {
			_, hadStatus = c.GetQuery("status")
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    gin.H{"payments": []gin.H{}, "total": 0},
			})
		})
	})

	list, err := client.ListPayments(context.Background(), "")
	require.NoError(t, err)
	require.Zero(t, list.Total)
	require.False(t, hadStatus)
}

func TestGetPayment(t *testing.T) {
	client := newClient(t, func(r *gin.Engine) {
		r.GET("/api/payments/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{"payment": gin.H{
					"_id":           c.Param("id"),
					"customerEmail": "buyer@example.com",
					"status":        core.PaymentStatusCompleted,
				}},
			})
		})
	})

	p, err := client.GetPayment(context.Background(), "pay-9")
	require.NoError(t, err)
	require.Equal(t, "pay-9", p.ID)
	require.Equal(t, "buyer@example.com", p.CustomerEmail)
	require.Equal(t, core.PaymentStatusCompleted, p.Status)
}

func TestCheckViability(t *testing.T) {
	var gotPath string
	client := newClient(t, func(r *gin.Engine) {
		r.POST("/api/rates/check-viability/:merchant", func(c *gin.Context) {
			gotPath = c.Param("merchant")
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": gin.H{
					"isViable":                  true,
					"rate":                      "0.85",
					"expectedDestinationAmount": "85.0000000",
				},
			})
		})
	})

	v, err := client.CheckViability(context.Background(), "merchant-1", "USDC", "EURC", "100")
	require.NoError(t, err)
	require.True(t, v.IsViable)
	require.Equal(t, "85.0000000", v.ExpectedDestinationAmount)
	require.Equal(t, "merchant-1", gotPath)
}
