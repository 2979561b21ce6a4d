package stellar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/txnbuild"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// HorizonLedger implements ports.Ledger against a horizon server.
type HorizonLedger struct {
	client horizonclient.ClientInterface
}

// NewHorizonLedger creates a ledger adapter for the given horizon URL.
func NewHorizonLedger(horizonURL string) *HorizonLedger {
	return &HorizonLedger{
		client: &horizonclient.Client{
			HorizonURL: horizonURL,
			HTTP:       &http.Client{Timeout: 30 * time.Second},
		},
	}
}

// LoadAccount fetches an account's sequence number and balances. A missing or
// unfunded account maps to core.ErrAccountLoadFailed.
func (h *HorizonLedger) LoadAccount(ctx context.Context, accountID string) (ports.Account, error) {
	acc, err := h.client.AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return ports.Account{}, fmt.Errorf("%w: %s", core.ErrAccountLoadFailed, accountID)
		}
		return ports.Account{}, fmt.Errorf("%w: loading account: %v", core.ErrNetwork, err)
	}

	seq, err := acc.GetSequenceNumber()
	if err != nil {
		return ports.Account{}, fmt.Errorf("invalid sequence number for %s: %w", accountID, err)
	}

	balances := make([]ports.Balance, 0, len(acc.Balances))
	for _, b := range acc.Balances {
		asset := b.Asset.Code
		if b.Asset.Type == "native" {
			asset = "XLM"
		}
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			continue
		}
		balances = append(balances, ports.Balance{Asset: asset, Amount: amount})
	}

	return ports.Account{ID: accountID, Sequence: seq, Balances: balances}, nil
}

// BaseFee returns the network's current minimum fee in stroops.
func (h *HorizonLedger) BaseFee(ctx context.Context) (int64, error) {
	stats, err := h.client.FeeStats()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrFeeFetchFailed, err)
	}
	if stats.LastLedgerBaseFee <= 0 {
		return txnbuild.MinBaseFee, nil
	}
	return stats.LastLedgerBaseFee, nil
}

// SubmitXDR submits a signed envelope. The raw horizon error is returned;
// the submission client owns the classification into the error taxonomy.
func (h *HorizonLedger) SubmitXDR(ctx context.Context, xdr string) (core.SubmitResult, error) {
	tx, err := h.client.SubmitTransactionXDR(xdr)
	if err != nil {
		return core.SubmitResult{}, err
	}
	return core.SubmitResult{Hash: tx.Hash, Ledger: tx.Ledger}, nil
}
