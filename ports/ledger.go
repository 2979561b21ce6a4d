package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/layer-3/lumenpay/core"
)

// Balance is one asset balance held by a ledger account.
type Balance struct {
	Asset  string
	Amount decimal.Decimal
}

// Account is the minimal ledger account view the core needs: the current
// sequence number to build with and the balances to pre-flight against.
type Account struct {
	ID       string
	Sequence int64
	Balances []Balance
}

// Ledger is the boundary toward the distributed ledger network. Adapters map
// transport-level failures onto the core error taxonomy: a missing account is
// core.ErrAccountLoadFailed, a lost submission response is
// core.ErrAmbiguousSubmission, a structured rejection is *core.RejectedError.
type Ledger interface {
	// LoadAccount fetches an existing, funded account
	LoadAccount(ctx context.Context, accountID string) (Account, error)

	// BaseFee returns the network's current minimum fee in stroops
	BaseFee(ctx context.Context) (int64, error)

	// SubmitXDR submits a signed transaction envelope; exactly one attempt
	SubmitXDR(ctx context.Context, xdr string) (core.SubmitResult, error)
}
