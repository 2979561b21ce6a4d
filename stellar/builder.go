package stellar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

const (
	// amountPrecision is the ledger's native fractional precision. Amounts are
	// carried as decimal strings end to end; a float64 would drift against the
	// quoted rate.
	amountPrecision = 7

	// DefaultTxTimeout bounds the transaction validity window so an unsubmitted
	// envelope cannot be replayed after its quote expired.
	DefaultTxTimeout = 30 * time.Second

	maxMemoBytes = 28
)

// BuildParams describe one payment transaction.
type BuildParams struct {
	Source      string
	Destination string
	Amount      string
	Asset       string
	Memo        string
}

// Builder constructs unsigned payment transactions. It loads the minimum
// network state required (source sequence number, base fee) and pre-flights
// the destination account and source funds before anything reaches the
// signer, so a doomed payment never costs a signing round-trip.
type Builder struct {
	ledger ports.Ledger
	cfg    Config
}

// NewBuilder creates a transaction builder.
func NewBuilder(ledger ports.Ledger, cfg Config) *Builder {
	return &Builder{ledger: ledger, cfg: cfg}
}

// Build returns the base64 envelope of an unsigned transaction carrying
// exactly one payment operation.
func (b *Builder) Build(ctx context.Context, p BuildParams) (string, error) {
	if _, err := keypair.ParseAddress(p.Source); err != nil {
		return "", fmt.Errorf("%w: source %q", core.ErrInvalidAddress, p.Source)
	}
	if _, err := keypair.ParseAddress(p.Destination); err != nil {
		return "", fmt.Errorf("%w: destination %q", core.ErrInvalidAddress, p.Destination)
	}
	amount, err := ParseAmount(p.Amount)
	if err != nil {
		return "", err
	}
	if len(p.Memo) > maxMemoBytes {
		return "", core.ErrMemoTooLong
	}

	if _, err := b.ledger.LoadAccount(ctx, p.Destination); err != nil {
		return "", err
	}
	source, err := b.ledger.LoadAccount(ctx, p.Source)
	if err != nil {
		return "", err
	}
	if err := checkFunds(source, p.Asset, amount); err != nil {
		return "", err
	}

	fee, err := b.ledger.BaseFee(ctx)
	if err != nil {
		return "", err
	}

	sourceAccount := txnbuild.NewSimpleAccount(source.ID, source.Sequence)
	params := txnbuild.TransactionParams{
		SourceAccount:        &sourceAccount,
		IncrementSequenceNum: true,
		Operations: []txnbuild.Operation{
			&txnbuild.Payment{
				Destination: p.Destination,
				Amount:      amount.StringFixed(amountPrecision),
				Asset:       b.asset(p.Asset),
			},
		},
		BaseFee: fee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(DefaultTxTimeout.Seconds())),
		},
	}
	if p.Memo != "" {
		params.Memo = txnbuild.MemoText(p.Memo)
	}

	tx, err := txnbuild.NewTransaction(params)
	if err != nil {
		return "", fmt.Errorf("failed to build transaction: %w", err)
	}
	xdr, err := tx.Base64()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}
	return xdr, nil
}

func (b *Builder) asset(code string) txnbuild.Asset {
	if code == "" || strings.EqualFold(code, "XLM") {
		return txnbuild.NativeAsset{}
	}
	return txnbuild.CreditAsset{Code: code, Issuer: b.cfg.Issuer}
}

// ParseAmount parses a decimal amount string, rejecting non-positive values
// and anything finer than the ledger's 7-digit fractional precision.
func ParseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, raw)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not positive", core.ErrInvalidAmount, raw)
	}
	if d.Exponent() < -amountPrecision {
		return decimal.Decimal{}, fmt.Errorf("%w: %q exceeds %d decimal places", core.ErrInvalidAmount, raw, amountPrecision)
	}
	return d, nil
}

// checkFunds verifies the source holds at least the payment amount in the
// requested asset. A missing trustline counts as insufficient.
func checkFunds(account ports.Account, asset string, amount decimal.Decimal) error {
	want := asset
	if want == "" || strings.EqualFold(want, "XLM") {
		want = "XLM"
	}
	for _, b := range account.Balances {
		if b.Asset != want {
			continue
		}
		if b.Amount.LessThan(amount) {
			return fmt.Errorf("%w: have %s %s, need %s", core.ErrInsufficientBalance,
				b.Amount.StringFixed(amountPrecision), want, amount.StringFixed(amountPrecision))
		}
		return nil
	}
	return fmt.Errorf("%w: no %s balance on source account", core.ErrInsufficientBalance, want)
}
