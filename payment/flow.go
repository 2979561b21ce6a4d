package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
	"github.com/layer-3/lumenpay/stellar"
)

// Flow orchestrates one payment: bind the payer wallet, build the ledger
// transaction, hand it to the external signer and submit the signed envelope.
// Settlement is reconciled separately through the Monitor.
type Flow struct {
	payments  *Client
	builder   *stellar.Builder
	submitter *stellar.Submitter
	signer    ports.WalletSigner
	network   string
	log       *slog.Logger
}

// NewFlow creates a payment flow. network is the ledger network passphrase
// passed to the signer.
func NewFlow(payments *Client, builder *stellar.Builder, submitter *stellar.Submitter, signer ports.WalletSigner, network string, log *slog.Logger) *Flow {
	if log == nil {
		log = slog.Default()
	}
	return &Flow{
		payments:  payments,
		builder:   builder,
		submitter: submitter,
		signer:    signer,
		network:   network,
		log:       log,
	}
}

// Pay executes the payment from the given source wallet. Account and funds
// problems surface before the signer is ever invoked. An ambiguous
// submission is returned as core.ErrAmbiguousSubmission: the caller must
// reconcile through Watch, never resubmit.
func (f *Flow) Pay(ctx context.Context, p core.Payment, sourceAddress string) (core.SubmitResult, error) {
	if p.Status.Terminal() {
		return core.SubmitResult{}, fmt.Errorf("payment %s is already %s", p.ID, p.Status)
	}
	if p.Expired(time.Now()) {
		return core.SubmitResult{}, fmt.Errorf("%w: payment %s", core.ErrPaymentExpired, p.ID)
	}

	if p.ConsumerWallet == "" {
		bound, err := f.payments.BindConsumerWallet(ctx, p.ID, sourceAddress)
		if err != nil {
			return core.SubmitResult{}, err
		}
		p = bound
	}

	xdr, err := f.builder.Build(ctx, stellar.BuildParams{
		Source:      sourceAddress,
		Destination: p.LedgerAddress,
		Amount:      p.SourceAmount,
		Asset:       p.SourceAsset,
		Memo:        p.LedgerMemo,
	})
	if err != nil {
		return core.SubmitResult{}, err
	}

	signed, err := f.signer.SignTransaction(ctx, xdr, f.network)
	if err != nil {
		return core.SubmitResult{}, signerErr(err)
	}

	res, err := f.submitter.Submit(ctx, signed)
	if err != nil {
		if errors.Is(err, core.ErrAmbiguousSubmission) {
			f.log.Warn("submission outcome unknown, reconcile via status polling", "payment", p.ID)
		}
		return core.SubmitResult{}, err
	}

	f.log.Info("payment submitted", "payment", p.ID, "hash", res.Hash)
	return res, nil
}

// signerErr passes through errors already mapped to the wallet taxonomy and
// reports everything else as the wallet being unavailable. Only an explicit
// decline may claim the user rejected the payment.
func signerErr(err error) error {
	switch {
	case errors.Is(err, core.ErrUserRejected),
		errors.Is(err, core.ErrWalletUnavailable),
		errors.Is(err, core.ErrAddressUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", core.ErrWalletUnavailable, err)
	}
}
