// Package signer provides a keypair-backed implementation of the wallet
// capability contract for headless deployments and tests. Interactive
// deployments bridge ports.WalletSigner to the user's wallet extension
// instead; keys handled here are the operator's own.
package signer

import (
	"context"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// Local signs transactions with a locally held keypair.
type Local struct {
	kp *keypair.Full
}

// NewLocal creates a local signer from a secret seed.
func NewLocal(seed string) (*Local, error) {
	kp, err := keypair.ParseFull(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrWalletUnavailable, err)
	}
	return &Local{kp: kp}, nil
}

var _ ports.WalletSigner = (*Local)(nil)

// RequestAccess returns the keypair's account address.
func (l *Local) RequestAccess(ctx context.Context) (string, error) {
	return l.kp.Address(), nil
}

// SignTransaction signs a base64 envelope for the given network and returns
// the signed envelope.
func (l *Local) SignTransaction(ctx context.Context, xdr, networkPassphrase string) (string, error) {
	generic, err := txnbuild.TransactionFromXDR(xdr)
	if err != nil {
		return "", fmt.Errorf("failed to parse transaction envelope: %w", err)
	}
	tx, ok := generic.Transaction()
	if !ok {
		return "", fmt.Errorf("unsupported transaction envelope")
	}

	signed, err := tx.Sign(networkPassphrase, l.kp)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed.Base64()
}
