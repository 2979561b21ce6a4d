package ports

import "context"

// WalletSigner is the external wallet capability. The core never inspects the
// signing mechanism; it only consumes this two-call request/response contract.
// Production deployments bridge this to a browser wallet extension; headless
// deployments may use adapters/signer.Local.
type WalletSigner interface {
	// RequestAccess asks the wallet for its account address
	RequestAccess(ctx context.Context) (string, error)

	// SignTransaction signs a base64 transaction envelope for the given network
	// and returns the signed envelope
	SignTransaction(ctx context.Context, xdr, networkPassphrase string) (string, error)
}
