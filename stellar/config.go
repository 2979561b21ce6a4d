// Package stellar builds and submits ledger transactions. It carries the two
// ledger-facing protocol components: the transaction builder and the
// submission client, plus the horizon adapter they run against.
package stellar

import "github.com/stellar/go/network"

// Config is the ledger network configuration.
type Config struct {
	// HorizonURL is the base URL of the horizon API.
	HorizonURL string

	// NetworkPassphrase identifies the target network and is baked into every
	// signature.
	NetworkPassphrase string

	// Issuer is the issuing account for non-native assets.
	Issuer string
}

// TestnetConfig returns the default testnet configuration.
func TestnetConfig() Config {
	return Config{
		HorizonURL:        "https://horizon-testnet.stellar.org",
		NetworkPassphrase: network.TestNetworkPassphrase,
		Issuer:            "GBXV4VLTLSPMQH7HMKZLMR6ZKMFED5F5WPREQLXDCZRPNXG4FQQHV32W",
	}
}
