// Package auth implements the wallet challenge-response authentication
// protocol and the session lifecycle built on top of it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/layer-3/lumenpay/api"
	"github.com/layer-3/lumenpay/core"
)

// ChallengeClient requests one-time authentication challenges and submits the
// signed result. The two calls form one logical transaction: every
// RequestChallenge invalidates any challenge previously issued to the same
// wallet address on the server, so a challenge must never be cached across
// verify attempts.
type ChallengeClient struct {
	api *api.Client
}

// NewChallengeClient creates a challenge client on top of the shared API client.
func NewChallengeClient(apiClient *api.Client) *ChallengeClient {
	return &ChallengeClient{api: apiClient}
}

type challengeData struct {
	Transaction       string `json:"transaction"`
	NetworkPassphrase string `json:"networkPassphrase"`
}

type verifyRequest struct {
	SignedChallenge string        `json:"signedChallenge"`
	WalletAddress   string        `json:"walletAddress"`
	UserType        core.UserType `json:"userType"`
}

type verifyData struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// RequestChallenge asks the server for a fresh challenge bound to the wallet
// address.
func (c *ChallengeClient) RequestChallenge(ctx context.Context, walletAddress string) (core.Challenge, error) {
	var data challengeData
	err := c.api.Post(ctx, "/api/auth/challenge", map[string]string{"walletAddress": walletAddress}, &data)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("failed to request challenge: %w", err)
	}
	return core.Challenge{
		WalletAddress:     walletAddress,
		TransactionXDR:    data.Transaction,
		NetworkPassphrase: data.NetworkPassphrase,
	}, nil
}

// Verify submits the signed challenge and exchanges it for a session token and
// the bound user record.
func (c *ChallengeClient) Verify(ctx context.Context, signedChallenge, walletAddress string, userType core.UserType) (string, core.User, error) {
	if !userType.Valid() {
		return "", core.User{}, fmt.Errorf("unknown user type %q", userType)
	}
	var data verifyData
	err := c.api.Post(ctx, "/api/auth/verify", verifyRequest{
		SignedChallenge: signedChallenge,
		WalletAddress:   walletAddress,
		UserType:        userType,
	}, &data)
	if err != nil {
		return "", core.User{}, mapVerifyError(err)
	}
	return data.Token, data.User, nil
}

// mapVerifyError translates API rejections onto the auth error taxonomy. A
// conflict means the wallet is already bound to the other user type; any other
// client error means the challenge signature did not hold up.
func mapVerifyError(err error) error {
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", core.ErrWrongUserType, apiErr.Message)
	case strings.Contains(strings.ToLower(apiErr.Message), "user type"):
		return fmt.Errorf("%w: %s", core.ErrWrongUserType, apiErr.Message)
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return fmt.Errorf("%w: %s", core.ErrInvalidChallenge, apiErr.Message)
	default:
		return err
	}
}
