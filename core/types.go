package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserType distinguishes the two actor kinds the platform serves.
type UserType string

const (
	UserTypeConsumer UserType = "consumer"
	UserTypeMerchant UserType = "merchant"
)

// Valid reports whether t is one of the known user types.
func (t UserType) Valid() bool {
	return t == UserTypeConsumer || t == UserTypeMerchant
}

// User is the account record bound to a wallet address. The wallet address is
// the sole identity and never changes once the record exists.
type User struct {
	ID            string    `json:"_id"`
	WalletAddress string    `json:"walletAddress"`
	UserType      UserType  `json:"userType"`
	IsActive      bool      `json:"isActive"`
	LastLogin     time.Time `json:"lastLogin"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Challenge is the one-time unsigned artifact a wallet must sign to prove key
// ownership. It is bound to a single wallet address and a network passphrase;
// the server invalidates it the moment a new challenge is issued for the same
// address.
type Challenge struct {
	WalletAddress     string
	TransactionXDR    string
	NetworkPassphrase string
}

// Session is the authenticated identity state derived from a verified
// challenge. Only the session manager may mutate it; every other component
// reads the bearer token and nothing else.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	UserType  UserType  `json:"userType"`
	Wallet    string    `json:"walletAddress"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RateStatus is the lifecycle state of a merchant rate.
type RateStatus string

const (
	RateStatusPending RateStatus = "pending"
	RateStatusActive  RateStatus = "active"
	RateStatusExpired RateStatus = "expired"
)

// Rate is a fixed merchant exchange quote. Once active it is immutable apart
// from the transition to expired at ValidTo.
type Rate struct {
	ID            string          `json:"_id"`
	MerchantID    string          `json:"merchantId"`
	BaseCurrency  string          `json:"baseCurrency"`
	QuoteCurrency string          `json:"quoteCurrency"`
	Rate          decimal.Decimal `json:"rate"`
	ValidFrom     time.Time       `json:"validFrom"`
	ValidTo       time.Time       `json:"validTo"`
	Status        RateStatus      `json:"status"`
}

// PaymentStatus is the settlement state of a payment. pending is the only
// non-terminal status; completed and failed are final and never reversed.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether the status is final.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// Payment is a server-created payment request consuming a merchant rate.
// Expiry is enforced independently of status.
type Payment struct {
	ID                 string        `json:"_id"`
	MerchantID         string        `json:"merchantId,omitempty"`
	RateID             string        `json:"rateId,omitempty"`
	CustomerEmail      string        `json:"customerEmail,omitempty"`
	SourceAmount       string        `json:"sourceAmount"`
	SourceAsset        string        `json:"sourceAsset"`
	DestinationAmount  string        `json:"destinationAmount,omitempty"`
	DestinationAsset   string        `json:"destinationAsset,omitempty"`
	ExchangeRate       string        `json:"exchangeRate,omitempty"`
	ConsumerWallet     string        `json:"consumerWalletAddress,omitempty"`
	LedgerAddress      string        `json:"stellarPaymentAddress"`
	LedgerMemo         string        `json:"stellarMemo,omitempty"`
	Status             PaymentStatus `json:"status"`
	ExpiresAt          time.Time     `json:"expiresAt"`
}

// Expired reports whether the payment window has closed at the given instant.
func (p Payment) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// SubmitResult is the normalized outcome of a successful ledger submission.
type SubmitResult struct {
	Hash   string
	Ledger int32
}

// StatusUpdate is one observation emitted by a payment watch. Err is set on
// the final update when the watch ends because a poll failed.
type StatusUpdate struct {
	Status    PaymentStatus
	ExpiresAt time.Time
	UpdatedAt time.Time
	Err       error
}
