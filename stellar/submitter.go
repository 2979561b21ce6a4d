package stellar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/stellar/go/clients/horizonclient"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

// Submitter sends signed envelopes to the ledger network and normalizes the
// heterogeneous outcomes into the error taxonomy. Submission is a single
// attempt: retrying a transaction with a stale sequence number or expired
// time bounds fails identically, and retrying after an ambiguous response
// risks a double spend if the first attempt actually landed.
type Submitter struct {
	ledger ports.Ledger
	log    *slog.Logger
}

// NewSubmitter creates a submission client on top of a ledger adapter.
func NewSubmitter(ledger ports.Ledger, log *slog.Logger) *Submitter {
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{ledger: ledger, log: log}
}

// Submit sends the signed envelope once and returns the transaction hash and
// the ledger it was applied in. A timeout while awaiting the response
// surfaces as core.ErrAmbiguousSubmission so the caller falls back to status
// polling instead of resubmitting.
func (s *Submitter) Submit(ctx context.Context, signedXDR string) (core.SubmitResult, error) {
	if signedXDR == "" {
		return core.SubmitResult{}, errors.New("empty transaction envelope")
	}

	res, err := s.ledger.SubmitXDR(ctx, signedXDR)
	if err != nil {
		return core.SubmitResult{}, classifySubmitError(err)
	}

	s.log.Info("transaction submitted", "hash", res.Hash, "ledger", res.Ledger)
	return res, nil
}

// classifySubmitError maps a submission failure onto the taxonomy. Errors
// already expressed in core terms pass through untouched, so fakes and
// adapters may pre-classify.
func classifySubmitError(err error) error {
	if errors.Is(err, core.ErrAmbiguousSubmission) ||
		errors.Is(err, core.ErrNetwork) {
		return err
	}
	var rejected *core.RejectedError
	if errors.As(err, &rejected) {
		return err
	}

	var herr *horizonclient.Error
	if errors.As(err, &herr) {
		if herr.Problem.Status == http.StatusGatewayTimeout {
			// Horizon lost track of the submission; the transaction may still
			// be applied by the network.
			return fmt.Errorf("%w: %v", core.ErrAmbiguousSubmission, err)
		}
		if codes, codesErr := herr.ResultCodes(); codesErr == nil && codes != nil {
			return &core.RejectedError{Code: rejectionCode(codes.TransactionCode, codes.OperationCodes)}
		}
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", core.ErrAmbiguousSubmission, err)
	}
	return fmt.Errorf("%w: %v", core.ErrNetwork, err)
}

// rejectionCode prefers the first failing operation code over the transaction
// level code, which is usually just tx_failed.
func rejectionCode(txCode string, opCodes []string) string {
	for _, code := range opCodes {
		if code != "op_success" {
			return code
		}
	}
	return txCode
}
