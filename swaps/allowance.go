package swaps

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/thisyearnofear/swaprunner/broker"
	"github.com/thisyearnofear/swaprunner/chain"
	"github.com/thisyearnofear/swaprunner/networks"
)

// approveGasLimit is a fixed ceiling for ERC-20 approvals; the call is
// uniform enough that estimation is not worth a round-trip.
const approveGasLimit = 100_000

// ApprovalOutcome reports what ensuring an allowance took. Allowance is
// re-derived on every attempt — other actors can change it on-chain at any
// time, so nothing here is ever cached.
type ApprovalOutcome struct {
	WasAlreadyApproved bool
	TxHash             *common.Hash
	CurrentAllowance   *big.Int
	RequiredAllowance  *big.Int
}

// AllowanceReader is the token read surface the allowance manager needs.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// AllowanceManager guarantees the spender can move the required amount of
// a token before a swap is submitted.
type AllowanceManager struct {
	Reader     AllowanceReader
	Capability chain.Capability

	// OnSubmitted fires with the approval hash once sent; optional.
	OnSubmitted func(hash common.Hash)
}

// Ensure reads the current allowance and, when short, submits an approval
// for exactly the required amount — never unlimited — and waits for it to
// settle under the profile's confirmation depth. Approval failures are
// surfaced as-is; retrying is the caller's decision.
func (m *AllowanceManager) Ensure(ctx context.Context, token, spender common.Address, required *big.Int, profile networks.Profile) (ApprovalOutcome, error) {
	owner := m.Capability.Address()

	current, err := m.Reader.Allowance(ctx, token, owner, spender)
	if err != nil {
		return ApprovalOutcome{}, fmt.Errorf("reading allowance: %w", err)
	}

	outcome := ApprovalOutcome{
		CurrentAllowance:  current,
		RequiredAllowance: new(big.Int).Set(required),
	}

	if current.Cmp(required) >= 0 {
		outcome.WasAlreadyApproved = true
		return outcome, nil
	}

	data, err := broker.PackApprove(spender, required)
	if err != nil {
		return ApprovalOutcome{}, err
	}

	hash, err := m.Capability.SignAndSend(ctx, chain.TxIntent{
		To:            token,
		Value:         big.NewInt(0),
		Data:          data,
		GasLimit:      approveGasLimit,
		LegacyPricing: profile.RequiresLegacyPricing,
	})
	if err != nil {
		return ApprovalOutcome{}, fmt.Errorf("sending approval: %w", err)
	}
	outcome.TxHash = &hash

	if m.OnSubmitted != nil {
		m.OnSubmitted(hash)
	}

	receipt, err := m.Capability.AwaitConfirmations(ctx, hash, profile.ConfirmationsRequired)
	if err != nil {
		return outcome, fmt.Errorf("waiting for approval %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return outcome, fmt.Errorf("approval transaction %s reverted", hash.Hex())
	}

	return outcome, nil
}
