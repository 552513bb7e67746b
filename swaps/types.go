// Package swaps is the orchestration core: it sequences allowance handling,
// route discovery, quoting and execution into one swap attempt against the
// broker, reporting progress through optional callbacks and returning a
// uniform result.
package swaps

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/thisyearnofear/swaprunner/classify"
	"github.com/thisyearnofear/swaprunner/quotes"
	"github.com/thisyearnofear/swaprunner/routes"
)

// Request describes one swap attempt. Token amounts are human-unit decimal
// strings; the orchestrator scales them by the token's on-chain decimals.
type Request struct {
	FromToken common.Address
	ToToken   common.Address

	// Amount is denominated in FromToken's human units, e.g. "100.5".
	Amount string

	// FromNetworkID and ToNetworkID default to the capability's current
	// network when zero. Differing ids are detected and rejected; moving
	// custody across networks is bridging, which this engine does not do.
	FromNetworkID int64
	ToNetworkID   int64

	// SlippagePercent is the tolerance, e.g. 0.5 for 0.5%.
	SlippagePercent float64

	// ReferenceRate, when set, yields a price impact figure on the quote.
	ReferenceRate *decimal.Decimal
}

// Step is the orchestrator's state-machine position.
type Step int

const (
	StepIdle Step = iota
	StepApproving
	StepSwapping
	StepCompleted
	StepError
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepApproving:
		return "approving"
	case StepSwapping:
		return "swapping"
	case StepCompleted:
		return "completed"
	case StepError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the terminal value of one swap attempt. ErrorMessage is always
// classifier output, never a raw failure string.
type Result struct {
	Success bool

	ApprovalTxHash *common.Hash
	SwapTxHash     *common.Hash

	Quote *quotes.Quote
	Path  *routes.Path

	Step               Step
	ErrorKind          classify.Kind
	ErrorMessage       string
	TestnetRecoverable bool
}

// Callbacks report progress during a swap. All fields are optional and
// their absence changes nothing about control flow.
type Callbacks struct {
	OnApprovalSubmitted func(hash common.Hash)
	OnApprovalConfirmed func()
	OnSwapSubmitted     func(hash common.Hash)
}

// Broker is the full read surface the orchestrator needs from the broker
// deployment, satisfied by *broker.Reader.
type Broker interface {
	routes.Broker
	quotes.RateReader

	// Address is the broker contract: the swap target and the approval
	// spender.
	Address() common.Address

	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}
