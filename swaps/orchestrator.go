package swaps

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/thisyearnofear/swaprunner/chain"
	"github.com/thisyearnofear/swaprunner/classify"
	"github.com/thisyearnofear/swaprunner/networks"
	"github.com/thisyearnofear/swaprunner/quotes"
	"github.com/thisyearnofear/swaprunner/routes"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "swaps").Logger()
}

// Orchestrator drives a swap request through allowance handling, route
// discovery, quoting and execution. It holds no state between calls and
// never retries on its own; re-submission is always a caller decision.
// Callers must not issue concurrent requests against the same capability —
// the underlying account's nonce ordering is the only arbiter there.
type Orchestrator struct {
	capability chain.Capability
	broker     Broker
	finder     *routes.Finder
	calculator *quotes.Calculator
	callbacks  Callbacks
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCallbacks registers progress callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(o *Orchestrator) { o.callbacks = cb }
}

// WithRoutingPolicy overrides the default two-hop routing-asset policy.
func WithRoutingPolicy(policy routes.Policy) Option {
	return func(o *Orchestrator) { o.finder = routes.NewFinder(o.broker, policy) }
}

// New builds an Orchestrator over a capability and a broker deployment.
func New(capability chain.Capability, b Broker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		capability: capability,
		broker:     b,
		finder:     routes.NewFinder(b, routes.DefaultPolicy()),
		calculator: quotes.NewCalculator(b),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// state is owned exclusively by one Swap call and surfaced only through
// the returned Result.
type state struct {
	step           Step
	approvalTxHash *common.Hash
	swapTxHash     *common.Hash
}

// Swap executes one request to a terminal result. Every failure comes back
// classified; the raw error never leaks into the result.
func (o *Orchestrator) Swap(ctx context.Context, req Request) Result {
	attempt := uuid.NewString()
	st := &state{step: StepIdle}

	profile, quote, path, err := o.run(ctx, attempt, req, st)
	if err == nil {
		st.step = StepCompleted
		return Result{
			Success:        true,
			ApprovalTxHash: st.approvalTxHash,
			SwapTxHash:     st.swapTxHash,
			Step:           st.step,
			Quote:          quote,
			Path:           path,
		}
	}

	st.step = StepError
	classified := classify.Classify(err, classify.Context{Action: "swap", Network: profile})

	log.Warn().
		Str("attempt", attempt).
		Str("kind", string(classified.Kind)).
		Err(err).
		Msg("swap failed")

	return Result{
		ApprovalTxHash:     st.approvalTxHash,
		SwapTxHash:         st.swapTxHash,
		Step:               st.step,
		ErrorKind:          classified.Kind,
		ErrorMessage:       classified.Message,
		TestnetRecoverable: classified.IsTestnetRecoverable,
	}
}

func (o *Orchestrator) run(ctx context.Context, attempt string, req Request, st *state) (networks.Profile, *quotes.Quote, *routes.Path, error) {
	if req.FromToken == req.ToToken {
		return networks.Profile{}, nil, nil, fmt.Errorf("from and to tokens are identical")
	}

	networkID, err := o.capability.NetworkID(ctx)
	if err != nil {
		return networks.Profile{}, nil, nil, fmt.Errorf("resolving active network: %w", err)
	}

	fromNet := req.FromNetworkID
	if fromNet == 0 {
		fromNet = networkID.Int64()
	}
	toNet := req.ToNetworkID
	if toNet == 0 {
		toNet = fromNet
	}

	profile, err := networks.Resolve(fromNet)
	if err != nil {
		return networks.Profile{}, nil, nil, err
	}

	if fromNet != toNet {
		// Detect-only: moving custody across networks requires bridging,
		// which is outside this engine.
		return profile, nil, nil, fmt.Errorf("swap from network %d to %d requires bridging", fromNet, toNet)
	}

	log.Info().
		Str("attempt", attempt).
		Str("network", profile.Name).
		Str("from", req.FromToken.Hex()).
		Str("to", req.ToToken.Hex()).
		Str("amount", req.Amount).
		Msg("starting swap")

	inDecimals, err := o.broker.Decimals(ctx, req.FromToken)
	if err != nil {
		return profile, nil, nil, fmt.Errorf("reading input token decimals: %w", err)
	}
	outDecimals, err := o.broker.Decimals(ctx, req.ToToken)
	if err != nil {
		return profile, nil, nil, fmt.Errorf("reading output token decimals: %w", err)
	}

	amountIn, err := ParseAmount(req.Amount, inDecimals)
	if err != nil {
		return profile, nil, nil, err
	}

	// Allowance must be confirmed sufficient strictly before the swap is
	// submitted; the broker enforces it at submission time.
	st.step = StepApproving
	manager := &AllowanceManager{
		Reader:      o.broker,
		Capability:  o.capability,
		OnSubmitted: o.callbacks.OnApprovalSubmitted,
	}
	outcome, err := manager.Ensure(ctx, req.FromToken, o.broker.Address(), amountIn, profile)
	if outcome.TxHash != nil {
		st.approvalTxHash = outcome.TxHash
	}
	if err != nil {
		return profile, nil, nil, err
	}
	if o.callbacks.OnApprovalConfirmed != nil {
		o.callbacks.OnApprovalConfirmed()
	}

	st.step = StepSwapping
	path, err := o.finder.FindPath(ctx, fromNet, req.FromToken, req.ToToken)
	if err != nil {
		return profile, nil, nil, err
	}

	quote, err := o.calculator.Quote(ctx, path, amountIn, req.SlippagePercent, inDecimals, outDecimals, req.ReferenceRate)
	if err != nil {
		return profile, nil, &path, err
	}

	executor := &Executor{
		Capability:  o.capability,
		BrokerAddr:  o.broker.Address(),
		OnSubmitted: o.callbacks.OnSwapSubmitted,
	}

	for i, hop := range path.Hops {
		tokenIn, tokenOut := path.Tokens[i], path.Tokens[i+1]
		hopIn, hopMin := quote.HopInputs[i], quote.HopMinimums[i]

		// The first hop's allowance was handled in the approving phase;
		// an intermediate routing asset needs its own exact approval.
		if i > 0 {
			inner := &AllowanceManager{Reader: o.broker, Capability: o.capability}
			if _, err := inner.Ensure(ctx, tokenIn, o.broker.Address(), hopIn, profile); err != nil {
				return profile, quote, &path, fmt.Errorf("approving hop %d input: %w", i+1, err)
			}
		}

		hash, _, err := executor.Execute(ctx, hop, tokenIn, tokenOut, hopIn, hopMin, profile)
		if hash != (common.Hash{}) {
			h := hash
			st.swapTxHash = &h
		}
		if err != nil {
			return profile, quote, &path, err
		}
	}

	log.Info().
		Str("attempt", attempt).
		Str("expected_out", quote.ExpectedOutput.String()).
		Str("minimum_out", quote.MinimumOutput.String()).
		Msg("swap completed")

	return profile, quote, &path, nil
}

// ParseAmount scales a human-unit decimal string into smallest units.
// Precision beyond the token's decimals is truncated the way the chain
// itself would.
func ParseAmount(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %q", amount)
	}
	scaled := d.Shift(int32(decimals)).Truncate(0).BigInt()
	if scaled.Sign() <= 0 {
		return nil, fmt.Errorf("amount %q is below the token's smallest unit", amount)
	}
	return scaled, nil
}
