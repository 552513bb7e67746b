// Package classify maps low-level swap failures into a small taxonomy of
// user-meaningful error kinds. Raw provider errors are frequently opaque
// strings, so classification is a prioritized substring table; typed
// sentinels are checked first where the engine exposes them.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thisyearnofear/swaprunner/networks"
	"github.com/thisyearnofear/swaprunner/quotes"
	"github.com/thisyearnofear/swaprunner/routes"
)

// Kind identifies a class of swap failure.
type Kind string

const (
	KindUserRejected        Kind = "user-rejected"
	KindInsufficientGas     Kind = "insufficient-gas"
	KindInsufficientBalance Kind = "insufficient-balance-or-allowance"
	KindNonceConflict       Kind = "nonce-conflict"
	KindExecutionReverted   Kind = "execution-reverted"
	KindTimeout             Kind = "network-timeout"
	KindOracleUnavailable   Kind = "oracle-unavailable"
	KindRouteNotFound       Kind = "route-not-found"
	KindUnderpriced         Kind = "underpriced"
	KindAlwaysFailing       Kind = "always-failing"
	KindBridgeRequired      Kind = "bridge-required"
	KindInvalidRequest      Kind = "invalid-request"
	KindUnknown             Kind = "unknown"
)

// Context tells the classifier what was being attempted and where.
type Context struct {
	// Action is the verb for generic messages, e.g. "swap" or "approve".
	Action string
	// Network is the profile of the active network; the zero value is
	// tolerated when classification happens before network resolution.
	Network networks.Profile
}

// Result is the classified failure handed back to callers. Messages are
// always human-readable; raw failure text never passes through verbatim.
type Result struct {
	Kind    Kind
	Message string

	// IsTestnetRecoverable advises the caller that substituting a
	// simulated success is reasonable — typically a route miss on a
	// liquidity-less test network. The substitution itself is the
	// caller's decision, never the classifier's.
	IsTestnetRecoverable bool
}

type rule struct {
	matches func(text string) bool
	build   func(ctx Context) Result
}

func anyOf(substrings ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range substrings {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	}
}

// Rules are evaluated in order; raw messages can contain several matching
// substrings, so the first hit wins.
var rules = []rule{
	{anyOf("user rejected", "user denied", "rejected by user"), func(ctx Context) Result {
		return Result{Kind: KindUserRejected, Message: "Transaction rejected in your wallet. Try again when you're ready."}
	}},
	{anyOf("insufficient funds for gas", "insufficient funds for transfer"), func(ctx Context) Result {
		symbol := ctx.Network.NativeCurrencySymbol
		if symbol == "" {
			symbol = "the network's gas asset"
		}
		return Result{Kind: KindInsufficientGas, Message: fmt.Sprintf("Not enough %s to pay for gas. Add %s to your wallet and try again.", symbol, symbol)}
	}},
	{anyOf("transfer amount exceeds balance", "insufficient allowance", "insufficient-allowance", "subtraction overflow"), func(ctx Context) Result {
		return Result{Kind: KindInsufficientBalance, Message: "The transfer could not be funded. Check your token balance and try again."}
	}},
	{anyOf("nonce too low", "nonce too high", "replacement transaction"), func(ctx Context) Result {
		return Result{Kind: KindNonceConflict, Message: "Another transaction from this account is still settling. Wait for pending transactions to confirm, then retry."}
	}},
	{anyOf("execution reverted", "reverted", "status 0"), func(ctx Context) Result {
		return Result{Kind: KindExecutionReverted, Message: "The swap reverted on-chain — usually slippage or thin liquidity. Retry with a higher slippage tolerance or a smaller amount."}
	}},
	{anyOf("timed out", "timeout", "context deadline exceeded"), func(ctx Context) Result {
		return Result{Kind: KindTimeout, Message: "The network looks congested and the transaction is taking too long. Check your wallet for its final status before retrying."}
	}},
	{anyOf("no valid median", "oracle"), func(ctx Context) Result {
		return Result{Kind: KindOracleUnavailable, Message: "No valid price data for this pair right now — common on test networks. Try a different pair."}
	}},
	{anyOf("no exchange route found"), buildRouteNotFound},
	{anyOf("underpriced"), func(ctx Context) Result {
		return Result{Kind: KindUnderpriced, Message: "The network rejected the transaction as underpriced. Retry with a higher gas price."}
	}},
	{anyOf("always failing transaction", "cannot estimate gas"), func(ctx Context) Result {
		return Result{Kind: KindAlwaysFailing, Message: "This swap cannot succeed as constructed — a contract restriction or missing liquidity. Try a different pair or amount."}
	}},
	{anyOf("requires bridging"), func(ctx Context) Result {
		return Result{Kind: KindBridgeRequired, Message: "This pair lives on two different networks. Bridge the asset first, then swap on the destination network."}
	}},
}

func buildRouteNotFound(ctx Context) Result {
	if ctx.Network.IsTestNetwork {
		return Result{
			Kind:                 KindRouteNotFound,
			Message:              fmt.Sprintf("No tradeable pool for this pair on %s. Test networks often lack liquidity; a simulated result can stand in.", networkName(ctx)),
			IsTestnetRecoverable: true,
		}
	}
	return Result{
		Kind:    KindRouteNotFound,
		Message: fmt.Sprintf("This pair is not tradeable on %s.", networkName(ctx)),
	}
}

func networkName(ctx Context) string {
	if ctx.Network.Name != "" {
		return ctx.Network.Name
	}
	return "this network"
}

// Classify maps a raw failure to its kind and message. Typed sentinels
// from the engine's own layers take precedence over substring matching.
func Classify(err error, ctx Context) Result {
	if err == nil {
		return Result{Kind: KindUnknown, Message: genericMessage(ctx)}
	}

	switch {
	case errors.Is(err, routes.ErrNoRoute):
		return buildRouteNotFound(ctx)
	case errors.Is(err, quotes.ErrInvalidSlippage):
		return Result{Kind: KindInvalidRequest, Message: "Slippage tolerance must be between 0 and 100 percent."}
	case errors.Is(err, networks.ErrUnknownNetwork):
		return Result{Kind: KindInvalidRequest, Message: "This network is not supported."}
	}

	text := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.matches(text) {
			return r.build(ctx)
		}
	}

	return Result{Kind: KindUnknown, Message: genericMessage(ctx)}
}

func genericMessage(ctx Context) string {
	action := ctx.Action
	if action == "" {
		action = "complete the swap"
	}
	if ctx.Network.IsTestNetwork {
		return fmt.Sprintf("Something went wrong on %s. Test networks can be unreliable — please try again.", networkName(ctx))
	}
	return fmt.Sprintf("Failed to %s. Please try again.", action)
}
