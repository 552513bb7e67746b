package swaps

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/thisyearnofear/swaprunner/broker"
	"github.com/thisyearnofear/swaprunner/chain"
	"github.com/thisyearnofear/swaprunner/networks"
	"github.com/thisyearnofear/swaprunner/routes"
)

// ErrSwapReverted marks a swap that was mined but reverted, as opposed to
// one the network never accepted. The receipt status is the source of
// truth; callers can tell "never mined" from "mined but reverted" by this
// sentinel.
var ErrSwapReverted = errors.New("swap transaction reverted")

// Executor submits swap transactions against discovered routes.
type Executor struct {
	Capability chain.Capability
	BrokerAddr common.Address

	// OnSubmitted fires with the swap hash once sent; optional.
	OnSubmitted func(hash common.Hash)
}

// Execute submits one hop's swapIn with the computed minimum-output guard,
// using legacy pricing when the network profile demands it, and waits for
// the profile's confirmation depth.
func (e *Executor) Execute(ctx context.Context, hop routes.Route, tokenIn, tokenOut common.Address, amountIn, minimumOut *big.Int, profile networks.Profile) (common.Hash, *types.Receipt, error) {
	data, err := broker.PackSwapIn(hop.Provider, hop.PoolID, tokenIn, tokenOut, amountIn, minimumOut)
	if err != nil {
		return common.Hash{}, nil, err
	}

	hash, err := e.Capability.SignAndSend(ctx, chain.TxIntent{
		To:            e.BrokerAddr,
		Value:         big.NewInt(0),
		Data:          data,
		LegacyPricing: profile.RequiresLegacyPricing,
	})
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("sending swap: %w", err)
	}

	if e.OnSubmitted != nil {
		e.OnSubmitted(hash)
	}

	receipt, err := e.Capability.AwaitConfirmations(ctx, hash, profile.ConfirmationsRequired)
	if err != nil {
		return hash, nil, fmt.Errorf("waiting for swap %s: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return hash, receipt, fmt.Errorf("%w: tx %s", ErrSwapReverted, hash.Hex())
	}

	return hash, receipt, nil
}
