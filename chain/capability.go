// Package chain defines the boundary between the swap engine and whatever
// holds the user's signing key. The engine only ever talks to a Capability;
// wallet integrations supply the implementation.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxIntent describes a transaction for the capability to price, sign and
// submit. A zero GasLimit asks the capability to estimate.
type TxIntent struct {
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64

	// LegacyPricing requests an explicit gas-price transaction instead of
	// EIP-1559 fee estimation. Required on test networks and for
	// lightweight-wallet environments.
	LegacyPricing bool
}

// Capability is the signing and chain-access boundary. Every method may
// block on network round-trips and may fail with a user-rejection error;
// callers treat all of them as suspension points.
type Capability interface {
	// NetworkID reports the chain id the capability is connected to.
	NetworkID(ctx context.Context) (*big.Int, error)

	// Address reports the account that will fund transactions.
	Address() common.Address

	// CallContract performs a read-only contract call.
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

	// SignAndSend prices, signs and submits the intent, returning the
	// transaction hash once accepted by the network.
	SignAndSend(ctx context.Context, intent TxIntent) (common.Hash, error)

	// AwaitConfirmations blocks until the transaction is mined and buried
	// under the requested number of confirmations, returning its receipt.
	AwaitConfirmations(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error)
}
