// Package broker binds the on-chain AMM broker contract: enumeration of its
// registered exchange providers, the exchanges (pools) each provider hosts,
// read-only rate queries, and calldata packing for the swap call itself.
package broker

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const brokerABIJSON = `[
	{"inputs":[],"name":"getExchangeProviders","outputs":[{"name":"","type":"address[]"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"exchangeProvider","type":"address"},{"name":"exchangeId","type":"bytes32"},{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"}],"name":"getAmountOut","outputs":[{"name":"amountOut","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"exchangeProvider","type":"address"},{"name":"exchangeId","type":"bytes32"},{"name":"tokenIn","type":"address"},{"name":"tokenOut","type":"address"},{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"}],"name":"swapIn","outputs":[{"name":"amountOut","type":"uint256"}],"stateMutability":"nonpayable","type":"function"}
]`

const providerABIJSON = `[
	{"inputs":[],"name":"getExchanges","outputs":[{"name":"exchanges","type":"tuple[]","components":[{"name":"exchangeId","type":"bytes32"},{"name":"assets","type":"address[]"}]}],"stateMutability":"view","type":"function"}
]`

var (
	brokerABI   abi.ABI
	providerABI abi.ABI
)

func init() {
	var err error
	brokerABI, err = abi.JSON(strings.NewReader(brokerABIJSON))
	if err != nil {
		panic(err)
	}
	providerABI, err = abi.JSON(strings.NewReader(providerABIJSON))
	if err != nil {
		panic(err)
	}
}

// Exchange is a single pool hosted by an exchange provider, identified by
// its id and the fixed set of assets it trades.
type Exchange struct {
	ID     [32]byte
	Assets []common.Address
}

// Caller is the read-only contract access the reader needs. Both
// *ethclient.Client and chain.Capability satisfy it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader performs read-only queries against a broker deployment.
type Reader struct {
	addr   common.Address
	caller Caller
}

func NewReader(addr common.Address, caller Caller) *Reader {
	return &Reader{addr: addr, caller: caller}
}

// Address returns the broker contract address. It doubles as the spender
// for token approvals.
func (r *Reader) Address() common.Address {
	return r.addr
}

func (r *Reader) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// ExchangeProviders lists the exchange provider contracts registered with
// the broker.
func (r *Reader) ExchangeProviders(ctx context.Context) ([]common.Address, error) {
	data, err := brokerABI.Pack("getExchangeProviders")
	if err != nil {
		return nil, fmt.Errorf("packing getExchangeProviders: %w", err)
	}

	out, err := r.call(ctx, r.addr, data)
	if err != nil {
		return nil, fmt.Errorf("calling getExchangeProviders: %w", err)
	}

	results, err := brokerABI.Unpack("getExchangeProviders", out)
	if err != nil {
		return nil, fmt.Errorf("decoding getExchangeProviders: %w", err)
	}

	providers := *abi.ConvertType(results[0], new([]common.Address)).(*[]common.Address)
	return providers, nil
}

// Exchanges lists the pools hosted by a single exchange provider.
func (r *Reader) Exchanges(ctx context.Context, provider common.Address) ([]Exchange, error) {
	data, err := providerABI.Pack("getExchanges")
	if err != nil {
		return nil, fmt.Errorf("packing getExchanges: %w", err)
	}

	out, err := r.call(ctx, provider, data)
	if err != nil {
		return nil, fmt.Errorf("calling getExchanges on %s: %w", provider.Hex(), err)
	}

	results, err := providerABI.Unpack("getExchanges", out)
	if err != nil {
		return nil, fmt.Errorf("decoding getExchanges: %w", err)
	}

	raw := *abi.ConvertType(results[0], new([]struct {
		ExchangeId [32]byte
		Assets     []common.Address
	})).(*[]struct {
		ExchangeId [32]byte
		Assets     []common.Address
	})

	exchanges := make([]Exchange, 0, len(raw))
	for _, e := range raw {
		exchanges = append(exchanges, Exchange{ID: e.ExchangeId, Assets: e.Assets})
	}
	return exchanges, nil
}

// AmountOut returns the broker's quoted output for swapping amountIn of
// tokenIn into tokenOut on the given pool.
func (r *Reader) AmountOut(ctx context.Context, provider common.Address, exchangeID [32]byte, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	data, err := brokerABI.Pack("getAmountOut", provider, exchangeID, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, fmt.Errorf("packing getAmountOut: %w", err)
	}

	out, err := r.call(ctx, r.addr, data)
	if err != nil {
		return nil, fmt.Errorf("calling getAmountOut: %w", err)
	}

	results, err := brokerABI.Unpack("getAmountOut", out)
	if err != nil {
		return nil, fmt.Errorf("decoding getAmountOut: %w", err)
	}

	return *abi.ConvertType(results[0], new(*big.Int)).(**big.Int), nil
}

// PackSwapIn builds the calldata for the broker's swapIn call.
func PackSwapIn(provider common.Address, exchangeID [32]byte, tokenIn, tokenOut common.Address, amountIn, amountOutMin *big.Int) ([]byte, error) {
	data, err := brokerABI.Pack("swapIn", provider, exchangeID, tokenIn, tokenOut, amountIn, amountOutMin)
	if err != nil {
		return nil, fmt.Errorf("packing swapIn: %w", err)
	}
	return data, nil
}
