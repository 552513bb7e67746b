package broker

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(err)
	}
}

// Allowance reads the amount of token the owner has approved the spender
// to move.
func (r *Reader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("packing allowance: %w", err)
	}

	out, err := r.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("reading allowance of %s: %w", token.Hex(), err)
	}

	results, err := erc20ABI.Unpack("allowance", out)
	if err != nil {
		return nil, fmt.Errorf("decoding allowance: %w", err)
	}
	return *abi.ConvertType(results[0], new(*big.Int)).(**big.Int), nil
}

// BalanceOf reads the token balance of an account.
func (r *Reader) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("packing balanceOf: %w", err)
	}

	out, err := r.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("reading balance of %s: %w", token.Hex(), err)
	}

	results, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("decoding balanceOf: %w", err)
	}
	return *abi.ConvertType(results[0], new(*big.Int)).(**big.Int), nil
}

// Decimals reads the token's decimal count, used to scale human-unit
// amounts into smallest units.
func (r *Reader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("packing decimals: %w", err)
	}

	out, err := r.call(ctx, token, data)
	if err != nil {
		return 0, fmt.Errorf("reading decimals of %s: %w", token.Hex(), err)
	}

	results, err := erc20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("decoding decimals: %w", err)
	}
	return *abi.ConvertType(results[0], new(uint8)).(*uint8), nil
}

// PackApprove builds the calldata approving the spender for exactly amount.
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("packing approve: %w", err)
	}
	return data, nil
}
