// Package quotes turns a discovered route and an input amount into an
// expected output and the minimum acceptable output under a slippage
// tolerance. Monetary math stays in integer smallest units; only derived
// display values (exchange rate, price impact) use decimals.
package quotes

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/thisyearnofear/swaprunner/routes"
)

// ErrInvalidSlippage is returned for tolerances outside [0, 100] percent.
var ErrInvalidSlippage = errors.New("invalid slippage tolerance")

const bpsDenominator = 10_000

// Quote is the priced plan for one swap attempt. Quotes go stale within
// seconds as on-chain prices move; never reuse one across a time gap.
type Quote struct {
	Path        routes.Path
	AmountIn    *big.Int
	SlippageBps uint32

	// ExpectedOutput is the broker's quoted output for the full path;
	// MinimumOutput is the enforced floor after slippage.
	ExpectedOutput *big.Int
	MinimumOutput  *big.Int

	// HopInputs and HopMinimums guard each hop individually. The input of
	// hop n+1 is the minimum guaranteed output of hop n, so a partially
	// filled first hop can never starve the second.
	HopInputs   []*big.Int
	HopMinimums []*big.Int

	// ExchangeRate is output per unit input, in human units.
	ExchangeRate decimal.Decimal

	// PriceImpactPercent is set only when a reference rate was supplied.
	PriceImpactPercent *decimal.Decimal
}

// RateReader is the broker's read-only rate surface.
type RateReader interface {
	AmountOut(ctx context.Context, provider common.Address, exchangeID [32]byte, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
}

// SlippageToBps converts a percent tolerance to basis points, rejecting
// values outside [0, 100].
func SlippageToBps(percent float64) (uint32, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, fmt.Errorf("%w: %v%% (must be within 0-100)", ErrInvalidSlippage, percent)
	}
	return uint32(math.Round(percent * 100)), nil
}

// MinimumOut applies a basis-point slippage tolerance in integer math:
// expected * (10000 - bps) / 10000, truncated.
func MinimumOut(expected *big.Int, bps uint32) *big.Int {
	keep := big.NewInt(int64(bpsDenominator - bps))
	out := new(big.Int).Mul(expected, keep)
	return out.Div(out, big.NewInt(bpsDenominator))
}

// Calculator prices paths against a broker's rate reads.
type Calculator struct {
	rates RateReader
}

func NewCalculator(rates RateReader) *Calculator {
	return &Calculator{rates: rates}
}

// Quote prices the path for amountIn smallest units. inDecimals and
// outDecimals scale the exchange rate into human units; referenceRate, when
// non-nil, yields a price impact figure.
func (c *Calculator) Quote(ctx context.Context, path routes.Path, amountIn *big.Int, slippagePercent float64, inDecimals, outDecimals uint8, referenceRate *decimal.Decimal) (*Quote, error) {
	bps, err := SlippageToBps(slippagePercent)
	if err != nil {
		return nil, err
	}
	if len(path.Hops) == 0 || len(path.Tokens) != len(path.Hops)+1 {
		return nil, fmt.Errorf("malformed path: %d hops, %d tokens", len(path.Hops), len(path.Tokens))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}

	quote := &Quote{
		Path:        path,
		AmountIn:    new(big.Int).Set(amountIn),
		SlippageBps: bps,
	}

	// Walk the hops twice in one pass: the expected flow chains raw quoted
	// outputs, the guaranteed flow chains slippage-guarded minimums. The
	// hop minimum is scaled off the expected rate rather than re-quoted,
	// saving a round-trip per hop.
	expected := new(big.Int).Set(amountIn)
	guaranteed := new(big.Int).Set(amountIn)
	for i, hop := range path.Hops {
		out, err := c.rates.AmountOut(ctx, hop.Provider, hop.PoolID, path.Tokens[i], path.Tokens[i+1], expected)
		if err != nil {
			return nil, fmt.Errorf("quoting hop %d: %w", i+1, err)
		}
		if out == nil || out.Sign() <= 0 {
			return nil, fmt.Errorf("quoting hop %d: broker returned zero output", i+1)
		}

		// min = out * guaranteedIn / expectedIn * (10000 - bps) / 10000
		minOut := new(big.Int).Mul(out, guaranteed)
		minOut.Div(minOut, expected)
		minOut = MinimumOut(minOut, bps)

		quote.HopInputs = append(quote.HopInputs, new(big.Int).Set(guaranteed))
		quote.HopMinimums = append(quote.HopMinimums, minOut)

		expected = out
		guaranteed = minOut
	}

	quote.ExpectedOutput = expected
	quote.MinimumOutput = guaranteed

	inHuman := decimal.NewFromBigInt(amountIn, -int32(inDecimals))
	outHuman := decimal.NewFromBigInt(expected, -int32(outDecimals))
	quote.ExchangeRate = outHuman.DivRound(inHuman, 18)

	if referenceRate != nil && referenceRate.Sign() > 0 {
		impact := referenceRate.Sub(quote.ExchangeRate).
			DivRound(*referenceRate, 18).
			Mul(decimal.NewFromInt(100))
		quote.PriceImpactPercent = &impact
	}

	return quote, nil
}
