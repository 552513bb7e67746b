package quotes

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/thisyearnofear/swaprunner/routes"
)

func TestSlippageToBps(t *testing.T) {
	tests := []struct {
		percent float64
		want    uint32
		wantErr bool
	}{
		{0, 0, false},
		{0.5, 50, false},
		{1, 100, false},
		{2.5, 250, false},
		{100, 10000, false},
		{-0.1, 0, true},
		{100.1, 0, true},
		{math.NaN(), 0, true},
	}

	for _, tt := range tests {
		bps, err := SlippageToBps(tt.percent)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSlippage) {
				t.Errorf("SlippageToBps(%v) = %v, want ErrInvalidSlippage", tt.percent, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("SlippageToBps(%v): %v", tt.percent, err)
			continue
		}
		if bps != tt.want {
			t.Errorf("SlippageToBps(%v) = %d, want %d", tt.percent, bps, tt.want)
		}
	}
}

func TestMinimumOut(t *testing.T) {
	tests := []struct {
		expected string
		bps      uint32
		want     string
	}{
		{"1000000", 50, "995000"},
		{"1000000", 0, "1000000"},
		{"1000000", 10000, "0"},
		// 999 * 9950 / 10000 = 994.005, truncated
		{"999", 50, "994"},
	}

	for _, tt := range tests {
		expected, _ := new(big.Int).SetString(tt.expected, 10)
		want, _ := new(big.Int).SetString(tt.want, 10)
		got := MinimumOut(expected, tt.bps)
		if got.Cmp(want) != 0 {
			t.Errorf("MinimumOut(%s, %d) = %s, want %s", tt.expected, tt.bps, got, want)
		}
	}
}

// fakeRates answers AmountOut from a fixed rate expressed as numerator over
// denominator, the same for every hop.
type fakeRates struct {
	num, den int64
	calls    int
}

func (f *fakeRates) AmountOut(ctx context.Context, provider common.Address, exchangeID [32]byte, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	f.calls++
	out := new(big.Int).Mul(amountIn, big.NewInt(f.num))
	return out.Div(out, big.NewInt(f.den)), nil
}

func onePath(tokens ...common.Address) routes.Path {
	hops := make([]routes.Route, len(tokens)-1)
	for i := range hops {
		hops[i] = routes.Route{Provider: common.HexToAddress("0x01"), Assets: tokens[i : i+2]}
	}
	return routes.Path{Hops: hops, Tokens: tokens}
}

func TestQuoteSingleHop(t *testing.T) {
	tokenA := common.HexToAddress("0xa0")
	tokenB := common.HexToAddress("0xb0")
	rates := &fakeRates{num: 92, den: 100}
	calc := NewCalculator(rates)

	amountIn := big.NewInt(1_000_000)
	quote, err := calc.Quote(context.Background(), onePath(tokenA, tokenB), amountIn, 0.5, 6, 6, nil)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if quote.ExpectedOutput.Cmp(big.NewInt(920_000)) != 0 {
		t.Errorf("ExpectedOutput = %s, want 920000", quote.ExpectedOutput)
	}
	// 920000 * 9950 / 10000
	if quote.MinimumOutput.Cmp(big.NewInt(915_400)) != 0 {
		t.Errorf("MinimumOutput = %s, want 915400", quote.MinimumOutput)
	}
	if quote.SlippageBps != 50 {
		t.Errorf("SlippageBps = %d, want 50", quote.SlippageBps)
	}
	if len(quote.HopInputs) != 1 || quote.HopInputs[0].Cmp(amountIn) != 0 {
		t.Errorf("HopInputs = %v, want [%s]", quote.HopInputs, amountIn)
	}
	if len(quote.HopMinimums) != 1 || quote.HopMinimums[0].Cmp(quote.MinimumOutput) != 0 {
		t.Errorf("HopMinimums = %v, want [%s]", quote.HopMinimums, quote.MinimumOutput)
	}
	if !quote.ExchangeRate.Equal(decimal.RequireFromString("0.92")) {
		t.Errorf("ExchangeRate = %s, want 0.92", quote.ExchangeRate)
	}
	if quote.PriceImpactPercent != nil {
		t.Error("PriceImpactPercent set without a reference rate")
	}
	if rates.calls != 1 {
		t.Errorf("rate reads = %d, want 1", rates.calls)
	}
}

func TestQuoteTwoHopChainsMinimums(t *testing.T) {
	tokenA := common.HexToAddress("0xa0")
	mid := common.HexToAddress("0xcc")
	tokenB := common.HexToAddress("0xb0")
	rates := &fakeRates{num: 1, den: 1}
	calc := NewCalculator(rates)

	amountIn := big.NewInt(1_000_000)
	quote, err := calc.Quote(context.Background(), onePath(tokenA, mid, tokenB), amountIn, 1.0, 6, 6, nil)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if rates.calls != 2 {
		t.Fatalf("rate reads = %d, want 2", rates.calls)
	}
	if quote.ExpectedOutput.Cmp(amountIn) != 0 {
		t.Errorf("ExpectedOutput = %s, want %s", quote.ExpectedOutput, amountIn)
	}
	// Hop 1: 1000000 * 9900/10000 = 990000; hop 2 starts from that minimum
	// and deducts again: 990000 * 9900/10000 = 980100.
	if quote.HopMinimums[0].Cmp(big.NewInt(990_000)) != 0 {
		t.Errorf("hop 1 minimum = %s, want 990000", quote.HopMinimums[0])
	}
	if quote.HopInputs[1].Cmp(big.NewInt(990_000)) != 0 {
		t.Errorf("hop 2 input = %s, want hop 1 minimum 990000", quote.HopInputs[1])
	}
	if quote.MinimumOutput.Cmp(big.NewInt(980_100)) != 0 {
		t.Errorf("MinimumOutput = %s, want 980100", quote.MinimumOutput)
	}
}

func TestQuotePriceImpact(t *testing.T) {
	tokenA := common.HexToAddress("0xa0")
	tokenB := common.HexToAddress("0xb0")
	calc := NewCalculator(&fakeRates{num: 95, den: 100})

	ref := decimal.NewFromInt(1)
	quote, err := calc.Quote(context.Background(), onePath(tokenA, tokenB), big.NewInt(1_000_000), 0.5, 6, 6, &ref)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.PriceImpactPercent == nil {
		t.Fatal("PriceImpactPercent not set")
	}
	if !quote.PriceImpactPercent.Equal(decimal.NewFromInt(5)) {
		t.Errorf("PriceImpactPercent = %s, want 5", quote.PriceImpactPercent)
	}
}

func TestQuoteRejects(t *testing.T) {
	tokenA := common.HexToAddress("0xa0")
	tokenB := common.HexToAddress("0xb0")
	calc := NewCalculator(&fakeRates{num: 1, den: 1})
	ctx := context.Background()

	if _, err := calc.Quote(ctx, onePath(tokenA, tokenB), big.NewInt(100), 101, 6, 6, nil); !errors.Is(err, ErrInvalidSlippage) {
		t.Errorf("slippage 101 = %v, want ErrInvalidSlippage", err)
	}
	if _, err := calc.Quote(ctx, onePath(tokenA, tokenB), big.NewInt(0), 0.5, 6, 6, nil); err == nil {
		t.Error("zero amount accepted")
	}
	if _, err := calc.Quote(ctx, routes.Path{}, big.NewInt(100), 0.5, 6, 6, nil); err == nil {
		t.Error("empty path accepted")
	}
}
