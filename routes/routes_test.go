package routes

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/thisyearnofear/swaprunner/broker"
)

var (
	providerA = common.HexToAddress("0x0a")
	providerB = common.HexToAddress("0x0b")

	tokenUSD  = common.HexToAddress("0x01")
	tokenEUR  = common.HexToAddress("0x02")
	tokenCELO = common.HexToAddress("0x03")
	tokenGBP  = common.HexToAddress("0x04")
)

// fakeBroker serves a fixed provider and exchange topology.
type fakeBroker struct {
	providers []common.Address
	exchanges map[common.Address][]broker.Exchange
}

func (f *fakeBroker) ExchangeProviders(ctx context.Context) ([]common.Address, error) {
	return f.providers, nil
}

func (f *fakeBroker) Exchanges(ctx context.Context, provider common.Address) ([]broker.Exchange, error) {
	return f.exchanges[provider], nil
}

func poolID(b byte) [32]byte {
	var id [32]byte
	id[0] = b
	return id
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		providers: []common.Address{providerA, providerB},
		exchanges: map[common.Address][]broker.Exchange{
			providerA: {
				{ID: poolID(1), Assets: []common.Address{tokenUSD, tokenEUR}},
				{ID: poolID(2), Assets: []common.Address{tokenUSD, tokenCELO}},
			},
			providerB: {
				{ID: poolID(3), Assets: []common.Address{tokenUSD, tokenEUR}},
				{ID: poolID(4), Assets: []common.Address{tokenUSD, tokenGBP}},
			},
		},
	}
}

func TestFindDirectDeterministic(t *testing.T) {
	finder := NewFinder(newFakeBroker(), Policy{})

	// USD/EUR exists on both providers; registration order wins, so
	// repeated discovery always lands on provider A's pool 1.
	for i := 0; i < 3; i++ {
		route, err := finder.FindDirect(context.Background(), tokenUSD, tokenEUR)
		if err != nil {
			t.Fatalf("FindDirect: %v", err)
		}
		if route.Provider != providerA {
			t.Errorf("provider = %s, want %s", route.Provider, providerA)
		}
		if route.PoolID != poolID(1) {
			t.Errorf("pool = %x, want %x", route.PoolID, poolID(1))
		}
	}
}

func TestFindDirectOrderAgnostic(t *testing.T) {
	finder := NewFinder(newFakeBroker(), Policy{})

	route, err := finder.FindDirect(context.Background(), tokenEUR, tokenUSD)
	if err != nil {
		t.Fatalf("FindDirect reversed: %v", err)
	}
	if route.PoolID != poolID(1) {
		t.Errorf("pool = %x, want %x", route.PoolID, poolID(1))
	}
}

func TestFindDirectMiss(t *testing.T) {
	finder := NewFinder(newFakeBroker(), Policy{})

	_, err := finder.FindDirect(context.Background(), tokenEUR, tokenGBP)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("FindDirect = %v, want ErrNoRoute", err)
	}
}

func TestFindPathDirectPreferred(t *testing.T) {
	policy := Policy{RoutingAssets: map[int64][]common.Address{42220: {tokenUSD}}}
	finder := NewFinder(newFakeBroker(), policy)

	path, err := finder.FindPath(context.Background(), 42220, tokenUSD, tokenEUR)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if !path.Direct() {
		t.Fatalf("path has %d hops, want direct", len(path.Hops))
	}
	if len(path.Tokens) != 2 || path.Tokens[0] != tokenUSD || path.Tokens[1] != tokenEUR {
		t.Errorf("tokens = %v", path.Tokens)
	}
}

func TestFindPathTwoHop(t *testing.T) {
	// EUR/GBP has no direct pool but both legs exist through USD.
	policy := Policy{RoutingAssets: map[int64][]common.Address{42220: {tokenUSD}}}
	finder := NewFinder(newFakeBroker(), policy)

	path, err := finder.FindPath(context.Background(), 42220, tokenEUR, tokenGBP)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if len(path.Hops) != 2 {
		t.Fatalf("hops = %d, want 2", len(path.Hops))
	}
	if len(path.Tokens) != 3 || path.Tokens[1] != tokenUSD {
		t.Errorf("tokens = %v, want routing through %s", path.Tokens, tokenUSD)
	}
	if path.Hops[0].PoolID != poolID(1) {
		t.Errorf("hop 1 pool = %x, want %x", path.Hops[0].PoolID, poolID(1))
	}
	if path.Hops[1].PoolID != poolID(4) {
		t.Errorf("hop 2 pool = %x, want %x", path.Hops[1].PoolID, poolID(4))
	}
}

func TestFindPathNoRoutingAssetForNetwork(t *testing.T) {
	policy := Policy{RoutingAssets: map[int64][]common.Address{42220: {tokenUSD}}}
	finder := NewFinder(newFakeBroker(), policy)

	_, err := finder.FindPath(context.Background(), 8453, tokenEUR, tokenGBP)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("FindPath = %v, want ErrNoRoute", err)
	}
}

func TestFindPathSecondLegMissing(t *testing.T) {
	fb := newFakeBroker()
	// Remove USD/GBP so the second leg through USD cannot resolve.
	fb.exchanges[providerB] = fb.exchanges[providerB][:1]
	policy := Policy{RoutingAssets: map[int64][]common.Address{42220: {tokenUSD}}}
	finder := NewFinder(fb, policy)

	_, err := finder.FindPath(context.Background(), 42220, tokenEUR, tokenGBP)
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("FindPath = %v, want ErrNoRoute", err)
	}
}

func TestFindPathSkipsRoutingAssetEqualToEndpoint(t *testing.T) {
	policy := Policy{RoutingAssets: map[int64][]common.Address{42220: {tokenEUR, tokenUSD}}}
	finder := NewFinder(newFakeBroker(), policy)

	path, err := finder.FindPath(context.Background(), 42220, tokenEUR, tokenGBP)
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if path.Tokens[1] != tokenUSD {
		t.Errorf("routing asset = %s, want %s (endpoint candidate skipped)", path.Tokens[1], tokenUSD)
	}
}
