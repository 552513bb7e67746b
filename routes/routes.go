// Package routes discovers tradeable exchange routes on the broker. The
// broker exposes no pair lookup, so discovery enumerates every provider's
// exchanges; provider counts are single-digit in practice.
package routes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/thisyearnofear/swaprunner/broker"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "routes").Logger()
}

// ErrNoRoute is returned when no exchange, direct or two-hop, can trade
// the requested pair.
var ErrNoRoute = errors.New("no exchange route found")

// Route is a single tradeable pool: the provider hosting it, the pool id,
// and the pool's asset set. Routes are rediscovered on every swap attempt
// because providers and pools can change on-chain between calls.
type Route struct {
	Provider common.Address
	PoolID   [32]byte
	Assets   []common.Address
}

// Path is the executable plan for a swap: one hop for a direct pool, two
// hops when the pair is only linkable through a routing asset. Tokens
// carries the asset sequence traversed, so len(Tokens) == len(Hops)+1.
type Path struct {
	Hops   []Route
	Tokens []common.Address
}

// Direct reports whether the path needs no intermediate asset.
func (p Path) Direct() bool {
	return len(p.Hops) == 1
}

// Broker is the read surface discovery needs.
type Broker interface {
	ExchangeProviders(ctx context.Context) ([]common.Address, error)
	Exchanges(ctx context.Context, provider common.Address) ([]broker.Exchange, error)
}

// Policy configures two-hop routing: for each network, an ordered list of
// routing-asset candidates to try when no direct pool exists.
type Policy struct {
	RoutingAssets map[int64][]common.Address
}

// DefaultPolicy routes through each network's stable reference asset.
func DefaultPolicy() Policy {
	return Policy{
		RoutingAssets: map[int64][]common.Address{
			// cUSD
			42220: {common.HexToAddress("0x765DE816845861e75A25fCA122bb6898B8B1282a")},
			44787: {common.HexToAddress("0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1")},
			62320: {common.HexToAddress("0x62492A644A588FD904270BeD06ad52B9abfEA1aE")},
		},
	}
}

// Finder performs route discovery against a single broker deployment.
type Finder struct {
	broker Broker
	policy Policy
}

func NewFinder(b Broker, policy Policy) *Finder {
	return &Finder{broker: b, policy: policy}
}

// FindDirect scans providers in registration order and returns the first
// pool whose asset set contains both tokens. The scan order makes repeated
// calls deterministic for unchanged broker state.
func (f *Finder) FindDirect(ctx context.Context, fromToken, toToken common.Address) (Route, error) {
	providers, err := f.broker.ExchangeProviders(ctx)
	if err != nil {
		return Route{}, fmt.Errorf("listing exchange providers: %w", err)
	}

	for _, provider := range providers {
		exchanges, err := f.broker.Exchanges(ctx, provider)
		if err != nil {
			return Route{}, fmt.Errorf("listing exchanges: %w", err)
		}
		for _, exchange := range exchanges {
			if containsBoth(exchange.Assets, fromToken, toToken) {
				return Route{Provider: provider, PoolID: exchange.ID, Assets: exchange.Assets}, nil
			}
		}
	}

	return Route{}, fmt.Errorf("%w: %s -> %s", ErrNoRoute, fromToken.Hex(), toToken.Hex())
}

// FindPath returns a direct route when one exists, otherwise attempts a
// two-hop plan through the network's routing-asset candidates in policy
// order. Both hops must resolve or the whole discovery fails.
func (f *Finder) FindPath(ctx context.Context, networkID int64, fromToken, toToken common.Address) (Path, error) {
	direct, err := f.FindDirect(ctx, fromToken, toToken)
	if err == nil {
		return Path{
			Hops:   []Route{direct},
			Tokens: []common.Address{fromToken, toToken},
		}, nil
	}
	if !errors.Is(err, ErrNoRoute) {
		return Path{}, err
	}

	for _, routing := range f.policy.RoutingAssets[networkID] {
		if routing == fromToken || routing == toToken {
			continue
		}

		first, err := f.FindDirect(ctx, fromToken, routing)
		if err != nil {
			if errors.Is(err, ErrNoRoute) {
				continue
			}
			return Path{}, err
		}
		second, err := f.FindDirect(ctx, routing, toToken)
		if err != nil {
			if errors.Is(err, ErrNoRoute) {
				continue
			}
			return Path{}, err
		}

		log.Debug().
			Str("from", fromToken.Hex()).
			Str("to", toToken.Hex()).
			Str("via", routing.Hex()).
			Msg("two-hop route resolved")

		return Path{
			Hops:   []Route{first, second},
			Tokens: []common.Address{fromToken, routing, toToken},
		}, nil
	}

	return Path{}, fmt.Errorf("%w: %s -> %s (no direct pool or routing asset path)", ErrNoRoute, fromToken.Hex(), toToken.Hex())
}

func containsBoth(assets []common.Address, a, b common.Address) bool {
	var foundA, foundB bool
	for _, asset := range assets {
		if asset == a {
			foundA = true
		}
		if asset == b {
			foundB = true
		}
	}
	return foundA && foundB
}
