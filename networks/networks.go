// Package networks holds the static registry of ledger networks the swap
// engine knows how to operate on.
package networks

import (
	"errors"
	"fmt"
	"sort"
)

// Confirmation depths. Test networks settle fast and reorg rarely matters
// there; production networks get a deeper margin.
const (
	ProductionConfirmations uint64 = 3
	TestnetConfirmations    uint64 = 1
)

// ErrUnknownNetwork is returned by Resolve for chain ids not in the registry.
var ErrUnknownNetwork = errors.New("unknown network")

// Profile describes the fixed properties of a single network. Profiles are
// immutable; the registry is populated once at init.
type Profile struct {
	NetworkID             int64
	Name                  string
	IsTestNetwork         bool
	ConfirmationsRequired uint64
	// RequiresLegacyPricing forces explicit gas-price transactions. True on
	// all test networks and on networks where lightweight wallets do not
	// handle EIP-1559 fee fields.
	RequiresLegacyPricing bool
	NativeCurrencySymbol  string
}

var registry = map[int64]Profile{
	42220: {
		NetworkID:             42220,
		Name:                  "celo",
		ConfirmationsRequired: ProductionConfirmations,
		RequiresLegacyPricing: true,
		NativeCurrencySymbol:  "CELO",
	},
	44787: {
		NetworkID:             44787,
		Name:                  "alfajores",
		IsTestNetwork:         true,
		ConfirmationsRequired: TestnetConfirmations,
		RequiresLegacyPricing: true,
		NativeCurrencySymbol:  "CELO",
	},
	62320: {
		NetworkID:             62320,
		Name:                  "baklava",
		IsTestNetwork:         true,
		ConfirmationsRequired: TestnetConfirmations,
		RequiresLegacyPricing: true,
		NativeCurrencySymbol:  "CELO",
	},
	8453: {
		NetworkID:             8453,
		Name:                  "base",
		ConfirmationsRequired: ProductionConfirmations,
		NativeCurrencySymbol:  "ETH",
	},
	84532: {
		NetworkID:             84532,
		Name:                  "base-sepolia",
		IsTestNetwork:         true,
		ConfirmationsRequired: TestnetConfirmations,
		RequiresLegacyPricing: true,
		NativeCurrencySymbol:  "ETH",
	},
}

// Resolve returns the profile for a chain id.
func Resolve(networkID int64) (Profile, error) {
	profile, ok := registry[networkID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: chain id %d", ErrUnknownNetwork, networkID)
	}
	return profile, nil
}

// ByName returns the profile whose Name matches, for CLI lookups.
func ByName(name string) (Profile, error) {
	for _, profile := range registry {
		if profile.Name == name {
			return profile, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
}

// All returns every registered profile, ordered by chain id.
func All() []Profile {
	profiles := make([]Profile, 0, len(registry))
	for _, p := range registry {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].NetworkID < profiles[j].NetworkID
	})
	return profiles
}
