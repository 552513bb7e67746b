package networks

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		networkID     int64
		name          string
		testnet       bool
		confirmations uint64
		legacy        bool
	}{
		{42220, "celo", false, ProductionConfirmations, true},
		{44787, "alfajores", true, TestnetConfirmations, true},
		{62320, "baklava", true, TestnetConfirmations, true},
		{8453, "base", false, ProductionConfirmations, false},
		{84532, "base-sepolia", true, TestnetConfirmations, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := Resolve(tt.networkID)
			if err != nil {
				t.Fatalf("Resolve(%d): %v", tt.networkID, err)
			}
			if profile.Name != tt.name {
				t.Errorf("name = %q, want %q", profile.Name, tt.name)
			}
			if profile.IsTestNetwork != tt.testnet {
				t.Errorf("IsTestNetwork = %v, want %v", profile.IsTestNetwork, tt.testnet)
			}
			if profile.ConfirmationsRequired != tt.confirmations {
				t.Errorf("ConfirmationsRequired = %d, want %d", profile.ConfirmationsRequired, tt.confirmations)
			}
			if profile.RequiresLegacyPricing != tt.legacy {
				t.Errorf("RequiresLegacyPricing = %v, want %v", profile.RequiresLegacyPricing, tt.legacy)
			}
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve(1)
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("Resolve(1) = %v, want ErrUnknownNetwork", err)
	}
}

func TestByName(t *testing.T) {
	profile, err := ByName("alfajores")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if profile.NetworkID != 44787 {
		t.Errorf("NetworkID = %d, want 44787", profile.NetworkID)
	}

	if _, err := ByName("mainnet"); !errors.Is(err, ErrUnknownNetwork) {
		t.Errorf("ByName(mainnet) = %v, want ErrUnknownNetwork", err)
	}
}

func TestAllOrdered(t *testing.T) {
	profiles := All()
	if len(profiles) != len(registry) {
		t.Fatalf("All() returned %d profiles, want %d", len(profiles), len(registry))
	}
	for i := 1; i < len(profiles); i++ {
		if profiles[i-1].NetworkID >= profiles[i].NetworkID {
			t.Errorf("profiles out of order at %d: %d then %d", i, profiles[i-1].NetworkID, profiles[i].NetworkID)
		}
	}
}
