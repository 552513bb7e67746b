package classify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/thisyearnofear/swaprunner/networks"
	"github.com/thisyearnofear/swaprunner/quotes"
	"github.com/thisyearnofear/swaprunner/routes"
)

func mustProfile(t *testing.T, id int64) networks.Profile {
	t.Helper()
	profile, err := networks.Resolve(id)
	if err != nil {
		t.Fatalf("Resolve(%d): %v", id, err)
	}
	return profile
}

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"user rejected", errors.New("MetaMask Tx Signature: User denied transaction signature"), KindUserRejected},
		{"gas funds", errors.New("insufficient funds for gas * price + value"), KindInsufficientGas},
		{"balance", errors.New("execution reverted: ERC20: transfer amount exceeds balance"), KindInsufficientBalance},
		{"allowance", errors.New("execution reverted: insufficient allowance"), KindInsufficientBalance},
		{"nonce", errors.New("nonce too low"), KindNonceConflict},
		{"reverted", errors.New("execution reverted"), KindExecutionReverted},
		{"timeout", errors.New("context deadline exceeded"), KindTimeout},
		{"oracle", errors.New("no valid median for rate feed"), KindOracleUnavailable},
		{"underpriced", errors.New("transaction underpriced"), KindUnderpriced},
		{"always failing", errors.New("gas required exceeds allowance or always failing transaction"), KindAlwaysFailing},
		{"bridge", errors.New("swap from network 42220 to 8453 requires bridging"), KindBridgeRequired},
		{"unknown", errors.New("something inexplicable"), KindUnknown},
	}

	ctx := Context{Action: "swap", Network: mustProfile(t, 42220)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.err, ctx)
			if result.Kind != tt.want {
				t.Errorf("kind = %s, want %s", result.Kind, tt.want)
			}
			if result.Message == "" {
				t.Error("message is empty")
			}
			if result.Message == tt.err.Error() {
				t.Error("raw error text passed through verbatim")
			}
		})
	}
}

// Raw messages frequently carry several matching substrings; the higher
// priority rule must win.
func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"rejection beats revert", errors.New("user rejected: execution reverted"), KindUserRejected},
		{"gas beats revert", errors.New("execution reverted: insufficient funds for gas"), KindInsufficientGas},
		{"balance beats revert", errors.New("execution reverted: transfer amount exceeds balance"), KindInsufficientBalance},
		{"revert beats oracle", errors.New("execution reverted: no valid median"), KindExecutionReverted},
	}

	ctx := Context{Network: mustProfile(t, 42220)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err, ctx).Kind; got != tt.want {
				t.Errorf("kind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifySentinels(t *testing.T) {
	ctx := Context{Network: mustProfile(t, 42220)}

	wrapped := fmt.Errorf("discovering route: %w", routes.ErrNoRoute)
	if got := Classify(wrapped, ctx).Kind; got != KindRouteNotFound {
		t.Errorf("ErrNoRoute kind = %s, want %s", got, KindRouteNotFound)
	}

	wrapped = fmt.Errorf("pricing: %w", quotes.ErrInvalidSlippage)
	if got := Classify(wrapped, ctx).Kind; got != KindInvalidRequest {
		t.Errorf("ErrInvalidSlippage kind = %s, want %s", got, KindInvalidRequest)
	}

	wrapped = fmt.Errorf("resolving: %w", networks.ErrUnknownNetwork)
	if got := Classify(wrapped, ctx).Kind; got != KindInvalidRequest {
		t.Errorf("ErrUnknownNetwork kind = %s, want %s", got, KindInvalidRequest)
	}
}

func TestRouteNotFoundRecoverability(t *testing.T) {
	err := fmt.Errorf("finding path: %w", routes.ErrNoRoute)

	testnet := Classify(err, Context{Network: mustProfile(t, 44787)})
	if !testnet.IsTestnetRecoverable {
		t.Error("route miss on alfajores should be testnet-recoverable")
	}

	prod := Classify(err, Context{Network: mustProfile(t, 42220)})
	if prod.IsTestnetRecoverable {
		t.Error("route miss on celo must not be testnet-recoverable")
	}
	if prod.Kind != KindRouteNotFound {
		t.Errorf("kind = %s, want %s", prod.Kind, KindRouteNotFound)
	}
}

func TestClassifyOtherKindsNeverRecoverable(t *testing.T) {
	ctx := Context{Network: mustProfile(t, 44787)}
	for _, err := range []error{
		errors.New("execution reverted"),
		errors.New("context deadline exceeded"),
		errors.New("nonce too low"),
		errors.New("mystery"),
	} {
		if result := Classify(err, ctx); result.IsTestnetRecoverable {
			t.Errorf("%q classified as recoverable (%s)", err, result.Kind)
		}
	}
}

func TestClassifyNilError(t *testing.T) {
	result := Classify(nil, Context{Action: "swap"})
	if result.Kind != KindUnknown {
		t.Errorf("kind = %s, want %s", result.Kind, KindUnknown)
	}
}
