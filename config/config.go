// Package config loads CLI configuration from a .swaprunner.yaml file,
// environment variables (SWAPRUNNER_ prefix) and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// NetworkConfig wires one network: where to reach it, the broker
// deployment to trade against, and the token symbols the CLI resolves.
type NetworkConfig struct {
	RPCURL        string            `mapstructure:"rpc_url"`
	BrokerAddress string            `mapstructure:"broker_address"`
	Tokens        map[string]string `mapstructure:"tokens"`
	RoutingAssets []string          `mapstructure:"routing_assets"`
}

type Config struct {
	// BIP-39 mnemonic for key derivation. Set via SWAPRUNNER_MNEMONIC;
	// keep it out of config files.
	Mnemonic     string `mapstructure:"mnemonic"`
	AccountIndex uint32 `mapstructure:"account_index"`

	// DefaultNetwork is the network name used when --network is absent.
	DefaultNetwork string `mapstructure:"default_network"`

	Networks map[string]NetworkConfig `mapstructure:"networks"`

	// SlippagePercent is the default tolerance, e.g. 0.5 for 0.5%.
	SlippagePercent float64 `mapstructure:"slippage_percent"`

	// DatabasePath is the swap history ledger; empty disables history.
	DatabasePath string `mapstructure:"database_path"`

	// SimulateOnTestnet records a simulated result when a test network
	// has no route for the pair, instead of a dead end.
	SimulateOnTestnet bool `mapstructure:"simulate_on_testnet"`
}

// Load reads configuration. A missing config file is fine as long as the
// environment supplies what validate() requires.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	viper.SetConfigName(".swaprunner")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("default_network", "celo")
	viper.SetDefault("slippage_percent", 0.5)
	viper.SetDefault("database_path", "swaprunner.db")
	setNetworkDefaults()

	viper.SetEnvPrefix("SWAPRUNNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// AutomaticEnv does not populate Unmarshal for unset keys on some
	// nested shapes; read the flat secrets explicitly.
	if cfg.Mnemonic == "" {
		cfg.Mnemonic = viper.GetString("mnemonic")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setNetworkDefaults() {
	viper.SetDefault("networks", map[string]any{
		"celo": map[string]any{
			"rpc_url":        "https://forno.celo.org",
			"broker_address": "0x777A8255cA72412f0d706dc03C9D1987306B4CaD",
			"tokens": map[string]string{
				"celo": "0x471EcE3750Da237f93B8E339c536989b8978a438",
				"usdm": "0x765DE816845861e75A25fCA122bb6898B8B1282a",
				"eurm": "0xD8763CBa276a3738E6DE85b4b3bF5FDed6D6cA73",
			},
			"routing_assets": []string{"0x765DE816845861e75A25fCA122bb6898B8B1282a"},
		},
		"alfajores": map[string]any{
			"rpc_url":        "https://alfajores-forno.celo-testnet.org",
			"broker_address": "0xD3Dff18E465bCa6241A244144765b4421Ac14D09",
			"tokens": map[string]string{
				"celo": "0xF194afDf50B03e69Bd7D057c1Aa9e10c9954E4C9",
				"usdm": "0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1",
				"eurm": "0x10c892A6EC43a53E45D0B916B4b7D383B1b78C0F",
			},
			"routing_assets": []string{"0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1"},
		},
	})
}

func (c *Config) validate() error {
	if c.Mnemonic == "" {
		return fmt.Errorf("mnemonic is required (set SWAPRUNNER_MNEMONIC)")
	}
	if len(c.Networks) == 0 {
		return fmt.Errorf("at least one network is required")
	}
	if _, ok := c.Networks[c.DefaultNetwork]; !ok {
		return fmt.Errorf("default_network %q is not configured", c.DefaultNetwork)
	}
	for name, net := range c.Networks {
		if net.RPCURL == "" {
			return fmt.Errorf("network %q: rpc_url is required", name)
		}
		if net.BrokerAddress == "" {
			return fmt.Errorf("network %q: broker_address is required", name)
		}
	}
	return nil
}

// Network returns the named network config, falling back to the default.
func (c *Config) Network(name string) (NetworkConfig, string, error) {
	if name == "" {
		name = c.DefaultNetwork
	}
	net, ok := c.Networks[name]
	if !ok {
		return NetworkConfig{}, name, fmt.Errorf("network %q is not configured", name)
	}
	return net, name, nil
}

// ResolveToken maps a case-insensitive symbol (or a raw 0x address) to an
// address string for the given network.
func (n NetworkConfig) ResolveToken(symbolOrAddress string) (string, error) {
	if strings.HasPrefix(symbolOrAddress, "0x") && len(symbolOrAddress) == 42 {
		return symbolOrAddress, nil
	}
	key := strings.ToLower(symbolOrAddress)
	if addr, ok := n.Tokens[key]; ok {
		return addr, nil
	}
	return "", fmt.Errorf("unknown token %q on this network", symbolOrAddress)
}
