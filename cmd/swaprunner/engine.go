package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/thisyearnofear/swaprunner/broker"
	"github.com/thisyearnofear/swaprunner/config"
	"github.com/thisyearnofear/swaprunner/networks"
	"github.com/thisyearnofear/swaprunner/routes"
	"github.com/thisyearnofear/swaprunner/rpclog"
	"github.com/thisyearnofear/swaprunner/wallet"
)

// engine bundles everything a command needs against one network.
type engine struct {
	cfg     *config.Config
	netCfg  config.NetworkConfig
	netName string
	profile networks.Profile
	client  *ethclient.Client
	signer  *wallet.Signer
	reader  *broker.Reader
	policy  routes.Policy
}

func newEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	netCfg, netName, err := cfg.Network(networkFlag)
	if err != nil {
		return nil, err
	}

	profile, err := networks.ByName(netName)
	if err != nil {
		return nil, err
	}

	var rpcClient *rpc.Client
	if verboseFlag {
		rpcClient, err = rpc.DialOptions(ctx, netCfg.RPCURL, rpc.WithHTTPClient(rpclog.NewHTTPClient(consoleLogger())))
	} else {
		rpcClient, err = rpc.DialContext(ctx, netCfg.RPCURL)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to %s RPC: %w", netName, err)
	}
	client := ethclient.NewClient(rpcClient)

	key, err := wallet.DeriveKey(cfg.Mnemonic, cfg.AccountIndex)
	if err != nil {
		return nil, err
	}
	signer, err := wallet.NewSigner(ctx, client, key)
	if err != nil {
		return nil, err
	}

	reader := broker.NewReader(common.HexToAddress(netCfg.BrokerAddress), client)

	policy := routes.DefaultPolicy()
	if len(netCfg.RoutingAssets) > 0 {
		assets := make([]common.Address, 0, len(netCfg.RoutingAssets))
		for _, a := range netCfg.RoutingAssets {
			assets = append(assets, common.HexToAddress(a))
		}
		policy.RoutingAssets[profile.NetworkID] = assets
	}

	return &engine{
		cfg:     cfg,
		netCfg:  netCfg,
		netName: netName,
		profile: profile,
		client:  client,
		signer:  signer,
		reader:  reader,
		policy:  policy,
	}, nil
}

func (e *engine) Close() {
	e.client.Close()
}

// resolveTokens maps the two symbol arguments to addresses.
func (e *engine) resolveTokens(fromSym, toSym string) (common.Address, common.Address, error) {
	from, err := e.netCfg.ResolveToken(fromSym)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	to, err := e.netCfg.ResolveToken(toSym)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return common.HexToAddress(from), common.HexToAddress(to), nil
}
