package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/thisyearnofear/swaprunner/chain"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "wallet").Logger()
}

// receiptPollInterval paces the confirmation wait loop. Block times on the
// supported networks range from 1s (test networks) to ~5s.
const receiptPollInterval = 2 * time.Second

// Signer is a chain.Capability backed by a raw private key and an
// ethclient connection.
type Signer struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewSigner dials nothing itself; it wraps an already-connected client and
// caches the chain id.
func NewSigner(ctx context.Context, client *ethclient.Client, key *ecdsa.PrivateKey) (*Signer, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching chain id: %w", err)
	}
	return &Signer{
		client:  client,
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

func (s *Signer) NetworkID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.chainID), nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return s.client.CallContract(ctx, call, blockNumber)
}

// SignAndSend prices the intent (legacy gas price or EIP-1559 fees),
// estimates gas when no limit was given, signs and submits.
func (s *Signer) SignAndSend(ctx context.Context, intent chain.TxIntent) (common.Hash, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	gasLimit := intent.GasLimit
	if gasLimit == 0 {
		estimate, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
			From:  s.address,
			To:    &intent.To,
			Value: intent.Value,
			Data:  intent.Data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
		}
		// Headroom over the estimate; reverts inside the pool math can
		// consume more than the static estimate saw.
		gasLimit = estimate * 120 / 100
	}

	var tx *types.Transaction
	if intent.LegacyPricing {
		gasPrice, err := s.client.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
		}
		tx = types.NewTransaction(nonce, intent.To, intent.Value, gasLimit, gasPrice, intent.Data)
	} else {
		tip, err := s.client.SuggestGasTipCap(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("getting tip cap: %w", err)
		}
		head, err := s.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return common.Hash{}, fmt.Errorf("getting head: %w", err)
		}
		feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &intent.To,
			Value:     intent.Value,
			Data:      intent.Data,
		})
	}

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("signing tx: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("sending tx: %w", err)
	}

	log.Debug().
		Str("hash", signedTx.Hash().Hex()).
		Uint64("nonce", nonce).
		Bool("legacy", intent.LegacyPricing).
		Msg("transaction sent")

	return signedTx.Hash(), nil
}

// AwaitConfirmations polls for the receipt and then for the head to move
// the requested depth past the inclusion block. A submitted transaction
// cannot be recalled; cancelling the context abandons tracking, not the
// transaction.
func (s *Signer) AwaitConfirmations(ctx context.Context, hash common.Hash, confirmations uint64) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	var receipt *types.Receipt
	for receipt == nil {
		r, err := s.client.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			receipt = r
		case errors.Is(err, ethereum.NotFound):
			// not mined yet
		default:
			return nil, fmt.Errorf("fetching receipt for %s: %w", hash.Hex(), err)
		}

		if receipt != nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for transaction %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}

	if confirmations <= 1 {
		return receipt, nil
	}

	target := new(big.Int).Add(receipt.BlockNumber, big.NewInt(int64(confirmations-1)))
	for {
		head, err := s.client.BlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching head: %w", err)
		}
		if new(big.Int).SetUint64(head).Cmp(target) >= 0 {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for %d confirmations of %s: %w", confirmations, hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
