// Package wallet provides a local-key Capability implementation: BIP-39
// mnemonic derivation plus an ethclient-backed signer that prices, signs,
// submits and tracks transactions.
package wallet

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// derivationPath is the standard EVM account path m/44'/60'/0'/0 ahead of
// the account index.
var derivationPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild + 0,
	0,
}

// DeriveKey derives the ECDSA key at m/44'/60'/0'/0/{index} from a mnemonic.
func DeriveKey(mnemonic string, index uint32) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("creating master key: %w", err)
	}

	for _, segment := range append(append([]uint32{}, derivationPath...), index) {
		key, err = key.NewChildKey(segment)
		if err != nil {
			return nil, fmt.Errorf("deriving path segment %d: %w", segment, err)
		}
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, fmt.Errorf("converting to ECDSA: %w", err)
	}
	return privateKey, nil
}

// DeriveAddress derives the address at the given account index.
func DeriveAddress(mnemonic string, index uint32) (common.Address, error) {
	key, err := DeriveKey(mnemonic, index)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
