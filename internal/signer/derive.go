package signer

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stellar/go/tools/stellar-hd-wallet/crypto/derivation"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

const (
	rootAccount    = "//root"
	devAccountInfo = "fula/dev-account/v1/"

	// SEP-0005 account path
	accountPathFormat = "m/44'/148'/%d'"
)

// fromMnemonic derives the SEP-0005 account at index from a BIP-39 mnemonic.
func fromMnemonic(mnemonic string, index uint32) (*keypair.Full, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	key, err := derivation.DeriveForPath(fmt.Sprintf(accountPathFormat, index), seed)
	if err != nil {
		return nil, fmt.Errorf("derive account %d: %w", index, err)
	}
	return keypair.FromRawSeed(key.RawSeed())
}

// fromDevAccount resolves //root and //root/<n>. The root account is the
// network root; numbered accounts are derived from its seed with HKDF so every
// node running the same passphrase agrees on them.
func fromDevAccount(spec, passphrase string) (*keypair.Full, error) {
	rootSeed := network.ID(passphrase)
	if spec == rootAccount {
		return keypair.FromRawSeed(rootSeed)
	}

	suffix := strings.TrimPrefix(spec, rootAccount+"/")
	n, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil || n == 0 {
		return nil, fmt.Errorf("invalid dev account index")
	}

	reader := hkdf.New(sha256.New, rootSeed[:], nil, []byte(devAccountInfo+suffix))
	var raw [32]byte
	if _, err := io.ReadFull(reader, raw[:]); err != nil {
		return nil, err
	}
	return keypair.FromRawSeed(raw)
}
