package crypto

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrKeyExists = errors.New("key file already exists")

// Key is a secp256k1 account key kept as a hex file on disk.
type Key struct {
	privateKey *ecdsa.PrivateKey
}

func GenerateKey() (*Key, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Key{privateKey: pk}, nil
}

// HexToKey parses a raw hex private key, with or without a 0x prefix.
func HexToKey(hexkey string) (*Key, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(hexkey, "0x"))
	if err != nil {
		return nil, err
	}
	return &Key{privateKey: pk}, nil
}

func LoadKey(keyFilePath string) (*Key, error) {
	pk, err := crypto.LoadECDSA(keyFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading account key from %v: %w", keyFilePath, err)
	}
	return &Key{privateKey: pk}, nil
}

// LoadOrGenKey reads the key at keyFilePath, creating it first if it does not exist.
func LoadOrGenKey(keyFilePath string) (k *Key, err error) {
	if cmtos.FileExists(keyFilePath) {
		return LoadKey(keyFilePath)
	}
	k, err = GenerateKey()
	if err != nil {
		return nil, err
	}
	err = k.Save(keyFilePath, false)
	return
}

func (k *Key) Save(keyFilePath string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(keyFilePath); err == nil {
			return ErrKeyExists
		}
	}
	return crypto.SaveECDSA(keyFilePath, k.privateKey)
}

// PublicKey returns the uncompressed 65 byte public key.
func (k *Key) PublicKey() []byte {
	return crypto.FromECDSAPub(&k.privateKey.PublicKey)
}

func (k *Key) Address() common.Address {
	return crypto.PubkeyToAddress(k.privateKey.PublicKey)
}

func (k *Key) Hex() string {
	return common.Bytes2Hex(crypto.FromECDSA(k.privateKey))
}

// Sign signs a 32 byte digest. The signature is in [R || S || V] form with V in {0, 1}.
func (k *Key) Sign(digest []byte) ([]byte, error) {
	return crypto.Sign(digest, k.privateKey)
}
