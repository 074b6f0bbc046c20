package utils

import (
	"crypto/ecdsa"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// PrivateKeyFromHex parses a hex encoded secp256k1 private key. A leading
// "0x" is accepted.
func PrivateKeyFromHex(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return crypto.HexToECDSA(s)
}

// PublicKeyBytesToAddress derives the address from an uncompressed public key
// (leading 0x04 byte included).
func PublicKeyBytesToAddress(publicKey []byte) common.Address {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(publicKey[1:]) // remove EC prefix 04
	buf := hash.Sum(nil)

	return common.HexToAddress(hex.EncodeToString(buf[12:]))
}
