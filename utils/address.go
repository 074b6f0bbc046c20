package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// IsValidAddress reports whether address is a well formed 20-byte hex address
// with a valid EIP-55 checksum. Addresses written entirely in one case carry
// no checksum information and are accepted; mixed-case addresses must match
// the checksum exactly. Pure function, no network call.
func IsValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}

	body := address[2:]
	if len(body) != 40 {
		return false
	}
	if _, err := hex.DecodeString(body); err != nil {
		return false
	}

	lower := strings.ToLower(body)
	if body == lower || body == strings.ToUpper(body) {
		return true
	}

	return body == checksumBody(lower)
}

// ChecksumAddress returns the EIP-55 mixed-case form of a well formed
// address. The input must already pass IsValidAddress.
func ChecksumAddress(address string) string {
	return "0x" + checksumBody(strings.ToLower(address[2:]))
}

// checksumBody applies the EIP-55 rule: a hex letter is uppercased when the
// corresponding nibble of keccak256(lowercase body) is >= 8.
func checksumBody(lower string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	sum := hash.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}

		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}

		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}

	return string(out)
}
