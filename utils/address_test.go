package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	// EIP-55 reference vectors.
	valid := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
		// All one case carries no checksum.
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
	}
	for _, addr := range valid {
		require.True(t, IsValidAddress(addr), addr)
	}

	invalid := []string{
		"",
		"0x",
		"5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",       // missing prefix
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAe",      // too short
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00",   // too long
		"0xZZZeb6053F3E94C9b9A09f33669435E7Ef1BeAed",     // not hex
		"0x5Aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed",     // checksum broken
	}
	for _, addr := range invalid {
		require.False(t, IsValidAddress(addr), addr)
	}
}

func TestChecksumAddress(t *testing.T) {
	require.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		ChecksumAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"))
	require.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		ChecksumAddress("0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"))
}
