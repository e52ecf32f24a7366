package solana

import (
	"regexp"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// addressPattern matches base58 strings of plausible Solana address length.
var addressPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// ValidateAddress reports whether s is a well-formed Solana address:
// base58 text decoding to exactly 32 bytes. Off-curve keys are accepted,
// since system-owned accounts (PDAs, some wallets) are not curve points.
func ValidateAddress(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// IsOnCurve reports whether a valid address is an ed25519 curve point.
// Informational only: wallets show this to distinguish keypair accounts
// from derived ones, and so do we.
func IsOnCurve(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}

// ExtractAddress scans free-form text for the first valid Solana address.
// Returns "" when none is found.
func ExtractAddress(text string) string {
	for _, match := range addressPattern.FindAllString(text, -1) {
		if ValidateAddress(match) {
			return match
		}
	}
	return ""
}
