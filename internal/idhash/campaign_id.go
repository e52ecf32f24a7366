package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"solana-promo-agent/internal/domain"
)

// ComputeCampaignID computes a deterministic campaign id using SHA256.
// Formula: SHA256(action|content|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeCampaignID(action domain.ActionKind, content string, createdAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", string(action), content, createdAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ContentFingerprint computes the duplicate-detection fingerprint of
// campaign content: SHA256 of the lower-cased, trimmed text. Deterministic
// given normalized content.
func ContentFingerprint(content string) string {
	normalized := strings.ToLower(strings.TrimSpace(content))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}
