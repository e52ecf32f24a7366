package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRewardID computes a deterministic reward record id using SHA256.
// Formula: SHA256(producer|source_id)
// One discovering item yields exactly one record id, which backs the
// idempotency guarantee of the reward workflow.
func ComputeRewardID(producer, sourceID string) string {
	data := fmt.Sprintf("%s|%s", producer, sourceID)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
