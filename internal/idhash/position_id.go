// Package idhash derives deterministic identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePositionID computes a deterministic position_id using SHA256.
// Formula: SHA256(address|buy_signature|opened_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(
	address string,
	buySignature string,
	openedAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%d",
		address,
		buySignature,
		openedAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
