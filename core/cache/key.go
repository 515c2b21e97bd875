package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyLength is the number of hex characters kept from the digest. 128 bits
// keeps accidental collisions negligible at any realistic request volume.
const keyLength = 32

// Key derives a deterministic cache key from a namespace and an arbitrary
// input structure. The input is serialized with encoding/json, which emits
// map keys in sorted order, so semantically identical inputs produce
// identical keys regardless of construction order. Unserializable inputs
// (channels, funcs, cycles) return the marshal error.
func Key(namespace string, input any) (string, error) {
	serialized, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: serialize key input: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{':'})
	h.Write(serialized)

	return hex.EncodeToString(h.Sum(nil))[:keyLength], nil
}
