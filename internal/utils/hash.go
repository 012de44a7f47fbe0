package utils

import "hash/fnv"

// HashStringToUint64 gives a stable FNV-1a hash, used wherever deterministic
// pseudo-random selection by ID is needed.
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
