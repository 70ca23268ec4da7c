package engine

import "hash/fnv"

// Bucket maps a (flagKey, ruleID, identityKey) triple onto a stable
// [0, 100) slot using FNV-1a 32-bit over the UTF-8 bytes of
// "{flagKey}:{ruleID}:{identityKey}".
//
// The hash function and byte layout are a wire-level contract: SDKs in
// other languages evaluating the same rollout must reproduce them exactly.
// Changing either reshuffles every live rollout.
func Bucket(flagKey, ruleID, identityKey string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(flagKey))
	h.Write([]byte{':'})
	h.Write([]byte(ruleID))
	h.Write([]byte{':'})
	h.Write([]byte(identityKey))
	return h.Sum32() % 100
}

// InRollout reports whether the identity falls inside the rollout
// percentage. A missing identity key fails closed: the rollout is never
// satisfied unless the percentage is 100.
func InRollout(flagKey, ruleID, identityKey string, percentage int) bool {
	if percentage >= 100 {
		return true
	}
	if percentage <= 0 {
		return false
	}
	if identityKey == "" {
		return false
	}
	return Bucket(flagKey, ruleID, identityKey) < uint32(percentage)
}
