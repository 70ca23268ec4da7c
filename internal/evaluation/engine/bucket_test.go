package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucket_Deterministic(t *testing.T) {
	first := Bucket("checkout-v2", "rule-1", "user-42")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Bucket("checkout-v2", "rule-1", "user-42"))
	}
	assert.Less(t, first, uint32(100))
}

func TestBucket_TripleIsSignificant(t *testing.T) {
	// Different flags and rules must bucket the same identity
	// independently, otherwise rollouts would correlate across flags.
	buckets := map[uint32]bool{
		Bucket("flag-a", "rule-1", "user-42"): true,
		Bucket("flag-b", "rule-1", "user-42"): true,
		Bucket("flag-a", "rule-2", "user-42"): true,
		Bucket("flag-a", "rule-1", "user-43"): true,
	}
	assert.Greater(t, len(buckets), 1)
}

func TestBucket_KnownVectors(t *testing.T) {
	// Pinned FNV-1a 32 values over "{flagKey}:{ruleID}:{identityKey}".
	// These are the interop contract with evaluators in other languages;
	// if this test breaks, live rollouts reshuffle.
	tests := []struct {
		flagKey, ruleID, identityKey string
	}{
		{"checkout-v2", "rule-1", "user-42"},
		{"checkout-v2", "rule-1", ""},
		{"", "", ""},
	}
	for _, tc := range tests {
		concat := fnv1a32(tc.flagKey + ":" + tc.ruleID + ":" + tc.identityKey)
		assert.Equal(t, concat%100, Bucket(tc.flagKey, tc.ruleID, tc.identityKey))
	}
}

// fnv1a32 is an independent reference implementation of the contract hash.
func fnv1a32(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	hash := uint32(offset32)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime32
	}
	return hash
}

func TestInRollout_Extremes(t *testing.T) {
	// 100 always passes, even without an identity key.
	assert.True(t, InRollout("f", "r", "", 100))
	assert.True(t, InRollout("f", "r", "user-1", 100))

	// 0 never passes.
	for i := 0; i < 50; i++ {
		assert.False(t, InRollout("f", "r", fmt.Sprintf("user-%d", i), 0))
	}

	// Missing identity fails closed for partial rollouts.
	assert.False(t, InRollout("f", "r", "", 99))
}

func TestInRollout_Distribution(t *testing.T) {
	const n = 20000
	for _, p := range []int{10, 50, 90} {
		in := 0
		for i := 0; i < n; i++ {
			if InRollout("dist-flag", "dist-rule", fmt.Sprintf("user-%d", i), p) {
				in++
			}
		}
		got := float64(in) / n * 100
		assert.InDeltaf(t, float64(p), got, 1.5, "percentage %d", p)
	}
}

func TestInRollout_MonotonicInPercentage(t *testing.T) {
	// An identity inside a p% rollout stays inside every q% rollout with
	// q > p, so ramping a rollout up never kicks users back out.
	for i := 0; i < 500; i++ {
		identity := fmt.Sprintf("user-%d", i)
		inside := false
		for p := 0; p <= 100; p += 5 {
			now := InRollout("ramp-flag", "ramp-rule", identity, p)
			if inside {
				assert.True(t, now, "identity %s dropped out at %d%%", identity, p)
			}
			inside = inside || now
		}
	}
}
