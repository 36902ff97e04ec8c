package fingerprint

import (
	"math/bits"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDistance_Properties checks the Hamming distance on rendered hashes.
func TestDistance_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("distance equals popcount of xor", prop.ForAll(
		func(a, b uint64) bool {
			d, err := Distance(Format(a), Format(b))
			return err == nil && d == bits.OnesCount64(a^b)
		},
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.Property("distance is symmetric", prop.ForAll(
		func(a, b uint64) bool {
			ab, err1 := Distance(Format(a), Format(b))
			ba, err2 := Distance(Format(b), Format(a))
			return err1 == nil && err2 == nil && ab == ba
		},
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.Property("a hash is at distance zero from itself", prop.ForAll(
		func(a uint64) bool {
			d, err := Distance(Format(a), Format(a))
			return err == nil && d == 0
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

// TestFormat_Properties checks rendering and bucketing of hashes.
func TestFormat_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("parse inverts format", prop.ForAll(
		func(a uint64) bool {
			v, err := Parse(Format(a))
			return err == nil && v == a && len(Format(a)) == HashLen
		},
		gen.UInt64(),
	))

	properties.Property("prefix is a leading substring of the hash", prop.ForAll(
		func(a uint64, n int) bool {
			h := Format(a)
			p := Prefix(h, n)
			want := min(max(n, 0), HashLen)
			return len(p) == want && h[:want] == p
		},
		gen.UInt64(),
		gen.IntRange(-2, 20),
	))

	properties.TestingRun(t)
}
