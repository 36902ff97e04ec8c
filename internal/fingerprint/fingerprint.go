// Package fingerprint computes exact and perceptual image fingerprints.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // G505: SHA-1 is used for content identity, not security
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"

	"github.com/corona10/goimagehash"
)

// ChunkSize is the read buffer used when streaming file contents into the digest.
const ChunkSize = 1 << 20

// HashLen is the length in hex characters of a rendered perceptual hash.
const HashLen = 16

// ErrEmptyHash is returned when comparing a missing perceptual hash.
var ErrEmptyHash = errors.New("empty perceptual hash")

// Digest returns the hex SHA-1 of the file contents.
func Digest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: dataset paths are operator supplied
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha1.New() //nolint:gosec // see import
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PerceptualHash returns the 64-bit DCT perceptual hash of img rendered as
// 16 lowercase hex digits.
func PerceptualHash(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("nil image")
	}
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("perception hash: %w", err)
	}
	return Format(h.GetHash()), nil
}

// Format renders a raw 64-bit hash the way PerceptualHash does.
func Format(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

// Parse converts a rendered perceptual hash back into its bits.
func Parse(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmptyHash
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", s, err)
	}
	return v, nil
}

// Distance returns the Hamming distance between two rendered hashes.
func Distance(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	ha := goimagehash.NewImageHash(va, goimagehash.PHash)
	hb := goimagehash.NewImageHash(vb, goimagehash.PHash)
	return ha.Distance(hb)
}

// Prefix returns the first n hex characters of hash, or the whole hash when
// it is shorter. A non-positive n yields the empty prefix, which puts every
// hash into one bucket.
func Prefix(hash string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}
