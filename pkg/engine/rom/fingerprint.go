package rom

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// FingerprintAlgorithm names a hash used for image fingerprints.
type FingerprintAlgorithm int

const (
	FingerprintBlake3 FingerprintAlgorithm = iota
	FingerprintSHA256
)

func (a FingerprintAlgorithm) String() string {
	switch a {
	case FingerprintBlake3:
		return "blake3"
	case FingerprintSHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// ParseFingerprint splits "algo:hex". A bare 64-digit value is taken as
// blake3.
func ParseFingerprint(s string) (FingerprintAlgorithm, string, error) {
	algo, value, found := strings.Cut(s, ":")
	if !found {
		if len(s) != 64 {
			return 0, "", fmt.Errorf("invalid fingerprint %q", s)
		}
		return FingerprintBlake3, strings.ToLower(s), nil
	}
	switch algo {
	case "blake3":
		return FingerprintBlake3, strings.ToLower(value), nil
	case "sha256":
		return FingerprintSHA256, strings.ToLower(value), nil
	default:
		return 0, "", fmt.Errorf("unknown fingerprint algorithm: %s", algo)
	}
}

// CalculateFingerprint hashes data and returns "algo:hex".
func CalculateFingerprint(data []byte, algo FingerprintAlgorithm) string {
	switch algo {
	case FingerprintSHA256:
		sum := sha256.Sum256(data)
		return "sha256:" + hex.EncodeToString(sum[:])
	default:
		sum := blake3.Sum256(data)
		return "blake3:" + hex.EncodeToString(sum[:])
	}
}

// VerifyFingerprint checks data against a fingerprint string.
func VerifyFingerprint(data []byte, fingerprint string) (bool, error) {
	algo, want, err := ParseFingerprint(fingerprint)
	if err != nil {
		return false, err
	}
	_, got, _ := strings.Cut(CalculateFingerprint(data, algo), ":")
	return got == want, nil
}
