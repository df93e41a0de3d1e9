// pkg/utils/hash.go - utility functions for hashing and verifying installers.

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/windowsadmins/appbundle/pkg/logging"
)

// FileSHA256 returns the SHA256 sum of a file as lowercase hex.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NormalizeDigest strips an algorithm tag ("sha256:"), surrounding
// whitespace and case so digests from different sources compare equal.
func NormalizeDigest(digest string) string {
	digest = strings.TrimSpace(digest)
	if i := strings.IndexByte(digest, ':'); i >= 0 && isAlgorithmName(digest[:i]) {
		digest = digest[i+1:]
	}
	return strings.ToLower(strings.TrimSpace(digest))
}

func isAlgorithmName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

// Verify checks if a file's SHA256 matches the expected digest.
// An empty expected digest always verifies; whether that is acceptable is
// the caller's policy decision. Read failures never verify.
func Verify(path string, expectedDigest string) bool {
	expected := NormalizeDigest(expectedDigest)
	if expected == "" {
		return true
	}

	actual, err := FileSHA256(path)
	if err != nil {
		logging.Error("Failed to calculate SHA256 hash", "path", path, "error", err)
		return false
	}

	if actual != expected {
		logging.Warn("SHA256 mismatch", "path", path, "expected", expected, "actual", actual)
		return false
	}
	logging.Debug("SHA256 verified", "path", path, "hash", actual)
	return true
}
