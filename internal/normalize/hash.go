package normalize

import (
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"strings"
)

// ContentHash computes the hex-encoded SHA-256 of data. Used as the
// message identifier for mail without a Message-ID header.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// FileMessageID derives a stable message identifier for a loose document.
// The base name is folded in so identical bytes under two names stay distinct.
func FileMessageID(path string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(filepath.Base(path))))
	h.Write([]byte{0})
	h.Write(data)
	return fmt.Sprintf("file-%x", h.Sum(nil)[:16])
}
