package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const fingerprintLength = 12

// Fingerprint derives a stable participant identifier from request headers.
func Fingerprint(h http.Header) string {
	data := strings.Join([]string{
		h.Get("User-Agent"),
		h.Get("Accept"),
		h.Get("Accept-Encoding"),
		h.Get("Accept-Language"),
	}, "-")
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
