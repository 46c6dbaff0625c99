package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID returns a random v4 UUID string
func GenerateUUID() string {
	return uuid.New().String()
}

// ShortID returns the first 8 hex chars of a UUID, enough for log correlation
func ShortID() string {
	return uuid.New().String()[:8]
}

// NumericID extracts the trailing numeric part of a Shopify GID,
// e.g. "gid://shopify/Product/123" -> "123". Plain numeric input
// passes through unchanged.
func NumericID(gid string) string {
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		return gid[idx+1:]
	}
	return gid
}
