package utils

import (
	"net/url"
	"path"
	"strings"
)

// NormalizeImageName derives a stable comparison key from an image URL.
// Only the final path segment matters; query strings and host are noise.
// Percent-encoding is decoded exactly once and literal spaces become
// "_20", matching the encoding Shopify applies to uploaded filenames,
// so keys produced from differently-encoded URLs still compare equal.
// A double-encoded segment keeps its inner encoding; distinct assets
// must not collapse onto one key.
//
// The function is total: malformed input yields a key (possibly empty)
// that simply won't match anything.
func NormalizeImageName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	var p string
	if err != nil {
		// Fall back to treating the whole string as a path.
		p = rawURL
	} else {
		p = parsed.EscapedPath()
	}

	filename := path.Base(p)
	if filename == "." || filename == "/" {
		return ""
	}

	if decoded, err := url.PathUnescape(filename); err == nil {
		filename = decoded
	}

	return strings.ReplaceAll(filename, " ", "_20")
}
