// Package prune bounds conversation transcripts by shrinking oversized tool
// results while protecting recent and binary content.
package prune

import "strings"

const (
	// minBase64Length is the shortest content that can be classified as a
	// base64 blob. Short tokens and ids must never match.
	minBase64Length = 500

	// base64SampleWindow bounds how many leading characters are inspected.
	base64SampleWindow = 1000

	// base64RatioThreshold is the minimum fraction of base64-alphabet
	// characters within the sample window.
	base64RatioThreshold = 0.95

	// base64MinDistinctChars guards against long single-character runs,
	// which have a perfect alphabet ratio but no diversity.
	base64MinDistinctChars = 16
)

// IsImageContent reports whether content looks like an image payload: a data
// URI, a known base64 image signature, or a long high-diversity base64 blob.
// Such content is exempt from pruning at any length.
func IsImageContent(content string) bool {
	if content == "" {
		return false
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "data:image") {
		return true
	}
	// PNG and JPEG base64 signatures.
	if strings.HasPrefix(trimmed, "iVBOR") || strings.HasPrefix(trimmed, "/9j/") {
		return true
	}

	return looksLikeBase64(trimmed)
}

func looksLikeBase64(s string) bool {
	runes := []rune(s)
	if len(runes) < minBase64Length {
		return false
	}

	window := runes
	if len(window) > base64SampleWindow {
		window = window[:base64SampleWindow]
	}

	distinct := make(map[rune]struct{}, 64)
	matched := 0
	for _, r := range window {
		if isBase64Char(r) {
			matched++
		}
		distinct[r] = struct{}{}
	}

	ratio := float64(matched) / float64(len(window))
	return ratio >= base64RatioThreshold && len(distinct) >= base64MinDistinctChars
}

func isBase64Char(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '+' || r == '/' || r == '=' || r == '-' || r == '_':
		return true
	}
	return false
}
