package internal

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Common media types used in negotiation.
const (
	MIMEHTML = "text/html"
	MIMEJSON = "application/json"
	MIMEText = "text/plain"
	MIMEAny  = "*/*"
)

// AcceptEntry is one media range of an Accept header.
type AcceptEntry struct {
	Type    string
	Quality float64
}

// ParseAccept splits an Accept header into media ranges ordered by quality,
// highest first. Ranges of equal quality keep their header order.
// An empty header accepts anything.
func ParseAccept(header string) []AcceptEntry {
	header = strings.ReplaceAll(header, " ", "")
	if header == "" {
		return []AcceptEntry{{Type: MIMEAny, Quality: 1}}
	}

	entries := make([]AcceptEntry, 0, strings.Count(header, ",")+1)
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(header, ",") {
		mediaType, params, _ := strings.Cut(part, ";")
		mediaType = strings.ToLower(mediaType)
		if mediaType == "" {
			continue
		}
		if _, dup := seen[mediaType]; dup {
			continue
		}
		seen[mediaType] = struct{}{}
		entries = append(entries, AcceptEntry{Type: mediaType, Quality: quality(params)})
	}

	slices.SortStableFunc(entries, func(a, b AcceptEntry) int {
		return cmp.Compare(b.Quality, a.Quality)
	})
	return entries
}

func quality(params string) float64 {
	for param := range strings.SplitSeq(params, ";") {
		k, v, ok := strings.Cut(param, "=")
		if !ok || k != "q" {
			continue
		}
		q, err := strconv.ParseFloat(v, 64)
		if err != nil || q < 0 || q > 1 {
			return 1
		}
		return q
	}
	return 1
}

// acceptsType reports whether entries admit mediaType through an exact
// match, a full wildcard or a subtype wildcard. Ranges with q=0 refuse.
func acceptsType(entries []AcceptEntry, mediaType string) bool {
	mediaType = strings.ToLower(mediaType)
	major, _, _ := strings.Cut(mediaType, "/")
	for _, e := range entries {
		if e.Quality <= 0 {
			continue
		}
		if e.Type == mediaType || e.Type == MIMEAny || e.Type == major+"/*" {
			return true
		}
	}
	return false
}
