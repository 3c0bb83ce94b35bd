package idempotency

import (
	"net/http"
	"sort"

	"golang.org/x/net/http/httpguts"
)

// ValidHeaderPair reports whether a header can be stored and replayed unchanged.
func ValidHeaderPair(p HeaderPair) bool {
	return httpguts.ValidHeaderFieldName(p.Name) && httpguts.ValidHeaderFieldValue(string(p.Value))
}

// SplitHeaderPairs separates pairs that can be round-tripped from those that cannot.
func SplitHeaderPairs(pairs []HeaderPair) (valid, dropped []HeaderPair) {
	valid = make([]HeaderPair, 0, len(pairs))
	for _, p := range pairs {
		if ValidHeaderPair(p) {
			valid = append(valid, p)
			continue
		}
		dropped = append(dropped, p)
	}
	return valid, dropped
}

// PairsFromHeader flattens an http.Header into ordered pairs. Names are sorted so
// the result is deterministic; values keep their per-name order.
func PairsFromHeader(h http.Header) []HeaderPair {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []HeaderPair
	for _, name := range names {
		for _, v := range h[name] {
			pairs = append(pairs, HeaderPair{Name: name, Value: []byte(v)})
		}
	}
	return pairs
}
