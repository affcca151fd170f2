package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// CorpusState maps every indexable document path to its last modification time.
type CorpusState map[string]time.Time

// CorpusDiff lists the paths that differ between two corpus states.
type CorpusDiff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// Equal reports whether both states hold the same paths with equal timestamps.
func (s CorpusState) Equal(other CorpusState) bool {
	if len(s) != len(other) {
		return false
	}
	for p, t := range s {
		o, ok := other[p]
		if !ok || !o.Equal(t) {
			return false
		}
	}
	return true
}

// Diff compares s against a previous state.
func (s CorpusState) Diff(prev CorpusState) CorpusDiff {
	var d CorpusDiff
	for p, t := range s {
		o, ok := prev[p]
		switch {
		case !ok:
			d.Added = append(d.Added, p)
		case !o.Equal(t):
			d.Modified = append(d.Modified, p)
		}
	}
	for p := range prev {
		if _, ok := s[p]; !ok {
			d.Removed = append(d.Removed, p)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Modified)
	return d
}

// Paths returns the document paths in lexical order.
func (s CorpusState) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Fingerprint is a stable digest of the state, independent of map order.
func (s CorpusState) Fingerprint() string {
	h := sha256.New()
	for _, p := range s.Paths() {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(s[p].UTC().Format(time.RFC3339Nano)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
