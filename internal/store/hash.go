package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash returns the hex SHA-256 of a file's content. Unchanged files
// are skipped when their stored hash matches.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// FingerprintHash hashes a set of named parts deterministically. The engine
// uses it to detect a changed rule set or configuration between runs.
func FingerprintHash(parts map[string]string) string {
	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s:%d:%s\n", k, len(parts[k]), parts[k])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
