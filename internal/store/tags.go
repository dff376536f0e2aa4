package store

import "strings"

// Tags are stored as a single comma-joined string for compatibility with the
// original schema. SplitTags and JoinTags are the only parse/serialize pair;
// nothing else in the codebase splits the stored value inline.

// SplitTags materializes a stored tags value as a list: split on commas,
// trim whitespace, drop blanks, dedupe preserving insertion order.
func SplitTags(stored string) []string {
	if stored == "" {
		return nil
	}
	seen := make(map[string]bool)
	var tags []string
	for _, t := range strings.Split(stored, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// JoinTags serializes a tag list to the canonical stored form. Because
// normalization happens on write, JoinTags(SplitTags(stored)) == stored for
// every value the store persists.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// NormalizeTags canonicalizes a raw comma-joined input from a client.
func NormalizeTags(raw string) string {
	return JoinTags(SplitTags(raw))
}
