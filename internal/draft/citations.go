// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// citationPattern matches inline citations: [Key] or [Key1; Key2].
var citationPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)

// ExtractCitationKeys finds all citation keys in text. It handles both single
// citations [Key] and multi-citations [Key1; Key2].
func ExtractCitationKeys(text string) []string {
	matches := citationPattern.FindAllStringSubmatch(text, -1)
	var keys []string
	for _, m := range matches {
		// Split on semicolons for multi-citations.
		for _, p := range strings.Split(m[1], ";") {
			key := strings.TrimSpace(p)
			if key != "" && isCitationKey(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// isCitationKey checks whether a string looks like a citation key (AuthorYear
// format). It rejects strings that look like Markdown links, image references,
// or other bracket content.
func isCitationKey(s string) bool {
	// Citation keys are alphanumeric, possibly with hyphens.
	// They must contain at least one letter and one digit.
	hasLetter := false
	hasDigit := false
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case c == '-', c == '_':
			// allowed
		default:
			return false
		}
	}
	return hasLetter && hasDigit
}

// sectionKeys returns the distinct citation keys in a section's title and
// content, in order of first appearance.
func sectionKeys(s types.OutlineSection) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, line := range append([]string{s.Title}, s.Content...) {
		for _, k := range ExtractCitationKeys(line) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// ValidateCitations returns the citation keys used anywhere in sections that
// no claim carries as its source, sorted. Source keys compare
// case-insensitively.
func ValidateCitations(sections []types.OutlineSection, claims []types.Claim) []string {
	known := make(map[string]bool)
	for _, c := range claims {
		if c.Source != "" {
			known[strings.ToLower(c.Source)] = true
		}
	}

	seen := make(map[string]bool)
	for _, s := range sections {
		for _, key := range sectionKeys(s) {
			if !known[strings.ToLower(key)] {
				seen[key] = true
			}
		}
	}

	var missing []string
	for key := range seen {
		missing = append(missing, key)
	}
	sort.Strings(missing)
	return missing
}

// SectionCitations returns the claims whose source is cited in section, in
// claim order.
func SectionCitations(section types.OutlineSection, claims []types.Claim) []types.Claim {
	cited := make(map[string]bool)
	for _, k := range sectionKeys(section) {
		cited[strings.ToLower(k)] = true
	}
	var out []types.Claim
	for _, c := range claims {
		if cited[strings.ToLower(c.Source)] {
			out = append(out, c)
		}
	}
	return out
}
