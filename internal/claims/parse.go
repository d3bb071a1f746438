// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package claims persists claims as markdown and serves them through a Repository.
//
// A claim block starts at a "## C_<digits>: <text>" header and ends at a "---"
// line or end of input. Field lines use either "**Field:**" or "**Field**:".
// Claims are sharded into one file per category under the claims directory, or
// kept in a single legacy file when no claims directory exists.
package claims

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/claims-kb/pkg/types"
)

var (
	// claimHeaderPrefix marks a line that is meant to open a claim block.
	claimHeaderPrefix = regexp.MustCompile(`^##\s+C_`)

	// claimHeaderPattern matches a well-formed header: ## C_12: text.
	claimHeaderPattern = regexp.MustCompile(`^##\s+(C_\d+):\s*(.*)$`)

	// fieldPattern matches **Field:** value, **Field**: value and a bare **Field**.
	fieldPattern = regexp.MustCompile(`^\*\*([^*]+?):?\*\*:?\s*(.*)$`)

	// sourcePattern matches "Johnson2007 (Source ID: 2)".
	sourcePattern = regexp.MustCompile(`^(.+?)\s*\(Source ID:\s*(\d+)\)`)

	// quotePrefixPattern matches a leading "(Section 2.3):" on a supporting quote.
	quotePrefixPattern = regexp.MustCompile(`^\([^)]*\):\s*`)

	// quoteLabelPattern matches a "(p. 12):" label trailing a quote heading.
	quoteLabelPattern = regexp.MustCompile(`^\([^)]*\)\s*:?\s*`)
)

// ParseWarning describes a block that was skipped while parsing.
type ParseWarning struct {
	Line    int
	Message string
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s", w.Line, w.Message)
}

type quoteMode int

const (
	modeNone quoteMode = iota
	modePrimary
	modeSupporting
)

// blockParser accumulates the lines of one claim block.
type blockParser struct {
	claim      types.Claim
	mode       quoteMode
	primary    []string
	supporting []string
}

// Parse extracts claims from markdown content. Malformed headers do not abort
// parsing: the offending block is skipped and reported as a warning.
func Parse(content string) ([]types.Claim, []ParseWarning) {
	var (
		claims   []types.Claim
		warnings []ParseWarning
		cur      *blockParser
	)

	flush := func() {
		if cur != nil {
			claims = append(claims, cur.finish())
			cur = nil
		}
	}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if claimHeaderPrefix.MatchString(trimmed) {
			flush()
			m := claimHeaderPattern.FindStringSubmatch(trimmed)
			if m == nil {
				warnings = append(warnings, ParseWarning{
					Line:    i + 1,
					Message: fmt.Sprintf("malformed claim header %q", trimmed),
				})
				continue
			}
			cur = &blockParser{claim: types.Claim{ID: m[1], Text: strings.TrimSpace(m[2])}}
			continue
		}

		if trimmed == "---" || strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "## ") {
			flush()
			continue
		}

		if cur != nil {
			cur.feed(trimmed)
		}
	}
	flush()

	return claims, warnings
}

func (b *blockParser) feed(line string) {
	if m := fieldPattern.FindStringSubmatch(line); m != nil {
		b.field(strings.ToLower(strings.TrimSpace(m[1])), strings.TrimSpace(m[2]))
		return
	}

	switch b.mode {
	case modePrimary:
		if strings.HasPrefix(line, ">") {
			if part := strings.TrimSpace(strings.TrimPrefix(line, ">")); part != "" {
				b.primary = append(b.primary, part)
			}
		}
	case modeSupporting:
		switch {
		case line == "-" || strings.HasPrefix(line, "- "):
			b.supporting = append(b.supporting, strings.TrimSpace(strings.TrimPrefix(line, "-")))
		case line != "" && len(b.supporting) > 0:
			last := len(b.supporting) - 1
			b.supporting[last] = strings.TrimSpace(b.supporting[last] + " " + line)
		}
	}
}

func (b *blockParser) field(name, value string) {
	b.mode = modeNone
	switch name {
	case "category":
		b.claim.Category = normalizeCategory(value)
	case "source":
		if m := sourcePattern.FindStringSubmatch(value); m != nil {
			b.claim.Source = strings.TrimSpace(m[1])
			b.claim.SourceID, _ = strconv.Atoi(m[2])
		}
	case "context":
		b.claim.Context = value
	case "sections":
		b.claim.Sections = splitList(value)
	case "verified":
		b.claim.Verified = parseBool(value)
	case "primary quote":
		b.mode = modePrimary
		value = quoteLabelPattern.ReplaceAllString(value, "")
		if part := strings.TrimSpace(strings.TrimPrefix(value, ">")); part != "" {
			b.primary = append(b.primary, part)
		}
	case "supporting quotes":
		b.mode = modeSupporting
	}
}

func (b *blockParser) finish() types.Claim {
	c := b.claim
	if len(b.primary) > 0 {
		c.PrimaryQuote = types.Quote{
			Text:   stripQuotes(strings.TrimSpace(strings.Join(b.primary, " "))),
			Source: c.Source,
		}
	}
	for _, raw := range b.supporting {
		text := stripQuotes(strings.TrimSpace(quotePrefixPattern.ReplaceAllString(raw, "")))
		if text == "" {
			continue
		}
		c.SupportingQuotes = append(c.SupportingQuotes, types.Quote{Text: text, Source: c.Source})
	}
	return c
}

// normalizeCategory maps a case-insensitive match of a known category to its
// canonical spelling. Unknown values are kept verbatim.
func normalizeCategory(value string) types.Category {
	for _, k := range types.KnownCategories {
		if strings.EqualFold(value, string(k)) {
			return k
		}
	}
	if strings.EqualFold(value, string(types.CategoryUncategorized)) {
		return types.CategoryUncategorized
	}
	return types.Category(value)
}

// stripQuotes removes a single pair of surrounding straight or curly double quotes.
func stripQuotes(s string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "✓":
		return true
	}
	return false
}

// claimNumber returns the numeric suffix of a C_NN id.
func claimNumber(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "C_")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
