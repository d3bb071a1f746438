// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pdiddy/claims-kb/pkg/types"
)

const (
	// DefaultGapThreshold is the claim count below which a section is a gap.
	DefaultGapThreshold = 2

	minQueries        = 2
	maxQueries        = 5
	salientTerms      = 3
	minSalientTermLen = 4
)

var (
	questionPattern = regexp.MustCompile(`[^.!?]*\?`)
	acronymPattern  = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,}[a-z]?\b`)
	hyphenPattern   = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9]*(?:-[A-Za-z0-9]+)+\b`)
)

var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "against": true,
	"also": true, "among": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "could": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "from": true,
	"further": true, "have": true, "having": true, "here": true, "however": true,
	"into": true, "itself": true, "just": true, "more": true, "most": true,
	"much": true, "must": true, "only": true, "other": true, "over": true,
	"same": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "until": true, "very": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "will": true,
	"with": true, "within": true, "without": true, "would": true, "your": true,
	"section": true, "paper": true, "study": true, "studies": true, "using": true,
	"used": true, "show": true, "shows": true, "shown": true,
}

// CoverageLevelFor buckets a claim count: none for 0, low for 1-3, moderate
// for 4-6 and strong for 7 or more.
func CoverageLevelFor(count int) types.CoverageLevel {
	switch {
	case count <= 0:
		return types.CoverageNone
	case count <= 3:
		return types.CoverageLow
	case count <= 6:
		return types.CoverageModerate
	default:
		return types.CoverageStrong
	}
}

// CoverageAnalyzer measures claim support for manuscript sections.
type CoverageAnalyzer struct {
	now func() time.Time
}

// CoverageOption configures a CoverageAnalyzer.
type CoverageOption func(*CoverageAnalyzer)

// WithClock sets the clock used for LastUpdated.
func WithClock(now func() time.Time) CoverageOption {
	return func(a *CoverageAnalyzer) { a.now = now }
}

// NewCoverageAnalyzer creates a CoverageAnalyzer.
func NewCoverageAnalyzer(opts ...CoverageOption) *CoverageAnalyzer {
	a := &CoverageAnalyzer{now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// countBySection counts, per section id, the claims linked to it.
func countBySection(claims []types.Claim) map[string]int {
	counts := make(map[string]int)
	for _, c := range claims {
		seen := make(map[string]bool, len(c.Sections))
		for _, s := range c.Sections {
			if !seen[s] {
				seen[s] = true
				counts[s]++
			}
		}
	}
	return counts
}

// AnalyzeCoverage returns one metric per section, in section order.
func (a *CoverageAnalyzer) AnalyzeCoverage(sections []types.OutlineSection, claims []types.Claim) []types.CoverageMetric {
	counts := countBySection(claims)
	now := a.now()
	metrics := make([]types.CoverageMetric, len(sections))
	for i, s := range sections {
		n := counts[s.ID]
		metrics[i] = types.CoverageMetric{
			SectionID:        s.ID,
			ClaimCount:       n,
			CoverageLevel:    CoverageLevelFor(n),
			SuggestedQueries: SuggestSearchQueries(s),
			LastUpdated:      now,
		}
	}
	return metrics
}

// Gap is an under-supported section with its coverage metric.
type Gap struct {
	Section types.OutlineSection `json:"section" yaml:"section"`
	Metric  types.CoverageMetric `json:"metric" yaml:"metric"`
}

// IdentifyGaps returns the sections with fewer than threshold claims, ordered
// by heading level and then by position. A non-positive threshold uses
// DefaultGapThreshold.
func (a *CoverageAnalyzer) IdentifyGaps(sections []types.OutlineSection, claims []types.Claim, threshold int) []Gap {
	if threshold <= 0 {
		threshold = DefaultGapThreshold
	}
	metrics := a.AnalyzeCoverage(sections, claims)
	var gaps []Gap
	for i, m := range metrics {
		if m.ClaimCount < threshold {
			gaps = append(gaps, Gap{Section: sections[i], Metric: m})
		}
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Section.Level != gaps[j].Section.Level {
			return gaps[i].Section.Level < gaps[j].Section.Level
		}
		return gaps[i].Section.LineStart < gaps[j].Section.LineStart
	})
	return gaps
}

// SuggestSearchQueries derives two to five literature search queries for a
// section: its title, questions posed in its content, acronyms and hyphenated
// terms, and its most frequent content words.
func SuggestSearchQueries(section types.OutlineSection) []string {
	var qs querySet
	title := strings.TrimSpace(section.Title)
	qs.add(title)

	content := strings.Join(section.Content, " ")
	for _, q := range questionPattern.FindAllString(content, -1) {
		qs.add(stripPunctuation(q))
	}

	lowerTitle := strings.ToLower(title)
	for _, term := range technicalTerms(content) {
		if lowerTitle != "" && !strings.Contains(lowerTitle, strings.ToLower(term)) {
			qs.add(term + " " + lowerTitle)
		} else {
			qs.add(term)
		}
	}

	if terms := salient(content, salientTerms); len(terms) > 0 {
		qs.add(strings.Join(terms, " "))
	}

	base := lowerTitle
	if base == "" {
		base = strings.ReplaceAll(section.ID, "-", " ")
	}
	for _, suffix := range []string{"review", "methods", "evidence"} {
		if qs.len() >= minQueries {
			break
		}
		qs.add(strings.TrimSpace(base + " " + suffix))
	}
	return qs.list()
}

// querySet keeps up to maxQueries distinct queries in insertion order,
// comparing case-insensitively.
type querySet struct {
	seen  map[string]bool
	items []string
}

func (s *querySet) add(q string) {
	q = strings.Join(strings.Fields(q), " ")
	if q == "" || len(s.items) >= maxQueries {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	key := strings.ToLower(q)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, q)
}

func (s *querySet) len() int { return len(s.items) }

func (s *querySet) list() []string { return s.items }

// stripPunctuation removes everything but letters, digits, spaces and hyphens.
func stripPunctuation(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// technicalTerms returns acronyms and hyphenated terms in order of first
// appearance.
func technicalTerms(text string) []string {
	var hits [][]int
	for _, p := range []*regexp.Regexp{acronymPattern, hyphenPattern} {
		hits = append(hits, p.FindAllStringIndex(text, -1)...)
	}
	// Longest match first at a position; matches nested in an earlier one
	// (RNA inside RNA-seq) are dropped.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i][0] != hits[j][0] {
			return hits[i][0] < hits[j][0]
		}
		return hits[i][1] > hits[j][1]
	})

	seen := make(map[string]bool)
	var terms []string
	end := -1
	for _, h := range hits {
		if h[0] < end {
			continue
		}
		end = h[1]
		term := text[h[0]:h[1]]
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms
}

// salient returns up to n non-stopword content words ranked by frequency,
// ties broken by first appearance.
func salient(text string, n int) []string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, w := range strings.Fields(strings.ToLower(stripPunctuation(text))) {
		w = strings.Trim(w, "-")
		if len([]rune(w)) < minSalientTermLen || stopwords[w] || isNumber(w) {
			continue
		}
		if _, ok := first[w]; !ok {
			first[w] = i
		}
		counts[w]++
	}
	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return first[words[i]] < first[words[j]]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return true
}
