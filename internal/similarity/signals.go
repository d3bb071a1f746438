// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"math"
	"regexp"
)

// negationPatterns detect an explicit negation in a claim.
var negationPatterns = compileAll(
	`\bnot\b`,
	`\bno\b`,
	`\bnever\b`,
	`\bcannot\b`,
	`\bcan't\b`,
	`\bwon't\b`,
	`\bdon't\b`,
	`\bdoesn't\b`,
	`\bdidn't\b`,
	`\bisn't\b`,
	`\baren't\b`,
	`\bwasn't\b`,
	`\bweren't\b`,
	`\bhasn't\b`,
	`\bhaven't\b`,
	`\bshouldn't\b`,
	`\bwouldn't\b`,
	`\bcouldn't\b`,
	`\bneither\b`,
	`\bnor\b`,
	`\bnone\b`,
	`\bwithout\b`,
	`\bfail(s|ed)? to\b`,
	`\black(s|ed)? of\b`,
)

var (
	positiveWords = compileWords(
		"improve", "improves", "improved", "effective", "increase", "increases",
		"better", "superior", "success", "successful", "beneficial", "enhance",
		"enhances", "robust", "accurate", "outperform", "outperforms", "reliable",
	)
	negativeWords = compileWords(
		"worse", "ineffective", "decrease", "decreases", "fail", "fails", "failure",
		"poor", "inferior", "harmful", "degrade", "degrades", "inaccurate",
		"unreliable", "limited", "bias", "biased", "problematic",
	)
)

// antonymPairs are keyword pairs that signal opposing claims when split across
// the two texts.
var antonymPairs = [][2]*regexp.Regexp{
	wordPair("increase", "decrease"),
	wordPair("increases", "decreases"),
	wordPair("improve", "worsen"),
	wordPair("effective", "ineffective"),
	wordPair("positive", "negative"),
	wordPair("higher", "lower"),
	wordPair("more", "less"),
	wordPair("better", "worse"),
	wordPair("success", "failure"),
	wordPair("significant", "insignificant"),
	wordPair("consistent", "inconsistent"),
	wordPair("accurate", "inaccurate"),
	wordPair("reliable", "unreliable"),
	wordPair("efficient", "inefficient"),
	wordPair("sufficient", "insufficient"),
	wordPair("present", "absent"),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

func compileWords(words ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = wordPattern(w)
	}
	return out
}

func wordPattern(w string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
}

func wordPair(a, b string) [2]*regexp.Regexp {
	return [2]*regexp.Regexp{wordPattern(a), wordPattern(b)}
}

// HasNegation reports whether text matches any negation pattern.
func HasNegation(text string) bool {
	for _, p := range negationPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Sentiment is the count of positive keyword matches minus negative ones.
func Sentiment(text string) float64 {
	var score int
	for _, p := range positiveWords {
		score += len(p.FindAllStringIndex(text, -1))
	}
	for _, p := range negativeWords {
		score -= len(p.FindAllStringIndex(text, -1))
	}
	return float64(score)
}

// HasAntonymPair reports whether one text holds one word of an antonym pair
// and the other text holds its opposite.
func HasAntonymPair(a, b string) bool {
	for _, pair := range antonymPairs {
		if (pair[0].MatchString(a) && pair[1].MatchString(b)) ||
			(pair[1].MatchString(a) && pair[0].MatchString(b)) {
			return true
		}
	}
	return false
}

// opposingSentiment reports opposite-signed sentiment scores that differ by
// more than 0.5.
func opposingSentiment(a, b string) bool {
	sa, sb := Sentiment(a), Sentiment(b)
	return sa*sb < 0 && math.Abs(sa-sb) > 0.5
}
