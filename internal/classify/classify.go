// Package classify turns raw test-runner error text into a stable, closed
// failure category plus a normalized fingerprint that survives cosmetic
// variation (timeouts, counts, quoted literals) between runs. The healing
// loop keys on the fingerprint to tell "same failure recurring" apart from
// "new failure appeared".
package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Category is the unified failure taxonomy. Granular pattern names inside
// the rule table map many-to-one onto these; nothing else in the pipeline
// ever sees a pattern name.
type Category string

const (
	CategorySelector   Category = "selector"
	CategoryTiming     Category = "timing"
	CategoryNavigation Category = "navigation"
	CategoryAssertion  Category = "assertion"
	CategoryNetwork    Category = "network"
	CategoryData       Category = "data"
	CategoryAuth       Category = "auth"
	CategoryEnv        Category = "env"
	CategoryUnknown    Category = "unknown"
)

// AllCategories returns the closed set in table order.
func AllCategories() []Category {
	return []Category{
		CategorySelector, CategoryTiming, CategoryNavigation,
		CategoryAssertion, CategoryNetwork, CategoryData,
		CategoryAuth, CategoryEnv, CategoryUnknown,
	}
}

// Unhealable reports whether the category requires human or environment
// action. These are never handed to a fix strategy.
func (c Category) Unhealable() bool {
	switch c {
	case CategoryAuth, CategoryEnv, CategoryUnknown:
		return true
	}
	return false
}

// Classification is the classifier's output for one error.
type Classification struct {
	Category        Category `json:"category"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matchedKeywords,omitempty"`
	Selector        string   `json:"selector,omitempty"`
	ExpectedValue   string   `json:"expectedValue,omitempty"`
	ActualValue     string   `json:"actualValue,omitempty"`
	Location        string   `json:"location,omitempty"`
	Fingerprint     string   `json:"fingerprint"`
}

// rule is one row of the category table. Rules are tried in declaration
// order and the first rule with any matching pattern wins; this is
// first-match-wins, not best-match.
type rule struct {
	name       string
	category   Category
	confidence float64
	patterns   []*regexp.Regexp
	// extract pulls selector / expected / actual out of the message.
	// Only some categories define one.
	extract func(text string, c *Classification)
}

var (
	selectorInMsgRe = regexp.MustCompile(`locator\(['"]?([^'")]+)['"]?\)|selector ['"]([^'"]+)['"]|element ['"]([^'"]+)['"]|waiting for ['"]([^'"]+)['"]`)
	expectedRe      = regexp.MustCompile(`(?i)expected(?::|\s+value)?\s*['"]?([^'"\n]+?)['"]?(?:\n|$|,)`)
	actualRe        = regexp.MustCompile(`(?i)(?:received|actual|got)(?::|\s+value)?\s*['"]?([^'"\n]+?)['"]?(?:\n|$|,)`)
	locationRe      = regexp.MustCompile(`(?:at\s+)?([\w./-]+\.(?:go|ts|js|spec\.ts|test\.ts)):(\d+)(?::\d+)?`)
)

func extractSelector(text string, c *Classification) {
	if m := selectorInMsgRe.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				c.Selector = g
				break
			}
		}
	}
}

func extractExpectedActual(text string, c *Classification) {
	if m := expectedRe.FindStringSubmatch(text); m != nil {
		c.ExpectedValue = strings.TrimSpace(m[1])
	}
	if m := actualRe.FindStringSubmatch(text); m != nil {
		c.ActualValue = strings.TrimSpace(m[1])
	}
}

// table is the fixed category table. Order is significant: the selector
// rules sit above timing so that a timeout message that names a locator
// classifies as selector, matching the original's precedence.
var table = []rule{
	{
		name: "selector-not-found", category: CategorySelector, confidence: 0.9,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)waiting for locator`),
			regexp.MustCompile(`(?i)locator.*(?:not found|resolved to 0|did not resolve)`),
			regexp.MustCompile(`(?i)element (?:is )?not (?:found|attached|visible)`),
			regexp.MustCompile(`(?i)no (?:element|node) (?:found|matches)`),
			regexp.MustCompile(`(?i)cannot find element`),
			regexp.MustCompile(`(?i)strict mode violation`),
			regexp.MustCompile(`(?i)element query returned (?:nothing|no results)`),
		},
		extract: extractSelector,
	},
	{
		name: "timing", category: CategoryTiming, confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)timeout \d+m?s exceeded`),
			regexp.MustCompile(`(?i)timed? ?out (?:after|waiting)`),
			regexp.MustCompile(`(?i)context deadline exceeded`),
			regexp.MustCompile(`(?i)exceeded while waiting`),
		},
		extract: extractSelector,
	},
	{
		name: "navigation", category: CategoryNavigation, confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)navigation (?:failed|timeout|interrupted)`),
			regexp.MustCompile(`(?i)net::ERR_ABORTED`),
			regexp.MustCompile(`(?i)page\.(?:goto|waitForURL)`),
			regexp.MustCompile(`(?i)expected url|toHaveURL`),
			regexp.MustCompile(`(?i)wrong (?:page|url)`),
		},
		extract: extractExpectedActual,
	},
	{
		name: "assertion", category: CategoryAssertion, confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)expect(?:ed)?\(.*\)\.to`),
			regexp.MustCompile(`(?i)assertion failed`),
			regexp.MustCompile(`(?i)expected .* (?:but )?(?:got|received|was)`),
			regexp.MustCompile(`(?i)toHaveText|toContainText|toHaveValue|toBeChecked`),
		},
		extract: func(text string, c *Classification) {
			extractExpectedActual(text, c)
			extractSelector(text, c)
		},
	},
	{
		name: "network", category: CategoryNetwork, confidence: 0.8,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)net::ERR_`),
			regexp.MustCompile(`(?i)ECONNREFUSED|ECONNRESET|ETIMEDOUT`),
			regexp.MustCompile(`(?i)(?:50[0234]|429) \((?:Internal Server Error|Bad Gateway|Service Unavailable|Gateway Timeout|Too Many Requests)\)`),
			regexp.MustCompile(`(?i)failed to fetch|request failed`),
		},
	},
	{
		name: "data", category: CategoryData, confidence: 0.75,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)already (?:exists|registered|taken|in use)`),
			regexp.MustCompile(`(?i)duplicate (?:key|entry|record)`),
			regexp.MustCompile(`(?i)unique constraint`),
			regexp.MustCompile(`(?i)conflict`),
		},
	},
	{
		name: "auth", category: CategoryAuth, confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(?:401|403) \((?:Unauthorized|Forbidden)\)`),
			regexp.MustCompile(`(?i)unauthorized|forbidden|not authori[sz]ed`),
			regexp.MustCompile(`(?i)session expired|login required|invalid credentials`),
		},
	},
	{
		name: "env", category: CategoryEnv, confidence: 0.85,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)browser (?:closed|crashed|disconnected)`),
			regexp.MustCompile(`(?i)executable doesn't exist|could not (?:start|launch)`),
			regexp.MustCompile(`(?i)out of memory|no space left`),
			regexp.MustCompile(`(?i)test runner (?:crashed|exited unexpectedly)`),
		},
	},
}

// Classify matches errorText against the category table, first match wins.
// Unmatched text is CategoryUnknown with low confidence; classification
// never fails.
func Classify(errorText string) Classification {
	c := Classification{Category: CategoryUnknown, Confidence: 0.2}
	for _, r := range table {
		for _, p := range r.patterns {
			if m := p.FindString(errorText); m != "" {
				c.Category = r.category
				c.Confidence = r.confidence
				c.MatchedKeywords = append(c.MatchedKeywords, strings.ToLower(m))
				if r.extract != nil {
					r.extract(errorText, &c)
				}
				if lm := locationRe.FindStringSubmatch(errorText); lm != nil {
					c.Location = lm[1] + ":" + lm[2]
				}
				c.Fingerprint = fingerprint(c.Category, errorText, c.Selector, c.Location)
				return c
			}
		}
	}
	if lm := locationRe.FindStringSubmatch(errorText); lm != nil {
		c.Location = lm[1] + ":" + lm[2]
	}
	c.Fingerprint = fingerprint(c.Category, errorText, c.Selector, c.Location)
	return c
}

var (
	durationRe  = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(?:ms|s|m)\b`)
	numberRe    = regexp.MustCompile(`\b\d+\b`)
	quotedLitRe = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// normalizeMessage replaces volatile tokens with placeholders so that two
// occurrences of the same root cause hash identically even though the
// runner embeds run-specific numbers and literals.
func normalizeMessage(text string) string {
	t := durationRe.ReplaceAllString(text, "<D>")
	t = quotedLitRe.ReplaceAllString(t, "<S>")
	t = numberRe.ReplaceAllString(t, "<N>")
	t = spaceRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	if len(t) > 160 {
		t = t[:160]
	}
	return strings.ToLower(t)
}

// fingerprint hashes (category, normalized message prefix, selector, file,
// line) into a 16-hex-char identity.
func fingerprint(cat Category, message, selector, location string) string {
	h := sha256.New()
	h.Write([]byte(cat))
	h.Write([]byte{0})
	h.Write([]byte(normalizeMessage(message)))
	h.Write([]byte{0})
	h.Write([]byte(selector))
	h.Write([]byte{0})
	h.Write([]byte(location))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Batch classifies every error in a result set. Multiple errors from one
// test run are deduplicated by fingerprint before being returned, keeping
// the first occurrence per identity. Keys are test identifiers.
func Batch(errorsByTest map[string][]string) map[string][]Classification {
	out := make(map[string][]Classification, len(errorsByTest))
	for testID, texts := range errorsByTest {
		var cs []Classification
		for _, text := range texts {
			cs = append(cs, Classify(text))
		}
		out[testID] = Dedupe(cs)
	}
	return out
}

// Dedupe collapses a list of classifications to unique fingerprints,
// preserving input order.
func Dedupe(cs []Classification) []Classification {
	seen := map[string]bool{}
	var out []Classification
	for _, c := range cs {
		if seen[c.Fingerprint] {
			continue
		}
		seen[c.Fingerprint] = true
		out = append(out, c)
	}
	return out
}
