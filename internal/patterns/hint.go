// Package patterns implements the primitive pattern registry and the step
// matcher that turns one line of journey prose into an automation primitive.
// Matching is deterministic: registry entries are tried in a fixed order and
// the first structurally valid match wins. Text that matches nothing becomes
// a typed Unmatched diagnostic, never an error.
package patterns

import (
	"regexp"
	"strings"

	"odyssey/internal/ir"
)

// Hint is a machine-readable locator fragment embedded in step prose,
// written as a backticked, parenthesized key=value list:
//
//	Click Submit `(role=button, name=Submit)`
//
// When present the hint is authoritative: heuristic locator inference is
// bypassed entirely.
type Hint struct {
	Locator ir.LocatorSpec
	Module  string // set when the hint names a module instead of a locator
}

var hintRe = regexp.MustCompile("`\\(([^`]*)\\)`")

// ExtractHint pulls the first hint fragment out of text, returning the hint
// (nil when absent or unparseable) and the text with the fragment removed.
func ExtractHint(text string) (*Hint, string) {
	m := hintRe.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, text
	}
	body := text[m[2]:m[3]]
	stripped := strings.TrimSpace(text[:m[0]] + text[m[1]:])

	h := &Hint{}
	haveStrategy := false
	for _, pair := range strings.Split(body, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if k == "module" {
			h.Module = v
			continue
		}
		if s := ir.LocatorStrategy(k); s.Valid() && !haveStrategy {
			h.Locator.Strategy = s
			h.Locator.Value = v
			haveStrategy = true
			continue
		}
		if h.Locator.Options == nil {
			h.Locator.Options = map[string]string{}
		}
		h.Locator.Options[k] = v
	}
	if !haveStrategy && h.Module == "" {
		return nil, stripped
	}
	return h, stripped
}

var quotedRe = regexp.MustCompile(`['"]([^'"]+)['"]`)

// firstQuoted returns the first single- or double-quoted literal in text.
func firstQuoted(text string) (string, bool) {
	m := quotedRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// allQuoted returns every quoted literal in order.
func allQuoted(text string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

var pathRe = regexp.MustCompile(`(?:^|\s)(/[\w\-./?=&%]*)`)

// firstPath returns the first absolute URL path token in text.
func firstPath(text string) (string, bool) {
	m := pathRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
