package patterns

import (
	"regexp"
	"strings"

	"odyssey/internal/ir"
)

// Category groups registry entries. Walk order is significant and fixed:
// signal, then navigation, then assertion, then interaction. Within a
// category, declaration order decides ties. Confidence never reorders
// entries; it only annotates the match.
type Category string

const (
	CategorySignal      Category = "signal"
	CategoryNavigation  Category = "navigation"
	CategoryAssertion   Category = "assertion"
	CategoryInteraction Category = "interaction"
)

// Entry is one pattern in the registry. Build turns a regex match into a
// primitive; it returns ok=false when the text matched the pattern shape but
// lacks the structure (usually a locator) needed to emit a primitive, in
// which case the walk continues.
type Entry struct {
	Name       string
	Category   Category
	Pattern    *regexp.Regexp
	Confidence float64
	Build      func(text string, m []string, hint *Hint) (ir.Primitive, bool)
}

// locatorFor resolves the target locator for an entry. The hint wins when
// present. With textFallback, the first quoted literal becomes a text-strategy
// locator; otherwise resolution fails and the entry is structurally invalid.
func locatorFor(text string, hint *Hint, textFallback bool) (*ir.LocatorSpec, bool) {
	if hint != nil && hint.Locator.Strategy.Valid() {
		loc := hint.Locator
		return &loc, true
	}
	if textFallback {
		if q, ok := firstQuoted(text); ok {
			return &ir.LocatorSpec{Strategy: ir.StrategyText, Value: q}, true
		}
	}
	return nil, false
}

var valueTokenRe = regexp.MustCompile(`\{(\w+)(?:\.(\w+))?\}`)

// valueFor resolves the value payload for fill/select style entries.
// Brace tokens name derived values ({runId}, {actor.email}, {data.key},
// {generated}); quoted literals are literal values.
func valueFor(text string) (*ir.ValueSpec, bool) {
	if m := valueTokenRe.FindStringSubmatch(text); m != nil {
		switch m[1] {
		case "runId", "runid":
			v := ir.RunID()
			return &v, true
		case "actor":
			v := ir.ValueSpec{Kind: ir.ValueActor, Payload: m[2]}
			return &v, true
		case "data":
			v := ir.ValueSpec{Kind: ir.ValueTestData, Payload: m[2]}
			return &v, true
		case "generated":
			v := ir.ValueSpec{Kind: ir.ValueGenerated, Payload: m[2]}
			return &v, true
		}
	}
	if q, ok := firstQuoted(text); ok {
		v := ir.Literal(q)
		return &v, true
	}
	return nil, false
}

// registry is the fixed, ordered pattern table. First structurally valid
// match wins; do not re-derive this order from confidence values.
var registry = []Entry{
	// --- signals ---
	{
		Name: "expect-toast", Category: CategorySignal, Confidence: 0.9,
		Pattern: regexp.MustCompile(`(?i)\b(?:toast|snackbar|notification)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			p := ir.Primitive{Type: ir.PrimExpectToast}
			if q, ok := firstQuoted(text); ok {
				v := ir.Literal(q)
				p.Value = &v
			}
			return p, true
		},
	},
	{
		Name: "dismiss-modal", Category: CategorySignal, Confidence: 0.9,
		Pattern: regexp.MustCompile(`(?i)\b(?:dismiss|close)\b.*\b(?:modal|dialog|popup)\b`),
		Build: func(string, []string, *Hint) (ir.Primitive, bool) {
			return ir.Primitive{Type: ir.PrimDismissModal}, true
		},
	},
	{
		Name: "accept-alert", Category: CategorySignal, Confidence: 0.9,
		Pattern: regexp.MustCompile(`(?i)\b(?:accept|confirm)\b.*\b(?:alert|confirmation|prompt)\b`),
		Build: func(string, []string, *Hint) (ir.Primitive, bool) {
			return ir.Primitive{Type: ir.PrimAcceptAlert}, true
		},
	},
	{
		Name: "dismiss-alert", Category: CategorySignal, Confidence: 0.9,
		Pattern: regexp.MustCompile(`(?i)\b(?:dismiss|cancel)\b.*\balert\b`),
		Build: func(string, []string, *Hint) (ir.Primitive, bool) {
			return ir.Primitive{Type: ir.PrimDismissAlert}, true
		},
	},

	// --- navigation ---
	{
		Name: "goto", Category: CategoryNavigation, Confidence: 0.95,
		Pattern: regexp.MustCompile(`(?i)^(?:navigate|go|browse)s?\s+to\b|^(?:open|visit)s?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			if p, ok := firstPath(text); ok {
				return ir.Primitive{Type: ir.PrimGoto, URL: p}, true
			}
			if q, ok := firstQuoted(text); ok {
				return ir.Primitive{Type: ir.PrimGoto, URL: q}, true
			}
			return ir.Primitive{}, false
		},
	},
	{
		Name: "wait-for-url", Category: CategoryNavigation, Confidence: 0.95,
		Pattern: regexp.MustCompile(`(?i)\bwait\b.*\burl\b|\burl\b.*\b(?:becomes|changes\s+to)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			if p, ok := firstPath(text); ok {
				return ir.Primitive{Type: ir.PrimWaitForURL, URL: p}, true
			}
			if q, ok := firstQuoted(text); ok {
				return ir.Primitive{Type: ir.PrimWaitForURL, URL: q}, true
			}
			return ir.Primitive{}, false
		},
	},
	{
		Name: "reload", Category: CategoryNavigation, Confidence: 0.95,
		Pattern: regexp.MustCompile(`(?i)^(?:reload|refresh)e?s?\b`),
		Build: func(string, []string, *Hint) (ir.Primitive, bool) {
			return ir.Primitive{Type: ir.PrimReload}, true
		},
	},
	{
		Name: "go-back", Category: CategoryNavigation, Confidence: 0.95,
		Pattern: regexp.MustCompile(`(?i)\b(?:go|navigate)e?s?\s+back\b`),
		Build: func(string, []string, *Hint) (ir.Primitive, bool) {
			return ir.Primitive{Type: ir.PrimGoBack}, true
		},
	},
	{
		Name: "go-forward", Category: CategoryNavigation, Confidence: 0.95,
		Pattern: regexp.MustCompile(`(?i)\b(?:go|navigate)e?s?\s+forward\b`),
		Build: func(string, []string, *Hint) (ir.Primitive, bool) {
			return ir.Primitive{Type: ir.PrimGoForward}, true
		},
	},

	// --- assertions ---
	{
		Name: "expect-url", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:url|address)\b.*\b(?:is|shows|should\s+be|ends\s+with)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			if p, ok := firstPath(text); ok {
				return ir.Primitive{Type: ir.PrimExpectURL, URL: p}, true
			}
			if q, ok := firstQuoted(text); ok {
				return ir.Primitive{Type: ir.PrimExpectURL, URL: q}, true
			}
			return ir.Primitive{}, false
		},
	},
	{
		Name: "expect-title", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:page\s+)?title\b.*\b(?:is|shows|should\s+be)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			q, ok := firstQuoted(text)
			if !ok {
				return ir.Primitive{}, false
			}
			v := ir.Literal(q)
			return ir.Primitive{Type: ir.PrimExpectTitle, Value: &v}, true
		},
	},
	{
		Name: "expect-count", Category: CategoryAssertion, Confidence: 0.8,
		Pattern: regexp.MustCompile(`(?i)\b(\d+)\s+(?:items?|rows?|results?|entries|cards?|options?)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			n := 0
			for _, c := range m[1] {
				n = n*10 + int(c-'0')
			}
			return ir.Primitive{Type: ir.PrimExpectCount, Locator: loc, Count: n}, true
		},
	},
	{
		Name: "expect-hidden", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:is|are|should\s+be)\s+hidden\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, true)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectHidden, Locator: loc}, true
		},
	},
	{
		Name: "expect-not-visible", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:not|no\s+longer)\s+(?:visible|displayed|shown)\b|\bdisappears?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, true)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectNotVisible, Locator: loc}, true
		},
	},
	{
		Name: "expect-checked", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:is|are|should\s+be)\s+(?:checked|selected|ticked)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectChecked, Locator: loc}, true
		},
	},
	{
		Name: "expect-enabled", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:is|are|becomes?|should\s+be)\s+enabled\b|\b(?:is|are)\s+clickable\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectEnabled, Locator: loc}, true
		},
	},
	{
		Name: "expect-disabled", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:is|are|becomes?|should\s+be)\s+(?:disabled|greyed\s+out|grayed\s+out)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectDisabled, Locator: loc}, true
		},
	},
	{
		Name: "expect-value", Category: CategoryAssertion, Confidence: 0.8,
		Pattern: regexp.MustCompile(`(?i)\b(?:field|input)\b.*\b(?:has|contains|shows)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			val, ok := valueFor(text)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectValue, Locator: loc, Value: val}, true
		},
	},
	{
		Name: "expect-contains-text", Category: CategoryAssertion, Confidence: 0.8,
		Pattern: regexp.MustCompile(`(?i)\b(?:contains?|includes?)\b.*['"]`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			val, ok := valueFor(text)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectContainsText, Locator: loc, Value: val}, true
		},
	},
	{
		Name: "expect-visible", Category: CategoryAssertion, Confidence: 0.85,
		Pattern: regexp.MustCompile(`(?i)\b(?:is|are|should\s+be|becomes?)\s+(?:visible|displayed|shown)\b|\b(?:see|appears?)\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, true)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimExpectVisible, Locator: loc}, true
		},
	},

	// --- interactions ---
	{
		Name: "press-key", Category: CategoryInteraction, Confidence: 0.9,
		Pattern: regexp.MustCompile(`(?i)\bpress(?:es)?\s+(?:the\s+)?['"]?(\w+(?:\+\w+)*)['"]?\s+key\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			v := ir.Literal(m[1])
			return ir.Primitive{Type: ir.PrimPress, Value: &v}, true
		},
	},
	{
		Name: "click", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^(?:click|tap)s?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimClick, Locator: loc}, true
		},
	},
	{
		Name: "fill", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^(?:enter|type|fill)s?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			val, ok := valueFor(text)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimFill, Locator: loc, Value: val}, true
		},
	},
	{
		Name: "select", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^(?:select|choose)s?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			val, ok := valueFor(text)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimSelect, Locator: loc, Value: val}, true
		},
	},
	{
		Name: "uncheck", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^(?:uncheck|untick)s?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimUncheck, Locator: loc}, true
		},
	},
	{
		Name: "check", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^(?:check|tick)s?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimCheck, Locator: loc}, true
		},
	},
	{
		Name: "hover", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^hovers?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimHover, Locator: loc}, true
		},
	},
	{
		Name: "focus", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^focus(?:es)?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimFocus, Locator: loc}, true
		},
	},
	{
		Name: "clear", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^clears?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			return ir.Primitive{Type: ir.PrimClear, Locator: loc}, true
		},
	},
	{
		Name: "upload", Category: CategoryInteraction, Confidence: 0.98,
		Pattern: regexp.MustCompile(`(?i)^(?:upload|attach)(?:es)?\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			loc, ok := locatorFor(text, hint, false)
			if !ok {
				return ir.Primitive{}, false
			}
			p := ir.Primitive{Type: ir.PrimUpload, Locator: loc}
			if q, ok := firstQuoted(text); ok {
				v := ir.Literal(q)
				p.Value = &v
			}
			return p, true
		},
	},
	{
		Name: "call-module", Category: CategoryInteraction, Confidence: 0.95,
		Pattern: regexp.MustCompile(`(?i)^(?:run|perform|call|complete)s?\b.*\bmodule\b`),
		Build: func(text string, m []string, hint *Hint) (ir.Primitive, bool) {
			if hint != nil && hint.Module != "" {
				return ir.Primitive{Type: ir.PrimCallModule, Module: hint.Module}, true
			}
			if q, ok := firstQuoted(text); ok {
				return ir.Primitive{Type: ir.PrimCallModule, Module: q}, true
			}
			return ir.Primitive{}, false
		},
	},
}

// Registry exposes a copy of the ordered table, mostly for diagnostics and
// the confidence scorer's pattern dimension.
func Registry() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}

// EntryNames returns the registry entry names in walk order.
func EntryNames() []string {
	names := make([]string, 0, len(registry))
	for _, e := range registry {
		names = append(names, e.Name)
	}
	return names
}

// normalizeStep trims list markers and checkbox prefixes off a bullet.
func normalizeStep(text string) string {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "- [ ]")
	t = strings.TrimPrefix(t, "- [x]")
	t = strings.TrimPrefix(t, "- [X]")
	t = strings.TrimPrefix(t, "-")
	t = strings.TrimPrefix(t, "*")
	return strings.TrimSpace(t)
}
