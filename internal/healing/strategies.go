package healing

import (
	"fmt"
	"regexp"
	"strings"

	"odyssey/internal/classify"
	"odyssey/internal/ir"
	"odyssey/internal/patterns"
)

// StrategyResult reports one fix attempt. Source is the full rewritten file
// when Applied is true, and the unmodified input otherwise. Strategies are
// idempotent: a file already in the target state yields Applied=false.
type StrategyResult struct {
	Applied    bool    `json:"applied"`
	Source     string  `json:"-"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note,omitempty"`
}

// Strategy is one mechanical source transform. Strategies never touch
// application code and never remove or weaken an assertion.
type Strategy interface {
	Type() FixType
	Apply(source string, c classify.Classification, cfg Config) StrategyResult
}

// StrategyFor maps a fix type to its implementation. The switch is
// exhaustive over the allowable set; forbidden fixes have no strategy by
// construction.
func StrategyFor(f FixType) (Strategy, bool) {
	switch f {
	case FixSelectorRefine:
		return selectorStrategy{}, true
	case FixNavigationWait:
		return navigationStrategy{}, true
	case FixTimingAdjust:
		return timingStrategy{}, true
	case FixDataIsolation:
		return dataIsolationStrategy{}, true
	default:
		return nil, false
	}
}

func unchanged(source, note string) StrategyResult {
	return StrategyResult{Applied: false, Source: source, Note: note}
}

// --- selector refinement ---

type selectorStrategy struct{}

func (selectorStrategy) Type() FixType { return FixSelectorRefine }

var testIDInSelectorRe = regexp.MustCompile(`\[data-testid=["']?([\w-]+)["']?\]`)
var selectorTokenRe = regexp.MustCompile(`[A-Za-z][\w]*`)

// Apply replaces the failing css locator with the most stable alternative
// that can be derived from the selector itself: a direct data-testid match
// is trusted fully, a role inferred from class/id tokens against the UI
// lexicon much less.
func (selectorStrategy) Apply(source string, c classify.Classification, cfg Config) StrategyResult {
	sel := c.Selector
	if sel == "" {
		return unchanged(source, "classification carries no selector")
	}
	needle := fmt.Sprintf("ui.CSS(%q)", sel)
	if !strings.Contains(source, needle) {
		return unchanged(source, "selector already refined or absent from source")
	}

	replacement, conf, note := refineSelector(sel)
	if replacement == "" {
		return unchanged(source, note)
	}
	return StrategyResult{
		Applied:    true,
		Source:     strings.ReplaceAll(source, needle, replacement),
		Confidence: conf,
		Note:       note,
	}
}

// refineSelector proposes the replacement locator expression. Candidates are
// ranked by the same strategy priority the matcher uses: a testid beats a
// heuristic role guess only when the role guess is unavailable, per the
// fixed role > label > text > testid > css order.
func refineSelector(sel string) (expr string, conf float64, note string) {
	var candidates []ir.LocatorSpec
	confidence := map[ir.LocatorStrategy]float64{}

	if m := testIDInSelectorRe.FindStringSubmatch(sel); m != nil {
		candidates = append(candidates, ir.LocatorSpec{Strategy: ir.StrategyTestID, Value: m[1]})
		confidence[ir.StrategyTestID] = 1.0
	}

	tokens := selectorTokenRe.FindAllString(sel, -1)
	for _, tok := range tokens {
		if role, ok := patterns.RoleForToken(tok); ok {
			name := inferName(tokens)
			candidates = append(candidates, ir.LocatorSpec{
				Strategy: ir.StrategyRole,
				Value:    role,
				Options:  map[string]string{"name": name},
			})
			confidence[ir.StrategyRole] = 0.3
			break
		}
	}

	best, ok := ir.BestLocator(candidates)
	if !ok {
		return "", 0, "no stable locator candidate derivable from selector"
	}
	switch best.Strategy {
	case ir.StrategyTestID:
		return fmt.Sprintf("ui.TestID(%q)", best.Value), confidence[best.Strategy], "direct data-testid match"
	case ir.StrategyRole:
		return fmt.Sprintf("ui.Role(%q, %q)", best.Value, best.Option("name")),
			confidence[best.Strategy], "role inferred from selector tokens"
	default:
		return "", 0, "no stable locator candidate derivable from selector"
	}
}

// inferName guesses an accessible name from the first token that is not
// itself a UI-role word.
func inferName(tokens []string) string {
	for _, tok := range tokens {
		if _, isRole := patterns.RoleForToken(tok); !isRole {
			return strings.ToUpper(tok[:1]) + tok[1:]
		}
	}
	if len(tokens) > 0 {
		return strings.ToUpper(tokens[0][:1]) + tokens[0][1:]
	}
	return ""
}

// --- navigation wait ---

type navigationStrategy struct{}

func (navigationStrategy) Type() FixType { return FixNavigationWait }

var gotoRe = regexp.MustCompile(`^(\s*)ui\.Goto\(page, ("(?:[^"]*)")\)`)

// Apply inserts a WaitURL after every Goto that lacks one before the next
// navigation. Already-covered navigations are left alone.
func (navigationStrategy) Apply(source string, c classify.Classification, cfg Config) StrategyResult {
	lines := strings.Split(source, "\n")
	var out []string
	inserted := 0

	for i, line := range lines {
		out = append(out, line)
		m := gotoRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		covered := false
		for _, later := range lines[i+1:] {
			if gotoRe.MatchString(later) {
				break
			}
			if strings.Contains(later, "ui.WaitURL(page, "+m[2]+")") {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, m[1]+"ui.WaitURL(page, "+m[2]+")")
			inserted++
		}
	}
	if inserted == 0 {
		return unchanged(source, "every navigation already awaits its URL")
	}
	return StrategyResult{
		Applied:    true,
		Source:     strings.Join(out, "\n"),
		Confidence: 0.9,
		Note:       fmt.Sprintf("inserted %d URL wait(s) after navigation", inserted),
	}
}

// --- timing adjustment ---

type timingStrategy struct{}

func (timingStrategy) Type() FixType { return FixTimingAdjust }

var sleepLineRe = regexp.MustCompile(`(?m)^\s*ui\.Sleep\(page, \d+\)\s*\n`)
var timeoutRe = regexp.MustCompile(`ui\.SetTimeout\(page, (\d+)\)`)

// Apply first removes brittle fixed delays (the emitted assertions are
// auto-retrying, so a sleep only hides races), then falls back to a bounded
// timeout increase. It never inserts a sleep; add-sleep is forbidden at the
// engine level and this strategy must not smuggle one in.
func (timingStrategy) Apply(source string, c classify.Classification, cfg Config) StrategyResult {
	if sleepLineRe.MatchString(source) {
		return StrategyResult{
			Applied:    true,
			Source:     sleepLineRe.ReplaceAllString(source, ""),
			Confidence: 0.7,
			Note:       "removed fixed delay in favor of auto-retrying assertions",
		}
	}

	m := timeoutRe.FindStringSubmatch(source)
	if m == nil {
		return unchanged(source, "no explicit timeout to adjust")
	}
	old := atoiSafe(m[1])
	next := old * 2
	if next > old+cfg.MaxTimeoutIncreaseMs {
		next = old + cfg.MaxTimeoutIncreaseMs
	}
	if next <= old {
		return unchanged(source, "timeout already at the configured ceiling")
	}
	return StrategyResult{
		Applied: true,
		Source: strings.Replace(source, m[0],
			fmt.Sprintf("ui.SetTimeout(page, %d)", next), 1),
		Confidence: 0.6,
		Note:       fmt.Sprintf("timeout raised %dms -> %dms (cap +%dms)", old, next, cfg.MaxTimeoutIncreaseMs),
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// --- data isolation ---

type dataIsolationStrategy struct{}

func (dataIsolationStrategy) Type() FixType { return FixDataIsolation }

var emailLitRe = regexp.MustCompile(`"([A-Za-z0-9._%-]+)@([A-Za-z0-9.-]+\.[A-Za-z]{2,})"`)
var testFuncRe = regexp.MustCompile(`(?m)^(func Test\w+\(t \*testing\.T\) \{)$`)

// Apply injects a per-run identifier and namespaces hardcoded emails with
// it so parallel or repeated runs cannot collide on the same records. The
// presence of ui.RunID() is the isolation marker; a file that already has
// one is left untouched.
func (dataIsolationStrategy) Apply(source string, c classify.Classification, cfg Config) StrategyResult {
	if strings.Contains(source, "ui.RunID()") {
		return unchanged(source, "isolation marker already present")
	}
	if !emailLitRe.MatchString(source) {
		return unchanged(source, "no hardcoded identity literal to namespace")
	}
	loc := testFuncRe.FindStringIndex(source)
	if loc == nil {
		return unchanged(source, "no test function to anchor the run identifier")
	}

	insertAt := loc[1]
	rewritten := source[:insertAt] + "\n\trunID := ui.RunID()" + source[insertAt:]
	rewritten = emailLitRe.ReplaceAllString(rewritten, `"$1+"+runID+"@$2"`)
	return StrategyResult{
		Applied:    true,
		Source:     rewritten,
		Confidence: 0.8,
		Note:       "namespaced hardcoded emails with a per-run identifier",
	}
}
