// Package healing implements the rule-bounded repair of generated test code:
// the policy engine deciding which fix types a failure category admits, the
// four mechanical fix strategies, and the classify-fix-reverify loop.
// Healing edits generated test code only, and never removes or weakens an
// assertion; the forbidden-fix list enforcing that is a safety invariant,
// not configuration.
package healing

import (
	"fmt"
	"sort"

	"odyssey/internal/classify"
)

// FixType enumerates every fix the engine knows about, including the
// permanently forbidden ones. The set is closed so rule tables and configs
// are checked by type, not by string comparison at call sites.
type FixType string

const (
	FixSelectorRefine FixType = "selector-refine"
	FixNavigationWait FixType = "navigation-wait"
	FixTimingAdjust   FixType = "timing-adjust"
	FixDataIsolation  FixType = "data-isolation"

	// Permanently forbidden. Kept in the enum so requests for them can be
	// recognized and rejected instead of falling through as typos.
	FixAddSleep        FixType = "add-sleep"
	FixRemoveAssertion FixType = "remove-assertion"
	FixWeakenAssertion FixType = "weaken-assertion"
	FixForceClick      FixType = "force-click"
	FixBypassAuth      FixType = "bypass-auth"
)

// forbidden is the permanent blacklist. It is not part of Config and cannot
// be overridden by one.
var forbidden = map[FixType]bool{
	FixAddSleep:        true,
	FixRemoveAssertion: true,
	FixWeakenAssertion: true,
	FixForceClick:      true,
	FixBypassAuth:      true,
}

// Forbidden reports whether f is on the permanent blacklist.
func (f FixType) Forbidden() bool { return forbidden[f] }

// ForbiddenFixes returns the blacklist in a stable order.
func ForbiddenFixes() []FixType {
	return []FixType{
		FixAddSleep, FixRemoveAssertion, FixWeakenAssertion,
		FixForceClick, FixBypassAuth,
	}
}

// AllowableFixes returns every fix type that may legally appear in a config.
func AllowableFixes() []FixType {
	return []FixType{FixSelectorRefine, FixNavigationWait, FixTimingAdjust, FixDataIsolation}
}

// Rule binds one fix type to the failure categories it applies to.
type Rule struct {
	Fix              FixType
	AppliesTo        []classify.Category
	Priority         int // higher runs first
	EnabledByDefault bool
}

// DefaultRules is the fixed rule table. Priorities encode which repair is
// attempted first when a category admits several.
func DefaultRules() []Rule {
	return []Rule{
		{Fix: FixSelectorRefine, AppliesTo: []classify.Category{classify.CategorySelector}, Priority: 100, EnabledByDefault: true},
		{Fix: FixNavigationWait, AppliesTo: []classify.Category{classify.CategoryNavigation}, Priority: 90, EnabledByDefault: true},
		{Fix: FixDataIsolation, AppliesTo: []classify.Category{classify.CategoryData}, Priority: 90, EnabledByDefault: true},
		{Fix: FixTimingAdjust, AppliesTo: []classify.Category{classify.CategoryTiming, classify.CategorySelector, classify.CategoryAssertion}, Priority: 80, EnabledByDefault: true},
	}
}

// Config bounds a healing run. The forbidden list is deliberately absent:
// it is package policy, not a tunable.
type Config struct {
	Enabled              bool      `yaml:"enabled" json:"enabled"`
	MaxAttempts          int       `yaml:"max_attempts" json:"max_attempts"`
	AllowedFixes         []FixType `yaml:"allowed_fixes" json:"allowed_fixes"`
	MaxTimeoutIncreaseMs int       `yaml:"max_timeout_increase_ms" json:"max_timeout_increase_ms"`
}

// DefaultConfig allows every legal fix with three attempts.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		MaxAttempts:          3,
		AllowedFixes:         AllowableFixes(),
		MaxTimeoutIncreaseMs: 10000,
	}
}

// NewConfig validates and returns a config. A forbidden fix in AllowedFixes
// is a configuration error, never a runtime choice.
func NewConfig(enabled bool, maxAttempts int, allowed []FixType, maxTimeoutIncreaseMs int) (Config, error) {
	c := Config{
		Enabled:              enabled,
		MaxAttempts:          maxAttempts,
		AllowedFixes:         allowed,
		MaxTimeoutIncreaseMs: maxTimeoutIncreaseMs,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate enforces the config invariants.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.MaxTimeoutIncreaseMs < 0 {
		return fmt.Errorf("max_timeout_increase_ms must not be negative")
	}
	for _, f := range c.AllowedFixes {
		if f.Forbidden() {
			return fmt.Errorf("fix %q is permanently forbidden and cannot be allowed", f)
		}
		known := false
		for _, a := range AllowableFixes() {
			if f == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown fix type %q", f)
		}
	}
	return nil
}

func (c Config) allows(f FixType) bool {
	for _, a := range c.AllowedFixes {
		if a == f {
			return true
		}
	}
	return false
}

// Evaluation is the outcome of asking whether a failure can be healed.
type Evaluation struct {
	CanHeal         bool      `json:"canHeal"`
	ApplicableFixes []FixType `json:"applicableFixes,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// Evaluate returns the ordered fixes allowed for the classification's
// category. Unhealable categories are rejected before any rule is consulted.
func Evaluate(c classify.Classification, cfg Config) Evaluation {
	if !cfg.Enabled {
		return Evaluation{Reason: "healing disabled by config"}
	}
	if c.Category.Unhealable() {
		return Evaluation{Reason: fmt.Sprintf(
			"category %q requires human or environment action", c.Category)}
	}

	type cand struct {
		fix      FixType
		priority int
		index    int
	}
	var cands []cand
	for i, r := range DefaultRules() {
		if r.Fix.Forbidden() || !cfg.allows(r.Fix) {
			continue
		}
		for _, cat := range r.AppliesTo {
			if cat == c.Category {
				cands = append(cands, cand{r.Fix, r.Priority, i})
				break
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].priority != cands[j].priority {
			return cands[i].priority > cands[j].priority
		}
		return cands[i].index < cands[j].index
	})

	ev := Evaluation{}
	for _, c := range cands {
		ev.ApplicableFixes = append(ev.ApplicableFixes, c.fix)
	}
	ev.CanHeal = len(ev.ApplicableFixes) > 0
	if !ev.CanHeal && ev.Reason == "" {
		ev.Reason = fmt.Sprintf("no allowed fix applies to category %q", c.Category)
	}
	return ev
}

// NextFix returns the highest-priority applicable fix not yet attempted in
// this run, or ok=false when none remains. It never returns a forbidden fix
// regardless of what the rule table or config claim.
func NextFix(c classify.Classification, attempted []FixType, cfg Config) (FixType, bool) {
	ev := Evaluate(c, cfg)
	for _, f := range ev.ApplicableFixes {
		tried := false
		for _, a := range attempted {
			if a == f {
				tried = true
				break
			}
		}
		if !tried && !f.Forbidden() {
			return f, true
		}
	}
	return "", false
}
