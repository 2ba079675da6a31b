// Package ir defines the intermediate representation for compiled journeys:
// locator and value models, the closed set of automation primitives, and the
// step/journey containers the normalizer emits. IR values are created once
// per normalization pass and never mutated afterwards.
package ir

// LocatorStrategy identifies how a UI target is located.
type LocatorStrategy string

const (
	StrategyRole        LocatorStrategy = "role"
	StrategyLabel       LocatorStrategy = "label"
	StrategyPlaceholder LocatorStrategy = "placeholder"
	StrategyText        LocatorStrategy = "text"
	StrategyTestID      LocatorStrategy = "testid"
	StrategyCSS         LocatorStrategy = "css"
)

// strategyRank encodes the fixed stability ordering. Lower is better.
// role > label > placeholder > text > testid > css is the single source of
// truth for every component that has to choose between equivalent locators.
var strategyRank = map[LocatorStrategy]int{
	StrategyRole:        0,
	StrategyLabel:       1,
	StrategyPlaceholder: 2,
	StrategyText:        3,
	StrategyTestID:      4,
	StrategyCSS:         5,
}

// Rank returns the strategy's position in the fixed priority order.
// Unknown strategies rank below css.
func (s LocatorStrategy) Rank() int {
	if r, ok := strategyRank[s]; ok {
		return r
	}
	return len(strategyRank)
}

// Valid reports whether s is one of the six known strategies.
func (s LocatorStrategy) Valid() bool {
	_, ok := strategyRank[s]
	return ok
}

// AllStrategies returns the known strategies in priority order.
func AllStrategies() []LocatorStrategy {
	return []LocatorStrategy{
		StrategyRole, StrategyLabel, StrategyPlaceholder,
		StrategyText, StrategyTestID, StrategyCSS,
	}
}

// LocatorSpec describes one way to find a UI element.
type LocatorSpec struct {
	Strategy LocatorStrategy   `json:"strategy"`
	Value    string            `json:"value"`
	Options  map[string]string `json:"options,omitempty"` // e.g. name, exact
}

// Option returns the named option or "".
func (l LocatorSpec) Option(key string) string {
	if l.Options == nil {
		return ""
	}
	return l.Options[key]
}

// BestLocator picks the highest-priority locator from candidates.
// Ties are broken by input order, so the choice is deterministic.
func BestLocator(candidates []LocatorSpec) (LocatorSpec, bool) {
	if len(candidates) == 0 {
		return LocatorSpec{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Strategy.Rank() < best.Strategy.Rank() {
			best = c
		}
	}
	return best, true
}

// ValueKind tags a ValueSpec.
type ValueKind string

const (
	ValueLiteral   ValueKind = "literal"
	ValueActor     ValueKind = "actor"
	ValueRunID     ValueKind = "runId"
	ValueGenerated ValueKind = "generated"
	ValueTestData  ValueKind = "testData"
)

// ValueSpec is a tagged value used by fill/select/press primitives.
// runId carries no payload; it is resolved at generation time.
type ValueSpec struct {
	Kind    ValueKind `json:"kind"`
	Payload string    `json:"payload,omitempty"`
}

// Literal wraps a plain string value.
func Literal(s string) ValueSpec { return ValueSpec{Kind: ValueLiteral, Payload: s} }

// RunID is the per-run identifier value, resolved when code is rendered.
func RunID() ValueSpec { return ValueSpec{Kind: ValueRunID} }
