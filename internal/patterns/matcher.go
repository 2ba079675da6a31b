package patterns

import (
	"fmt"

	"odyssey/internal/ir"
)

// StepMatch is a successful match: the emitted primitive plus provenance.
type StepMatch struct {
	Primitive  ir.Primitive `json:"primitive"`
	Pattern    string       `json:"pattern"`
	Confidence float64      `json:"confidence"`
}

// Unmatched is the structured no-match diagnostic. SourceText is always the
// literal input; it doubles as the blocked-step placeholder downstream.
type Unmatched struct {
	SourceText string `json:"sourceText"`
	Reason     string `json:"reason"`
}

// Match walks the registry in fixed order and returns the first structurally
// valid primitive for one step's text, or an Unmatched diagnostic. Exactly
// one return value is non-nil. The function is pure and re-entrant; calling
// it twice on the same text yields identical results.
func Match(text string) (*StepMatch, *Unmatched) {
	original := text
	hint, stripped := ExtractHint(normalizeStep(text))

	// A module hint is authoritative regardless of prose shape.
	if hint != nil && hint.Module != "" {
		return &StepMatch{
			Primitive:  ir.Primitive{Type: ir.PrimCallModule, Module: hint.Module},
			Pattern:    "call-module",
			Confidence: 1.0,
		}, nil
	}

	// Remember the first entry whose shape matched but whose structure did
	// not resolve; its name makes the diagnostic actionable.
	partial := ""
	for _, e := range registry {
		m := e.Pattern.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}
		prim, ok := e.Build(stripped, m, hint)
		if !ok {
			if partial == "" {
				partial = e.Name
			}
			continue
		}
		conf := e.Confidence
		if hint != nil {
			conf = 1.0
		}
		return &StepMatch{Primitive: prim, Pattern: e.Name, Confidence: conf}, nil
	}

	reason := "no registry pattern matched"
	if partial != "" {
		reason = fmt.Sprintf(
			"pattern %q matched but the step lacks a target; add a `(strategy=value)` hint", partial)
	}
	return nil, &Unmatched{SourceText: original, Reason: reason}
}
