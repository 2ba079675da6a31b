// Package normalize assembles matched and unmatched step text into the IR
// journey used for code generation. Unmatchable bullets become explicit
// blocked primitives; nothing is silently dropped. The package is pure: the
// same parsed journey and options always produce the same result.
package normalize

import (
	"fmt"

	"odyssey/internal/ir"
	"odyssey/internal/journey"
	"odyssey/internal/patterns"
)

// Options controls normalization policy.
type Options struct {
	// IncludeBlocked keeps blocked primitives inside emitted steps. When
	// false they are still recorded in BlockedSteps and Stats.
	IncludeBlocked bool

	// Strict switches from best-effort to fail-closed generation: steps
	// containing any blocked primitive are excluded from the emitted
	// journey entirely (still counted in stats).
	Strict bool
}

// DefaultOptions is best-effort generation: blocked placeholders are carried
// forward inside the emitted steps.
func DefaultOptions() Options {
	return Options{IncludeBlocked: true}
}

// BlockedStep records one bullet that failed to match.
type BlockedStep struct {
	StepID     string `json:"stepId"`
	SourceText string `json:"sourceText"`
	Reason     string `json:"reason"`
}

// Stats summarizes one normalization pass. Values are derived from the
// returned structures, never recomputed independently, so they are always
// internally consistent with them.
type Stats struct {
	TotalSteps      int `json:"totalSteps"`
	MappedSteps     int `json:"mappedSteps"`
	BlockedSteps    int `json:"blockedSteps"`
	DroppedSteps    int `json:"droppedSteps"` // strict mode only
	TotalActions    int `json:"totalActions"`
	TotalAssertions int `json:"totalAssertions"`
}

// Result is the normalizer's output.
type Result struct {
	Journey      ir.Journey    `json:"journey"`
	BlockedSteps []BlockedStep `json:"blockedSteps"`
	Warnings     []string      `json:"warnings"`
	Stats        Stats         `json:"stats"`
}

// Normalize builds the IR journey from parsed acceptance criteria, falling
// back to procedural steps when no criteria exist. Each bullet is matched
// independently; assertions and actions are partitioned by the expect-prefix
// rule, preserving source order within each list.
func Normalize(parsed *journey.Parsed, opts Options) Result {
	res := Result{
		Journey: ir.Journey{
			ID:                 parsed.Front.ID,
			Title:              parsed.Front.Title,
			Tier:               parsed.Front.Tier,
			Scope:              parsed.Front.Scope,
			Actor:              parsed.Front.Actor,
			Tags:               parsed.Front.Tags,
			ModuleDependencies: parsed.Front.ModuleDependencies,
			Data:               parsed.Front.Data,
			Completion:         parsed.Front.Completion,
			SourcePath:         parsed.SourcePath,
		},
	}

	criteria := parsed.Criteria
	if len(criteria) == 0 {
		if len(parsed.ProceduralSteps) > 0 {
			res.Warnings = append(res.Warnings,
				"no acceptance criteria; using procedural steps as the step source")
			for _, s := range parsed.ProceduralSteps {
				criteria = append(criteria, journey.Criterion{Title: s, Bullets: []string{s}})
			}
		}
	}

	for i, c := range criteria {
		stepID := fmt.Sprintf("S%d", i+1)
		step := ir.Step{
			ID:          stepID,
			Description: c.Title,
			SourceText:  c.Title,
		}

		blockedInStep := false
		for _, bullet := range c.Bullets {
			m, un := patterns.Match(bullet)
			if un != nil {
				blockedInStep = true
				res.BlockedSteps = append(res.BlockedSteps, BlockedStep{
					StepID:     stepID,
					SourceText: un.SourceText,
					Reason:     un.Reason,
				})
				if opts.IncludeBlocked && !opts.Strict {
					step.Actions = append(step.Actions, ir.Blocked(un.SourceText, un.Reason))
				}
				continue
			}
			if m.Primitive.Type.IsAssertion() {
				step.Assertions = append(step.Assertions, m.Primitive)
			} else {
				step.Actions = append(step.Actions, m.Primitive)
			}
		}

		res.Stats.TotalSteps++
		if blockedInStep && opts.Strict {
			continue
		}
		res.Journey.Steps = append(res.Journey.Steps, step)
	}

	// Derived counts come from the structures being returned: an emitted
	// step is a mapped step, a step withheld in strict mode is dropped, and
	// the blocked count is the length of the blocked list. This keeps
	// mapped + dropped == total as an arithmetic identity.
	res.Stats.MappedSteps = len(res.Journey.Steps)
	res.Stats.DroppedSteps = res.Stats.TotalSteps - res.Stats.MappedSteps
	res.Stats.BlockedSteps = len(res.BlockedSteps)
	res.Stats.TotalActions = res.Journey.ActionCount()
	res.Stats.TotalAssertions = res.Journey.AssertionCount()

	if res.Stats.TotalSteps == 0 {
		res.Warnings = append(res.Warnings, "journey has no steps")
	}
	return res
}

// ValidationError describes one reason a journey cannot be generated.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation is the outcome of ValidateForCodeGen.
type Validation struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidateForCodeGen applies the hard gates before any code is emitted:
// a journey must have steps, completion signals, at least one assertion,
// and no more blocked steps than mapped ones.
func ValidateForCodeGen(res Result) Validation {
	var errs []ValidationError
	if len(res.Journey.Steps) == 0 {
		errs = append(errs, ValidationError{
			Code:    "no-steps",
			Message: "journey has no steps to generate",
		})
	}
	if len(res.Journey.Completion) == 0 {
		errs = append(errs, ValidationError{
			Code:    "no-completion",
			Message: "journey declares no completion signals",
		})
	}
	if res.Stats.TotalAssertions == 0 {
		errs = append(errs, ValidationError{
			Code:    "no-assertions",
			Message: "journey has no assertions; a test without assertions proves nothing",
		})
	}
	if res.Stats.BlockedSteps > res.Stats.MappedSteps {
		errs = append(errs, ValidationError{
			Code: "mostly-blocked",
			Message: fmt.Sprintf("blocked steps (%d) exceed mapped steps (%d); clarify the journey text first",
				res.Stats.BlockedSteps, res.Stats.MappedSteps),
		})
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}
