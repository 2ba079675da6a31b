// Package confidence scores generated test code across four independent
// dimensions and gates it with an accept/review/reject verdict. A single
// catastrophic dimension always dominates the weighted overall: code that
// fails the block floor anywhere is rejected no matter how good the rest
// looks.
package confidence

import "sort"

// Verdict is the gate decision.
type Verdict string

const (
	VerdictAccept Verdict = "ACCEPT"
	VerdictReview Verdict = "REVIEW"
	VerdictReject Verdict = "REJECT"
)

// Dimension names one scoring axis.
type Dimension string

const (
	DimensionSyntax    Dimension = "syntax"
	DimensionPattern   Dimension = "pattern"
	DimensionSelector  Dimension = "selector"
	DimensionAgreement Dimension = "agreement"
)

// AllDimensions returns the four axes in weighting order.
func AllDimensions() []Dimension {
	return []Dimension{DimensionSyntax, DimensionPattern, DimensionSelector, DimensionAgreement}
}

// DimensionScore is one axis result.
type DimensionScore struct {
	Dimension Dimension `json:"dimension"`
	Score     float64   `json:"score"`
	Weight    float64   `json:"weight"`
	Detail    string    `json:"detail,omitempty"`
}

// Options tunes thresholds and weights. Weights are normalized before use,
// so they always sum to 1.0 by construction regardless of what the caller
// passes.
type Options struct {
	Weights          map[Dimension]float64
	OverallThreshold float64 // below this (and above every floor): REVIEW
	BlockOnAnyBelow  float64 // any dimension below this: REJECT
	SyntaxFloor      float64 // syntax-specific hard floor
}

// DefaultOptions returns the fixed default weighting and thresholds.
func DefaultOptions() Options {
	return Options{
		Weights: map[Dimension]float64{
			DimensionSyntax:    0.25,
			DimensionPattern:   0.25,
			DimensionSelector:  0.30,
			DimensionAgreement: 0.20,
		},
		OverallThreshold: 0.7,
		BlockOnAnyBelow:  0.4,
		SyntaxFloor:      0.9,
	}
}

// Context carries the inputs beyond the code itself.
type Context struct {
	// Candidates are independently generated alternatives of the same
	// journey, used by the agreement dimension. The scored code itself is
	// always treated as one voter.
	Candidates []string

	// LearnedPatterns names pattern sources that came from a glossary or
	// learned store rather than the built-in registry; calls matching them
	// earn the novelty reward.
	LearnedPatterns []string
}

// Score is the combined result.
type Score struct {
	Overall           float64          `json:"overall"`
	Dimensions        []DimensionScore `json:"dimensions"`
	Threshold         float64          `json:"threshold"`
	Verdict           Verdict          `json:"verdict"`
	BlockedDimensions []Dimension      `json:"blockedDimensions,omitempty"`
	Agreement         *AgreementReport `json:"agreement,omitempty"`
}

// Evaluate scores generated code. It is pure: no I/O, no global state, and
// identical inputs always produce identical scores.
func Evaluate(code string, sctx Context, opts Options) Score {
	weights := normalizeWeights(opts.Weights)

	syntax := scoreSyntax(code)
	pattern := scorePattern(code, sctx)
	selector := scoreSelector(code)
	agreement, agreementReport := scoreAgreement(code, sctx)

	dims := []DimensionScore{
		{Dimension: DimensionSyntax, Score: syntax.score, Weight: weights[DimensionSyntax], Detail: syntax.detail},
		{Dimension: DimensionPattern, Score: pattern.score, Weight: weights[DimensionPattern], Detail: pattern.detail},
		{Dimension: DimensionSelector, Score: selector.score, Weight: weights[DimensionSelector], Detail: selector.detail},
		{Dimension: DimensionAgreement, Score: agreement.score, Weight: weights[DimensionAgreement], Detail: agreement.detail},
	}

	overall := 0.0
	for _, d := range dims {
		overall += d.Score * d.Weight
	}

	var blocked []Dimension
	for _, d := range dims {
		floor := opts.BlockOnAnyBelow
		if d.Dimension == DimensionSyntax && opts.SyntaxFloor > floor {
			floor = opts.SyntaxFloor
		}
		if d.Score < floor {
			blocked = append(blocked, d.Dimension)
		}
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i] < blocked[j] })

	verdict := VerdictAccept
	switch {
	case len(blocked) > 0:
		verdict = VerdictReject
	case overall < opts.OverallThreshold:
		verdict = VerdictReview
	}

	return Score{
		Overall:           overall,
		Dimensions:        dims,
		Threshold:         opts.OverallThreshold,
		Verdict:           verdict,
		BlockedDimensions: blocked,
		Agreement:         agreementReport,
	}
}

// normalizeWeights scales weights to sum to 1.0, falling back to defaults
// for an empty map.
func normalizeWeights(w map[Dimension]float64) map[Dimension]float64 {
	if len(w) == 0 {
		w = DefaultOptions().Weights
	}
	sum := 0.0
	for _, d := range AllDimensions() {
		sum += w[d]
	}
	out := make(map[Dimension]float64, 4)
	if sum <= 0 {
		for d, v := range DefaultOptions().Weights {
			out[d] = v
		}
		return out
	}
	for _, d := range AllDimensions() {
		out[d] = w[d] / sum
	}
	return out
}
