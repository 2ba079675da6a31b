// Package report renders pipeline results as markdown. Reports are plain
// strings; the CLI decides whether to print them raw or through a terminal
// renderer.
package report

import (
	"fmt"
	"sort"
	"strings"

	"odyssey/internal/classify"
	"odyssey/internal/confidence"
	"odyssey/internal/healing"
	"odyssey/internal/store"
)

// Classification renders per-test failure classifications with a category
// rollup. Tests are ordered by name so the report is diffable run to run.
func Classification(results map[string][]classify.Classification) string {
	var b strings.Builder
	b.WriteString("# Failure classification\n\n")

	byCategory := map[classify.Category]int{}
	total := 0
	for _, cs := range results {
		for _, c := range cs {
			byCategory[c.Category]++
			total++
		}
	}
	fmt.Fprintf(&b, "%d failure(s) across %d test(s).\n\n", total, len(results))

	b.WriteString("| Category | Count | Healable |\n|---|---|---|\n")
	for _, cat := range classify.AllCategories() {
		if byCategory[cat] == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", cat, byCategory[cat], yesNo(!cat.Unhealable()))
	}
	b.WriteString("\n")

	tests := make([]string, 0, len(results))
	for t := range results {
		tests = append(tests, t)
	}
	sort.Strings(tests)
	for _, t := range tests {
		fmt.Fprintf(&b, "## %s\n\n", t)
		for _, c := range results[t] {
			fmt.Fprintf(&b, "- **%s** (confidence %.2f, fingerprint `%s`)\n", c.Category, c.Confidence, c.Fingerprint)
			if c.Selector != "" {
				fmt.Fprintf(&b, "  - selector: `%s`\n", c.Selector)
			}
			if c.Location != "" {
				fmt.Fprintf(&b, "  - location: %s\n", c.Location)
			}
			if c.ExpectedValue != "" || c.ActualValue != "" {
				fmt.Fprintf(&b, "  - expected %q, got %q\n", c.ExpectedValue, c.ActualValue)
			}
			fmt.Fprintf(&b, "  - next step: %s\n", healing.Recommend(c.Category))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Stability renders recurring failure identities and fix effectiveness.
func Stability(recurring []store.History, stats []store.FixStats) string {
	var b strings.Builder
	b.WriteString("# Stability\n\n")

	b.WriteString("## Recurring failures\n\n")
	if len(recurring) == 0 {
		b.WriteString("No failure has recurred.\n\n")
	} else {
		b.WriteString("| Fingerprint | Category | Test | Count | Last seen |\n|---|---|---|---|---|\n")
		for _, h := range recurring {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %d | %s |\n",
				h.Fingerprint, h.Category, h.TestID, h.Count, h.LastSeen.Format("2006-01-02 15:04"))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Fix effectiveness\n\n")
	if len(stats) == 0 {
		b.WriteString("No healing attempts recorded.\n")
	} else {
		b.WriteString("| Fix | Attempts | Applied | Applied % |\n|---|---|---|---|\n")
		for _, fs := range stats {
			pct := 0.0
			if fs.Attempts > 0 {
				pct = 100 * float64(fs.Applied) / float64(fs.Attempts)
			}
			fmt.Fprintf(&b, "| %s | %d | %d | %.0f%% |\n", fs.Fix, fs.Attempts, fs.Applied, pct)
		}
	}
	return b.String()
}

// Confidence renders one scored file's verdict and dimensions.
func Confidence(file string, s confidence.Score) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Confidence: %s\n\n", file)
	fmt.Fprintf(&b, "**Verdict: %s** — overall %.2f (accept at %.2f)\n\n", s.Verdict, s.Overall, s.Threshold)

	b.WriteString("| Dimension | Score | Weight | Detail |\n|---|---|---|---|\n")
	for _, d := range s.Dimensions {
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %s |\n", d.Dimension, d.Score, d.Weight, d.Detail)
	}
	b.WriteString("\n")

	if len(s.BlockedDimensions) > 0 {
		b.WriteString("Blocked dimensions: ")
		for i, d := range s.BlockedDimensions {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "**%s**", d)
		}
		b.WriteString("\n\n")
	}

	if s.Agreement != nil {
		fmt.Fprintf(&b, "## Agreement (%d voters)\n\n", s.Agreement.Voters)
		fmt.Fprintf(&b, "Consensus candidate: #%d\n\n", s.Agreement.ConsensusIndex)
		for _, d := range s.Agreement.Disagreements {
			fmt.Fprintf(&b, "- `%s`: %d/%d voters\n", d.Selector, d.Votes, d.Voters)
		}
	}
	return b.String()
}

// Healing renders a batch of healing loop outcomes.
func Healing(results []healing.LoopResult) string {
	sorted := append([]healing.LoopResult(nil), results...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TestFile < sorted[j].TestFile })

	healed := 0
	for _, r := range sorted {
		if r.Success {
			healed++
		}
	}

	var b strings.Builder
	b.WriteString("# Healing\n\n")
	fmt.Fprintf(&b, "%d/%d file(s) healed.\n\n", healed, len(sorted))
	b.WriteString("| File | State | Attempts | Fix | Errors over time |\n|---|---|---|---|---|\n")
	for _, r := range sorted {
		fix := "-"
		if r.AppliedFix != nil {
			fix = string(*r.AppliedFix)
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			r.TestFile, r.FinalState, r.Attempts, fix, intTrend(r.ErrorCountHistory))
	}
	for _, r := range sorted {
		if r.Recommendation != "" {
			fmt.Fprintf(&b, "\n- **%s**: %s\n", r.TestFile, r.Recommendation)
		}
	}
	return b.String()
}

func intTrend(xs []int) string {
	if len(xs) == 0 {
		return "-"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, " / ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
