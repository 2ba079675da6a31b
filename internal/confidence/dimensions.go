package confidence

import (
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"regexp"
	"strings"

	"odyssey/internal/ir"
)

type dimResult struct {
	score  float64
	detail string
}

// scoreSyntax parses the candidate as a Go source file. A clean parse is
// 1.0; each parse error costs 0.2. The hard floor in the verdict logic
// means anything that fails to parse is effectively unshippable.
func scoreSyntax(code string) dimResult {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "generated_test.go", code, parser.AllErrors)
	if err == nil {
		return dimResult{score: 1.0, detail: "parses cleanly"}
	}
	n := 1
	if list, ok := err.(scanner.ErrorList); ok {
		n = len(list)
	}
	score := 1.0 - 0.2*float64(n)
	if score < 0 {
		score = 0
	}
	return dimResult{score: score, detail: fmt.Sprintf("%d parse error(s): %v", n, err)}
}

// knownCalls is the closed surface of the generated test dialect. A call
// outside it is either a hallucination or a learned pattern the caller has
// vouched for.
var knownCalls = map[string]bool{
	"NewPage": true, "SetTimeout": true, "RunID": true,
	"Goto": true, "Reload": true, "GoBack": true, "GoForward": true, "WaitURL": true,
	"Click": true, "Fill": true, "Select": true, "Check": true, "Uncheck": true,
	"Hover": true, "Focus": true, "Clear": true, "Upload": true, "PressKey": true,
	"DismissModal": true, "AcceptAlert": true, "DismissAlert": true,
	"ExpectVisible": true, "ExpectHidden": true, "ExpectURL": true, "ExpectTitle": true,
	"ExpectCount": true, "ExpectChecked": true, "ExpectEnabled": true, "ExpectDisabled": true,
	"ExpectValue": true, "ExpectContainsText": true, "ExpectText": true, "ExpectNotVisible": true,
	"ExpectToast": true, "CallModule": true,
	"Actor": true, "TestData": true, "Generated": true,
	"CSS": true, "TestID": true, "Role": true, "Label": true, "Text": true, "Placeholder": true,
}

// riskyCalls are escape hatches that defeat the whole point of structured
// automation helpers.
var riskyCalls = map[string]bool{
	"Eval": true, "MustEval": true, "Sleep": true, "Exec": true,
}

var uiCallRe = regexp.MustCompile(`\bui\.([A-Z]\w*)\(`)

// scorePattern measures how much of the code speaks the recognized dialect.
// Calls matching caller-vouched learned patterns earn a small novelty
// reward; escape-hatch calls are penalized per use.
func scorePattern(code string, sctx Context) dimResult {
	learned := make(map[string]bool, len(sctx.LearnedPatterns))
	for _, p := range sctx.LearnedPatterns {
		learned[p] = true
	}

	total, known, novel, risky := 0, 0, 0, 0
	for _, m := range uiCallRe.FindAllStringSubmatch(code, -1) {
		name := m[1]
		total++
		switch {
		case riskyCalls[name]:
			risky++
		case knownCalls[name]:
			known++
		case learned[name]:
			known++
			novel++
		}
	}
	if total == 0 {
		return dimResult{score: 0.5, detail: "no recognizable automation calls"}
	}

	score := float64(known) / float64(total)
	bonus := 0.05 * float64(novel)
	if bonus > 0.1 {
		bonus = 0.1
	}
	score += bonus
	score -= 0.15 * float64(risky)
	score = clamp01(score)
	return dimResult{
		score:  score,
		detail: fmt.Sprintf("%d/%d known calls, %d learned, %d risky", known, total, novel, risky),
	}
}

// stabilityByStrategy converts the fixed locator priority into a per-use
// stability score. Role-based targeting is the gold standard; raw CSS is a
// liability.
var stabilityByStrategy = map[ir.LocatorStrategy]float64{
	ir.StrategyRole:        1.0,
	ir.StrategyLabel:       0.9,
	ir.StrategyPlaceholder: 0.8,
	ir.StrategyText:        0.7,
	ir.StrategyTestID:      0.6,
	ir.StrategyCSS:         0.3,
}

var locatorCallRe = regexp.MustCompile(`\bui\.(Role|Label|Placeholder|Text|TestID|CSS)\(("(?:[^"\\]|\\.)*")`)

// scoreSelector averages the stability of every locator used in the code.
// CSS selectors that lean on structure (xpath, nth-child, deep descent) are
// scored below plain CSS.
func scoreSelector(code string) dimResult {
	matches := locatorCallRe.FindAllStringSubmatch(code, -1)
	if len(matches) == 0 {
		return dimResult{score: 0.75, detail: "no locators used"}
	}

	sum := 0.0
	for _, m := range matches {
		strategy := callToStrategy(m[1])
		s := stabilityByStrategy[strategy]
		if strategy == ir.StrategyCSS && fragileCSS(m[2]) {
			s = 0.1
		}
		sum += s
	}
	score := sum / float64(len(matches))
	return dimResult{score: score, detail: fmt.Sprintf("%d locator(s), mean stability %.2f", len(matches), score)}
}

func callToStrategy(name string) ir.LocatorStrategy {
	switch name {
	case "Role":
		return ir.StrategyRole
	case "Label":
		return ir.StrategyLabel
	case "Placeholder":
		return ir.StrategyPlaceholder
	case "Text":
		return ir.StrategyText
	case "TestID":
		return ir.StrategyTestID
	default:
		return ir.StrategyCSS
	}
}

// fragileCSS flags structural selectors that break on any layout change.
func fragileCSS(quoted string) bool {
	return strings.Contains(quoted, "//") ||
		strings.Contains(quoted, "nth-child") ||
		strings.Contains(quoted, "nth-of-type") ||
		strings.Count(quoted, ">") >= 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
