package confidence

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const goodTest = `package journeys

import (
	"testing"

	"odyssey-tests/ui"
)

func TestCheckoutHappyPath(t *testing.T) {
	page := ui.NewPage(t)
	ui.SetTimeout(page, 5000)
	ui.Goto(page, "/cart")
	ui.WaitURL(page, "/cart")
	ui.Click(page, ui.Role("button", "Submit"))
	ui.Fill(page, ui.Label("Email"), "jane@example.com")
	ui.ExpectVisible(t, page, ui.Text("Order confirmed"))
}
`

const fragileTest = `package journeys

import (
	"testing"

	"odyssey-tests/ui"
)

func TestCheckoutFragile(t *testing.T) {
	page := ui.NewPage(t)
	ui.Goto(page, "/cart")
	ui.Click(page, ui.CSS("div > ul > li:nth-child(3)"))
	ui.Fill(page, ui.CSS("form > div > input"), "x")
	ui.ExpectVisible(t, page, ui.CSS("#ok"))
}
`

func dim(s Score, d Dimension) DimensionScore {
	for _, ds := range s.Dimensions {
		if ds.Dimension == d {
			return ds
		}
	}
	return DimensionScore{}
}

func TestCleanCodeAccepted(t *testing.T) {
	s := Evaluate(goodTest, Context{}, DefaultOptions())
	require.Equal(t, VerdictAccept, s.Verdict)
	require.Empty(t, s.BlockedDimensions)
	require.Equal(t, 1.0, dim(s, DimensionSyntax).Score)
	require.Equal(t, 1.0, dim(s, DimensionPattern).Score)
	require.Greater(t, s.Overall, 0.7)
}

func TestBrokenSyntaxRejectedByHardFloor(t *testing.T) {
	broken := strings.TrimSuffix(strings.TrimSpace(goodTest), "}")
	s := Evaluate(broken, Context{}, DefaultOptions())
	require.Equal(t, VerdictReject, s.Verdict)
	require.Contains(t, s.BlockedDimensions, DimensionSyntax)
	require.Less(t, dim(s, DimensionSyntax).Score, 0.9)
}

// A weak dimension must force rejection even when re-weighting pushes the
// overall score past the accept threshold.
func TestBlockFloorDominatesWeightedOverall(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights = map[Dimension]float64{
		DimensionSyntax:    0.45,
		DimensionPattern:   0.45,
		DimensionSelector:  0.05,
		DimensionAgreement: 0.05,
	}
	s := Evaluate(fragileTest, Context{}, opts)
	require.Greater(t, s.Overall, opts.OverallThreshold, "test setup: overall must clear the accept bar")
	require.Equal(t, VerdictReject, s.Verdict)
	require.Equal(t, []Dimension{DimensionSelector}, s.BlockedDimensions)
	require.Less(t, dim(s, DimensionSelector).Score, opts.BlockOnAnyBelow)
}

func TestModerateCodeGetsReview(t *testing.T) {
	src := `package journeys

import (
	"testing"

	"odyssey-tests/ui"
)

func TestProfileUpdate(t *testing.T) {
	page := ui.NewPage(t)
	ui.Goto(page, "/profile")
	ui.Frobnicate(page)
	ui.Whatsit(page)
	ui.Zorch(page)
	ui.Blorp(page)
	ui.Quux(page)
	ui.Click(page, ui.CSS("#save"))
	ui.ExpectVisible(t, page, ui.Text("Saved"))
}
`
	s := Evaluate(src, Context{}, DefaultOptions())
	require.Equal(t, VerdictReview, s.Verdict)
	require.Empty(t, s.BlockedDimensions)
	require.Less(t, s.Overall, 0.7)
}

func TestRiskyCallsPenalizePattern(t *testing.T) {
	risky := strings.Replace(goodTest,
		"\tui.Goto(page, \"/cart\")\n",
		"\tui.Goto(page, \"/cart\")\n\tui.Sleep(page, 2000)\n\tui.Eval(page, \"window.scrollTo(0,0)\")\n", 1)
	base := Evaluate(goodTest, Context{}, DefaultOptions())
	penalized := Evaluate(risky, Context{}, DefaultOptions())
	require.Less(t, dim(penalized, DimensionPattern).Score, dim(base, DimensionPattern).Score)
}

func TestLearnedPatternsEarnNoveltyReward(t *testing.T) {
	src := strings.Replace(goodTest,
		"\tui.WaitURL(page, \"/cart\")\n",
		"\tui.WaitURL(page, \"/cart\")\n\tui.DragCartItem(page, 2)\n", 1)

	unknown := Evaluate(src, Context{}, DefaultOptions())
	vouched := Evaluate(src, Context{LearnedPatterns: []string{"DragCartItem"}}, DefaultOptions())
	require.Greater(t, dim(vouched, DimensionPattern).Score, dim(unknown, DimensionPattern).Score)
	require.LessOrEqual(t, dim(vouched, DimensionPattern).Score, 1.0, "novelty bonus is clamped")
}

func TestSelectorStabilityFollowsPriorityOrder(t *testing.T) {
	tmpl := `package journeys

import (
	"testing"

	"odyssey-tests/ui"
)

func TestOne(t *testing.T) {
	page := ui.NewPage(t)
	ui.Click(page, LOCATOR)
}
`
	scores := map[string]float64{}
	for name, loc := range map[string]string{
		"role":   `ui.Role("button", "Save")`,
		"label":  `ui.Label("Save")`,
		"text":   `ui.Text("Save")`,
		"testid": `ui.TestID("save")`,
		"css":    `ui.CSS(".save")`,
	} {
		s := Evaluate(strings.Replace(tmpl, "LOCATOR", loc, 1), Context{}, DefaultOptions())
		scores[name] = dim(s, DimensionSelector).Score
	}
	require.Greater(t, scores["role"], scores["label"])
	require.Greater(t, scores["label"], scores["text"])
	require.Greater(t, scores["text"], scores["testid"])
	require.Greater(t, scores["testid"], scores["css"])
}

func TestSingleSampleAgreementIsNeutral(t *testing.T) {
	s := Evaluate(goodTest, Context{}, DefaultOptions())
	require.Equal(t, 0.7, dim(s, DimensionAgreement).Score)
	require.Nil(t, s.Agreement)
}

func TestIdenticalCandidatesAgreeFully(t *testing.T) {
	s := Evaluate(goodTest, Context{Candidates: []string{goodTest, goodTest}}, DefaultOptions())
	require.Equal(t, 1.0, dim(s, DimensionAgreement).Score)
	require.NotNil(t, s.Agreement)
	require.Equal(t, 3, s.Agreement.Voters)
	require.Equal(t, 0, s.Agreement.ConsensusIndex)
	require.Empty(t, s.Agreement.Disagreements)
}

func TestDivergentCandidateProducesDisagreements(t *testing.T) {
	variant := strings.Replace(goodTest,
		`ui.Role("button", "Submit")`, `ui.CSS(".submit-btn")`, 1)
	s := Evaluate(goodTest, Context{Candidates: []string{variant}}, DefaultOptions())
	require.NotNil(t, s.Agreement)
	require.Less(t, dim(s, DimensionAgreement).Score, 1.0)

	var split []string
	for _, d := range s.Agreement.Disagreements {
		require.Less(t, d.Votes, d.Voters)
		split = append(split, d.Selector)
	}
	require.Contains(t, split, `Role:"button"`)
	require.Contains(t, split, `CSS:".submit-btn"`)
}

func TestWeightsNormalizeToOne(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights = map[Dimension]float64{
		DimensionSyntax:    1,
		DimensionPattern:   1,
		DimensionSelector:  1,
		DimensionAgreement: 1,
	}
	s := Evaluate(goodTest, Context{}, opts)
	sum := 0.0
	for _, d := range s.Dimensions {
		require.InDelta(t, 0.25, d.Weight, 1e-9)
		sum += d.Weight
	}
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestPatternNeutralWithoutAutomationCalls(t *testing.T) {
	src := `package journeys

func add(a, b int) int { return a + b }
`
	s := Evaluate(src, Context{}, DefaultOptions())
	require.Equal(t, 0.5, dim(s, DimensionPattern).Score)
	require.Equal(t, 0.75, dim(s, DimensionSelector).Score)
}

func TestEvaluateDeterministic(t *testing.T) {
	sctx := Context{Candidates: []string{fragileTest, goodTest}}
	first := Evaluate(goodTest, sctx, DefaultOptions())
	for i := 0; i < 20; i++ {
		again := Evaluate(goodTest, sctx, DefaultOptions())
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("score changed between runs (-first +again):\n%s", diff)
		}
	}
}
