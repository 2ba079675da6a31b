package confidence

import (
	"fmt"
	"sort"
)

// Disagreement records a locator that some but not all voters use.
type Disagreement struct {
	Selector string `json:"selector"`
	Votes    int    `json:"votes"`
	Voters   int    `json:"voters"`
}

// AgreementReport explains the cross-candidate consensus.
type AgreementReport struct {
	Score          float64        `json:"score"`
	Voters         int            `json:"voters"`
	ConsensusIndex int            `json:"consensusIndex"` // 0 is the scored code itself
	Disagreements  []Disagreement `json:"disagreements,omitempty"`
}

// scoreAgreement compares the code against independently generated
// candidates. With fewer than two voters there is nothing to compare, so
// the dimension stays neutral and contributes no signal either way.
func scoreAgreement(code string, sctx Context) (dimResult, *AgreementReport) {
	voters := append([]string{code}, sctx.Candidates...)
	if len(voters) < 2 {
		return dimResult{score: 0.7, detail: "single sample; agreement is neutral"}, nil
	}

	flows := make([][]string, len(voters))
	sels := make([]map[string]bool, len(voters))
	for i, v := range voters {
		flows[i] = callFlow(v)
		sels[i] = selectorSet(v)
	}

	// Average pairwise similarity over all voter pairs. Flow order carries
	// more weight than the selector vocabulary: two tests that do the same
	// things in the same order agree even if they target elements slightly
	// differently.
	pairSum, pairs := 0.0, 0
	perVoter := make([]float64, len(voters))
	for i := 0; i < len(voters); i++ {
		for j := i + 1; j < len(voters); j++ {
			sim := 0.6*sequenceSimilarity(flows[i], flows[j]) + 0.4*jaccard(sels[i], sels[j])
			pairSum += sim
			pairs++
			perVoter[i] += sim
			perVoter[j] += sim
		}
	}
	score := pairSum / float64(pairs)

	consensus := 0
	for i, s := range perVoter {
		if s > perVoter[consensus] {
			consensus = i
		}
	}

	report := &AgreementReport{
		Score:          score,
		Voters:         len(voters),
		ConsensusIndex: consensus,
		Disagreements:  disagreements(sels),
	}
	return dimResult{
		score:  score,
		detail: fmt.Sprintf("%d voters, mean pairwise agreement %.2f", len(voters), score),
	}, report
}

// callFlow extracts the ordered sequence of dialect call names.
func callFlow(code string) []string {
	var flow []string
	for _, m := range uiCallRe.FindAllStringSubmatch(code, -1) {
		flow = append(flow, m[1])
	}
	return flow
}

// selectorSet extracts "Strategy:value" locator keys.
func selectorSet(code string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range locatorCallRe.FindAllStringSubmatch(code, -1) {
		set[m[1]+":"+m[2]] = true
	}
	return set
}

// sequenceSimilarity is LCS length over the longer sequence's length.
func sequenceSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 1.0
	}
	return float64(lcs(a, b)) / float64(longer)
}

func lcs(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// disagreements lists selectors that split the vote, sorted for stable
// output.
func disagreements(sels []map[string]bool) []Disagreement {
	votes := make(map[string]int)
	for _, s := range sels {
		for k := range s {
			votes[k]++
		}
	}
	var out []Disagreement
	for k, v := range votes {
		if v < len(sels) {
			out = append(out, Disagreement{Selector: k, Votes: v, Voters: len(sels)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].Selector < out[j].Selector
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
