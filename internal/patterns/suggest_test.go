package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestFixProposesRoleHint(t *testing.T) {
	s := SuggestFix("Click the 'Submit' button")
	require.NotNil(t, s)
	require.Contains(t, s.FixedText, "role=button")
	require.Contains(t, s.FixedText, "name=Submit")
	require.Greater(t, s.Confidence, 0.8)

	// The suggested rewrite must itself match.
	m, un := Match(s.FixedText)
	require.Nilf(t, un, "suggested text still unmatched: %+v", un)
	require.NotNil(t, m)
}

func TestSuggestFixTextboxGetsLabelHint(t *testing.T) {
	s := SuggestFix("Fill in the 'Email' field")
	require.NotNil(t, s)
	require.Contains(t, s.FixedText, "label=Email")
	require.Greater(t, s.Confidence, 0.8)
}

func TestSuggestFixCapitalizedGuessHasLowerConfidence(t *testing.T) {
	s := SuggestFix("Click the Save button")
	require.NotNil(t, s)
	require.Contains(t, s.FixedText, "role=button")
	require.LessOrEqual(t, s.Confidence, 0.6)
}

func TestSuggestFixNilWhenAlreadyMatched(t *testing.T) {
	require.Nil(t, SuggestFix("Navigate to /login"))
	require.Nil(t, SuggestFix("Click Submit `(role=button, name=Submit)`"))
}

func TestSuggestFixNilWithoutUITarget(t *testing.T) {
	require.Nil(t, SuggestFix("Summon the ancient spirits of QA"))
}

func TestRegistryOrderIsStable(t *testing.T) {
	names := EntryNames()
	require.NotEmpty(t, names)
	// Signals and navigation must precede every interaction entry; this is
	// the documented precedence and it must never be re-derived from
	// confidence values.
	lastSignal, firstInteraction := -1, len(names)
	for i, e := range Registry() {
		switch e.Category {
		case CategorySignal, CategoryNavigation:
			lastSignal = i
		case CategoryInteraction:
			if i < firstInteraction {
				firstInteraction = i
			}
		}
	}
	require.Less(t, lastSignal, firstInteraction)

	again := EntryNames()
	require.Equal(t, names, again)
}

func TestRoleLexiconCoversCommonTokens(t *testing.T) {
	for token, want := range map[string]string{
		"btn": "button", "modal": "dialog", "dropdown": "combobox",
	} {
		got, ok := RoleForToken(token)
		require.True(t, ok, token)
		require.Equal(t, want, got)
	}
	_, ok := RoleForToken("flux-capacitor")
	require.False(t, ok)
}

func TestSuggestedHintRoundTripsThroughMatcher(t *testing.T) {
	inputs := []string{
		"Click the 'Confirm' button",
		"Click the 'Details' link",
	}
	for _, in := range inputs {
		s := SuggestFix(in)
		require.NotNil(t, s, in)
		m, un := Match(s.FixedText)
		require.Nilf(t, un, "%s -> %s unmatched", in, s.FixedText)
		require.False(t, strings.HasPrefix(string(m.Primitive.Type), "expect"))
	}
}
