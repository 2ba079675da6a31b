package healing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"odyssey/internal/classify"
)

func TestForbiddenFixesCannotBeAllowed(t *testing.T) {
	for _, f := range ForbiddenFixes() {
		_, err := NewConfig(true, 3, []FixType{f}, 5000)
		require.Errorf(t, err, "forbidden fix %q must be rejected at construction", f)
	}
	// Mixed in with legal fixes it is still rejected.
	_, err := NewConfig(true, 3, []FixType{FixSelectorRefine, FixAddSleep}, 5000)
	require.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	_, err := NewConfig(true, 0, AllowableFixes(), 5000)
	require.Error(t, err, "zero attempts makes the loop meaningless")

	_, err = NewConfig(true, 3, []FixType{"reticulate-splines"}, 5000)
	require.Error(t, err, "unknown fix types are config errors")

	cfg, err := NewConfig(true, 3, AllowableFixes(), 5000)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	for _, f := range DefaultConfig().AllowedFixes {
		require.False(t, f.Forbidden())
	}
}

func TestEvaluateUnhealableCategories(t *testing.T) {
	cfg := DefaultConfig()
	for _, cat := range []classify.Category{classify.CategoryAuth, classify.CategoryEnv, classify.CategoryUnknown} {
		ev := Evaluate(classify.Classification{Category: cat}, cfg)
		require.False(t, ev.CanHeal, string(cat))
		require.Empty(t, ev.ApplicableFixes)
		require.NotEmpty(t, ev.Reason)
	}
}

func TestEvaluateOrdersByPriority(t *testing.T) {
	ev := Evaluate(classify.Classification{Category: classify.CategorySelector}, DefaultConfig())
	require.True(t, ev.CanHeal)
	require.Equal(t, []FixType{FixSelectorRefine, FixTimingAdjust}, ev.ApplicableFixes)
}

func TestEvaluateRespectsAllowedFixes(t *testing.T) {
	cfg, err := NewConfig(true, 3, []FixType{FixTimingAdjust}, 5000)
	require.NoError(t, err)
	ev := Evaluate(classify.Classification{Category: classify.CategorySelector}, cfg)
	require.Equal(t, []FixType{FixTimingAdjust}, ev.ApplicableFixes)
}

func TestEvaluateDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	ev := Evaluate(classify.Classification{Category: classify.CategorySelector}, cfg)
	require.False(t, ev.CanHeal)
}

// NextFix must never return a forbidden fix for any category, any attempted
// set, and any config that passes validation.
func TestNextFixNeverForbidden(t *testing.T) {
	cfg := DefaultConfig()
	for _, cat := range classify.AllCategories() {
		var attempted []FixType
		for {
			fix, ok := NextFix(classify.Classification{Category: cat}, attempted, cfg)
			if !ok {
				break
			}
			require.Falsef(t, fix.Forbidden(), "category %s produced forbidden fix %s", cat, fix)
			attempted = append(attempted, fix)
			require.Less(t, len(attempted), 10, "NextFix must exhaust")
		}
	}
}

func TestNextFixSkipsAttempted(t *testing.T) {
	c := classify.Classification{Category: classify.CategorySelector}
	cfg := DefaultConfig()

	first, ok := NextFix(c, nil, cfg)
	require.True(t, ok)
	require.Equal(t, FixSelectorRefine, first)

	second, ok := NextFix(c, []FixType{first}, cfg)
	require.True(t, ok)
	require.Equal(t, FixTimingAdjust, second)

	_, ok = NextFix(c, []FixType{first, second}, cfg)
	require.False(t, ok)
}

func TestAllowedAndForbiddenAreDisjointByConstruction(t *testing.T) {
	for _, a := range AllowableFixes() {
		require.False(t, a.Forbidden())
	}
	for _, r := range DefaultRules() {
		require.False(t, r.Fix.Forbidden(), "rule table must not reference forbidden fixes")
	}
}
