package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"odyssey/internal/ir"
	"odyssey/internal/journey"
)

func threeCriteriaParsed() *journey.Parsed {
	return &journey.Parsed{
		Front: journey.FrontMatter{
			ID:         "signup",
			Title:      "Signup",
			Completion: []string{"welcome screen visible"},
		},
		Criteria: []journey.Criterion{
			{Title: "Open signup", Bullets: []string{
				"Navigate to /signup",
				"The 'Create account' heading is visible",
			}},
			{Title: "Fill the form", Bullets: []string{
				"Enter 'jane@example.com' `(label=Email)`",
				"Click Create `(role=button, name=Create account)`",
			}},
			{Title: "Celebrate", Bullets: []string{
				"Perform the secret handshake", // unmappable
				"A welcome toast appears",
			}},
		},
		SourcePath: "signup.journey.md",
	}
}

func TestNormalizeScenarioCounts(t *testing.T) {
	res := Normalize(threeCriteriaParsed(), DefaultOptions())

	require.Len(t, res.BlockedSteps, 1)
	require.Equal(t, 3, res.Stats.TotalSteps)
	require.Equal(t, 1, res.Stats.BlockedSteps)
	require.Equal(t, 3, res.Stats.MappedSteps)
	require.Equal(t, 0, res.Stats.DroppedSteps)
	require.Equal(t, "S3", res.BlockedSteps[0].StepID)
	require.Equal(t, "Perform the secret handshake", res.BlockedSteps[0].SourceText)
}

func TestNormalizePartitionsActionsAndAssertions(t *testing.T) {
	res := Normalize(threeCriteriaParsed(), DefaultOptions())
	require.Len(t, res.Journey.Steps, 3)

	open := res.Journey.Steps[0]
	require.Len(t, open.Actions, 1)
	require.Equal(t, ir.PrimGoto, open.Actions[0].Type)
	require.Len(t, open.Assertions, 1)
	require.Equal(t, ir.PrimExpectVisible, open.Assertions[0].Type)

	form := res.Journey.Steps[1]
	require.Len(t, form.Actions, 2)
	require.Equal(t, ir.PrimFill, form.Actions[0].Type)
	require.Equal(t, ir.PrimClick, form.Actions[1].Type)

	// Blocked placeholder is carried inside the step, plus the toast.
	last := res.Journey.Steps[2]
	require.True(t, last.HasBlocked())
	require.Len(t, last.Assertions, 1)
	require.Equal(t, ir.PrimExpectToast, last.Assertions[0].Type)
}

func TestNormalizeStrictDropsBlockedSteps(t *testing.T) {
	res := Normalize(threeCriteriaParsed(), Options{IncludeBlocked: true, Strict: true})
	require.Len(t, res.Journey.Steps, 2)
	require.Equal(t, 3, res.Stats.TotalSteps)
	require.Equal(t, 2, res.Stats.MappedSteps)
	require.Equal(t, 1, res.Stats.DroppedSteps)
	// The dropped step is still visible in the blocked list.
	require.Equal(t, 1, res.Stats.BlockedSteps)
	for _, s := range res.Journey.Steps {
		require.False(t, s.HasBlocked())
	}
}

func TestNormalizeBlockedConservation(t *testing.T) {
	for _, opts := range []Options{
		DefaultOptions(),
		{Strict: true},
		{IncludeBlocked: false},
	} {
		res := Normalize(threeCriteriaParsed(), opts)
		require.Equal(t, res.Stats.BlockedSteps, len(res.BlockedSteps))
		require.Equal(t, res.Stats.TotalSteps, res.Stats.MappedSteps+res.Stats.DroppedSteps)
		require.Equal(t, res.Stats.TotalActions, res.Journey.ActionCount())
		require.Equal(t, res.Stats.TotalAssertions, res.Journey.AssertionCount())
	}
}

func TestNormalizeProceduralFallback(t *testing.T) {
	parsed := &journey.Parsed{
		Front: journey.FrontMatter{ID: "p", Title: "P", Completion: []string{"done"}},
		ProceduralSteps: []string{
			"Navigate to /home",
			"The 'Home' heading is visible",
		},
	}
	res := Normalize(parsed, DefaultOptions())
	require.Len(t, res.Journey.Steps, 2)
	require.NotEmpty(t, res.Warnings)
	require.Equal(t, 2, res.Stats.TotalSteps)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	first := Normalize(threeCriteriaParsed(), DefaultOptions())
	for i := 0; i < 5; i++ {
		again := Normalize(threeCriteriaParsed(), DefaultOptions())
		require.Equal(t, first, again)
	}
}

func TestValidateForCodeGen(t *testing.T) {
	good := Normalize(threeCriteriaParsed(), DefaultOptions())
	v := ValidateForCodeGen(good)
	require.Truef(t, v.Valid, "errors: %+v", v.Errors)

	// No completion signals.
	p := threeCriteriaParsed()
	p.Front.Completion = nil
	v = ValidateForCodeGen(Normalize(p, DefaultOptions()))
	require.False(t, v.Valid)
	requireCode(t, v, "no-completion")

	// Empty journey.
	v = ValidateForCodeGen(Normalize(&journey.Parsed{}, DefaultOptions()))
	require.False(t, v.Valid)
	requireCode(t, v, "no-steps")

	// Mostly blocked.
	p = &journey.Parsed{
		Front: journey.FrontMatter{Completion: []string{"x"}},
		Criteria: []journey.Criterion{
			{Title: "a", Bullets: []string{"Wave at the camera"}},
			{Title: "b", Bullets: []string{"Do a backflip"}},
			{Title: "c", Bullets: []string{"A done toast appears"}},
		},
	}
	res := Normalize(p, Options{IncludeBlocked: true, Strict: true})
	v = ValidateForCodeGen(res)
	require.False(t, v.Valid)
	requireCode(t, v, "mostly-blocked")
}

func requireCode(t *testing.T, v Validation, code string) {
	t.Helper()
	for _, e := range v.Errors {
		if e.Code == code {
			return
		}
	}
	t.Fatalf("expected validation error %q, got %+v", code, v.Errors)
}
