package patterns

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"odyssey/internal/ir"
)

func TestMatchClickWithoutHintIsUnmatched(t *testing.T) {
	m, un := Match("Click the 'Submit' button")
	require.Nil(t, m, "a click without a locator hint must not match")
	require.NotNil(t, un)
	require.Equal(t, "Click the 'Submit' button", un.SourceText)
	require.Contains(t, un.Reason, "hint")
}

func TestMatchClickWithHint(t *testing.T) {
	m, un := Match("Click Submit `(role=button, name=Submit)`")
	require.Nil(t, un)
	require.NotNil(t, m)
	require.Equal(t, ir.PrimClick, m.Primitive.Type)
	require.NotNil(t, m.Primitive.Locator)
	require.Equal(t, ir.StrategyRole, m.Primitive.Locator.Strategy)
	require.Equal(t, "button", m.Primitive.Locator.Value)
	require.Equal(t, "Submit", m.Primitive.Locator.Option("name"))
	require.Equal(t, 1.0, m.Confidence, "explicit hints are authoritative")
}

func TestMatchNavigation(t *testing.T) {
	tests := []struct {
		text string
		typ  ir.PrimitiveType
		url  string
	}{
		{"Navigate to /login", ir.PrimGoto, "/login"},
		{"Go to /settings/profile", ir.PrimGoto, "/settings/profile"},
		{"Open '/checkout'", ir.PrimGoto, "/checkout"},
		{"Wait until the URL becomes /dashboard", ir.PrimWaitForURL, "/dashboard"},
		{"Reload the page", ir.PrimReload, ""},
		{"Go back to the previous page", ir.PrimGoBack, ""},
		{"Go forward", ir.PrimGoForward, ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, un := Match(tt.text)
			require.Nilf(t, un, "unmatched: %+v", un)
			require.Equal(t, tt.typ, m.Primitive.Type)
			require.Equal(t, tt.url, m.Primitive.URL)
		})
	}
}

func TestMatchAssertions(t *testing.T) {
	tests := []struct {
		text string
		typ  ir.PrimitiveType
	}{
		{"The 'Welcome back' banner is visible", ir.PrimExpectVisible},
		{"I see 'Order confirmed'", ir.PrimExpectVisible},
		{"The 'Loading' spinner is no longer visible", ir.PrimExpectNotVisible},
		{"The URL should be /dashboard", ir.PrimExpectURL},
		{"The page title is 'Checkout'", ir.PrimExpectTitle},
		{"A success toast appears", ir.PrimExpectToast},
		{"The save button should be enabled `(role=button, name=Save)`", ir.PrimExpectEnabled},
		{"The terms checkbox should be checked `(role=checkbox, name=Terms)`", ir.PrimExpectChecked},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, un := Match(tt.text)
			require.Nilf(t, un, "unmatched: %+v", un)
			require.Equal(t, tt.typ, m.Primitive.Type)
			require.True(t, m.Primitive.Type.IsAssertion())
		})
	}
}

func TestMatchFillResolvesValues(t *testing.T) {
	m, un := Match("Enter 'jane@example.com' `(label=Email)`")
	require.Nil(t, un)
	require.Equal(t, ir.PrimFill, m.Primitive.Type)
	require.Equal(t, ir.StrategyLabel, m.Primitive.Locator.Strategy)
	require.Equal(t, ir.ValueLiteral, m.Primitive.Value.Kind)
	require.Equal(t, "jane@example.com", m.Primitive.Value.Payload)

	m, un = Match("Enter {runId} `(label=Reference)`")
	require.Nil(t, un)
	require.Equal(t, ir.ValueRunID, m.Primitive.Value.Kind)
	require.Empty(t, m.Primitive.Value.Payload, "runId carries no payload")

	m, un = Match("Type {actor.email} `(label=Email)`")
	require.Nil(t, un)
	require.Equal(t, ir.ValueActor, m.Primitive.Value.Kind)
	require.Equal(t, "email", m.Primitive.Value.Payload)
}

func TestMatchModuleHintIsAuthoritative(t *testing.T) {
	m, un := Match("Sign in first `(module=login)`")
	require.Nil(t, un)
	require.Equal(t, ir.PrimCallModule, m.Primitive.Type)
	require.Equal(t, "login", m.Primitive.Module)
}

func TestMatchSignalBeforeInteraction(t *testing.T) {
	// "dismiss" prose that also names a modal must resolve in the signal
	// section of the registry, never as a click.
	m, un := Match("Close the confirmation modal")
	require.Nil(t, un)
	require.Equal(t, ir.PrimDismissModal, m.Primitive.Type)
}

func TestMatchDeterminism(t *testing.T) {
	inputs := []string{
		"Click Submit `(role=button, name=Submit)`",
		"Navigate to /login",
		"The 'Done' badge is visible",
		"Frobnicate the widget",
		"Press the Enter key",
	}
	for _, text := range inputs {
		m1, u1 := Match(text)
		for i := 0; i < 25; i++ {
			m2, u2 := Match(text)
			if diff := cmp.Diff(m1, m2); diff != "" {
				t.Fatalf("Match(%q) unstable (-first +later):\n%s", text, diff)
			}
			if diff := cmp.Diff(u1, u2); diff != "" {
				t.Fatalf("Match(%q) diagnostic unstable:\n%s", text, diff)
			}
		}
	}
}

func TestMatchUnmatchedKeepsLiteralText(t *testing.T) {
	_, un := Match("Summon the ancient spirits of QA")
	require.NotNil(t, un)
	require.Equal(t, "Summon the ancient spirits of QA", un.SourceText)
	require.NotEmpty(t, un.Reason)
}

func TestExtractHint(t *testing.T) {
	h, stripped := ExtractHint("Click Submit `(role=button, name=Submit, exact=true)`")
	require.NotNil(t, h)
	require.Equal(t, "Click Submit", stripped)
	require.Equal(t, ir.StrategyRole, h.Locator.Strategy)
	require.Equal(t, "button", h.Locator.Value)
	require.Equal(t, "Submit", h.Locator.Option("name"))
	require.Equal(t, "true", h.Locator.Option("exact"))

	h, stripped = ExtractHint("No hint here")
	require.Nil(t, h)
	require.Equal(t, "No hint here", stripped)

	h, _ = ExtractHint("Do the thing `(module=checkout)`")
	require.NotNil(t, h)
	require.Equal(t, "checkout", h.Module)
}
