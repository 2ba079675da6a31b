package render

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"odyssey/internal/ir"
)

func loc(strategy ir.LocatorStrategy, value string, opts map[string]string) *ir.LocatorSpec {
	return &ir.LocatorSpec{Strategy: strategy, Value: value, Options: opts}
}

func val(v ir.ValueSpec) *ir.ValueSpec { return &v }

func checkoutJourney() ir.Journey {
	return ir.Journey{
		ID:         "j-05-checkout",
		Title:      "Checkout happy path",
		SourcePath: "docs/journeys/checkout.md",
		Steps: []ir.Step{
			{
				ID:          "S1",
				Description: "Open the cart",
				Actions: []ir.Primitive{
					{Type: ir.PrimGoto, URL: "/cart"},
				},
				Assertions: []ir.Primitive{
					{Type: ir.PrimExpectURL, URL: "/cart"},
				},
			},
			{
				ID:          "S2",
				Description: "Submit the order",
				Actions: []ir.Primitive{
					{Type: ir.PrimFill, Locator: loc(ir.StrategyLabel, "Email", nil), Value: val(ir.Literal("jane@example.com"))},
					{Type: ir.PrimClick, Locator: loc(ir.StrategyRole, "button", map[string]string{"name": "Submit"})},
				},
				Assertions: []ir.Primitive{
					{Type: ir.PrimExpectVisible, Locator: loc(ir.StrategyText, "Order confirmed", nil)},
				},
			},
		},
	}
}

func TestRenderEmitsDialect(t *testing.T) {
	src, err := Render(checkoutJourney(), DefaultOptions())
	require.NoError(t, err)

	for _, want := range []string{
		"// Code generated by odyssey from docs/journeys/checkout.md. DO NOT EDIT.",
		"package journeys",
		`"odyssey-tests/ui"`,
		"func TestCheckoutHappyPath(t *testing.T) {",
		"page := ui.NewPage(t)",
		"ui.SetTimeout(page, 5000)",
		"// S1: Open the cart",
		`ui.Goto(page, "/cart")`,
		`ui.ExpectURL(t, page, "/cart")`,
		`ui.Fill(page, ui.Label("Email"), "jane@example.com")`,
		`ui.Click(page, ui.Role("button", "Submit"))`,
		`ui.ExpectVisible(t, page, ui.Text("Order confirmed"))`,
	} {
		require.Contains(t, src, want)
	}
}

func TestRenderedSourceParses(t *testing.T) {
	src, err := Render(checkoutJourney(), DefaultOptions())
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), "checkout_test.go", src, 0)
	require.NoError(t, err, "generated source must be valid Go:\n%s", src)
}

func TestRenderActionsBeforeAssertionsWithinStep(t *testing.T) {
	src, err := Render(checkoutJourney(), DefaultOptions())
	require.NoError(t, err)
	fill := strings.Index(src, "ui.Fill(")
	expect := strings.Index(src, "ui.ExpectVisible(")
	require.Greater(t, expect, fill)
}

func TestRenderBlockedStepSkips(t *testing.T) {
	j := checkoutJourney()
	j.Steps = append(j.Steps, ir.Step{
		ID:          "S3",
		Description: "Do the impossible",
		Actions:     []ir.Primitive{ir.Blocked("Perform the secret handshake", "no pattern matched")},
	})
	src, err := Render(j, DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, src, "// BLOCKED: Perform the secret handshake")
	require.Contains(t, src, `t.Skip("blocked step: no pattern matched")`)
	_, err = parser.ParseFile(token.NewFileSet(), "blocked_test.go", src, 0)
	require.NoError(t, err)
}

func TestRenderNeverEmitsSleep(t *testing.T) {
	src, err := Render(checkoutJourney(), DefaultOptions())
	require.NoError(t, err)
	require.NotContains(t, src, "ui.Sleep")
}

func TestRenderDeterministic(t *testing.T) {
	first, err := Render(checkoutJourney(), DefaultOptions())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Render(checkoutJourney(), DefaultOptions())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestRenderValueKinds(t *testing.T) {
	j := checkoutJourney()
	j.Steps = []ir.Step{{
		ID:          "S1",
		Description: "Fill per-run identity",
		Actions: []ir.Primitive{
			{Type: ir.PrimFill, Locator: loc(ir.StrategyLabel, "Username", nil), Value: val(ir.RunID())},
			{Type: ir.PrimFill, Locator: loc(ir.StrategyLabel, "Email", nil), Value: val(ir.ValueSpec{Kind: ir.ValueActor, Payload: "email"})},
			{Type: ir.PrimFill, Locator: loc(ir.StrategyLabel, "Coupon", nil), Value: val(ir.ValueSpec{Kind: ir.ValueTestData, Payload: "coupon"})},
		},
	}}
	src, err := Render(j, DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, src, `ui.Fill(page, ui.Label("Username"), ui.RunID())`)
	require.Contains(t, src, `ui.Fill(page, ui.Label("Email"), ui.Actor("email"))`)
	require.Contains(t, src, `ui.Fill(page, ui.Label("Coupon"), ui.TestData("coupon"))`)
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(ir.Journey{ID: "empty"}, DefaultOptions())
	require.Error(t, err, "a journey with no steps is unrenderable")

	j := checkoutJourney()
	j.Steps[0].Actions = []ir.Primitive{{Type: ir.PrimClick}} // no locator
	_, err = Render(j, DefaultOptions())
	require.ErrorContains(t, err, "missing locator")

	j = checkoutJourney()
	j.Steps[0].Actions = []ir.Primitive{{Type: "teleport"}}
	_, err = Render(j, DefaultOptions())
	require.ErrorContains(t, err, "unknown primitive")
}

func TestFuncNameDerivation(t *testing.T) {
	cases := []struct {
		title, id, want string
	}{
		{"Checkout happy path", "j-05", "TestCheckoutHappyPath"},
		{"", "j-05-checkout", "TestJ05Checkout"},
		{"login & 2FA setup", "x", "TestLogin2FASetup"},
		{"!!!", "???", "TestJourney"},
	}
	for _, c := range cases {
		got := FuncName(ir.Journey{Title: c.title, ID: c.id})
		require.Equalf(t, c.want, got, "title=%q id=%q", c.title, c.id)
	}
}

func TestRenderFillsZeroOptions(t *testing.T) {
	src, err := Render(checkoutJourney(), Options{})
	require.NoError(t, err)
	require.Contains(t, src, "package journeys")
	require.Contains(t, src, "ui.SetTimeout(page, 5000)")
}
