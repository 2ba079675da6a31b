package journey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleJourney = `---
id: checkout-happy-path
title: Checkout happy path
tier: critical
scope: web
actor: shopper
tags: [checkout, payments]
moduleDependencies: [login]
data:
  coupon: SAVE10
completion:
  - order confirmation visible
---

# Checkout happy path

Some framing prose the parser must ignore.

## Acceptance Criteria

### Reach the cart
- Navigate to /cart
- The 'Your cart' heading is visible

### Pay
- Click Pay now ` + "`(role=button, name=Pay now)`" + `
- A success toast appears

## Steps

1. Navigate to /cart
2. Click Pay now
`

func TestParseFrontMatter(t *testing.T) {
	p, err := Parse([]byte(sampleJourney), "checkout.journey.md")
	require.NoError(t, err)
	require.Equal(t, "checkout-happy-path", p.Front.ID)
	require.Equal(t, "Checkout happy path", p.Front.Title)
	require.Equal(t, "critical", p.Front.Tier)
	require.Equal(t, "shopper", p.Front.Actor)
	require.Equal(t, []string{"checkout", "payments"}, p.Front.Tags)
	require.Equal(t, []string{"login"}, p.Front.ModuleDependencies)
	require.Equal(t, "SAVE10", p.Front.Data["coupon"])
	require.Equal(t, []string{"order confirmation visible"}, p.Front.Completion)
	require.Equal(t, "checkout.journey.md", p.SourcePath)
}

func TestParseCriteria(t *testing.T) {
	p, err := Parse([]byte(sampleJourney), "checkout.journey.md")
	require.NoError(t, err)
	require.Len(t, p.Criteria, 2)
	require.Equal(t, "Reach the cart", p.Criteria[0].Title)
	require.Equal(t, []string{
		"Navigate to /cart",
		"The 'Your cart' heading is visible",
	}, p.Criteria[0].Bullets)
	require.Equal(t, "Pay", p.Criteria[1].Title)
	require.Len(t, p.Criteria[1].Bullets, 2)
}

func TestParseProceduralSteps(t *testing.T) {
	p, err := Parse([]byte(sampleJourney), "x")
	require.NoError(t, err)
	require.Equal(t, []string{"Navigate to /cart", "Click Pay now"}, p.ProceduralSteps)
}

func TestParseFlatChecklistBecomesPerBulletCriteria(t *testing.T) {
	doc := `---
id: flat
title: Flat
---
## Acceptance Criteria
- [ ] Navigate to /home
- [x] The 'Home' heading is visible
`
	p, err := Parse([]byte(doc), "flat.md")
	require.NoError(t, err)
	require.Len(t, p.Criteria, 2)
	require.Equal(t, "Navigate to /home", p.Criteria[0].Title)
	require.Equal(t, []string{"Navigate to /home"}, p.Criteria[0].Bullets)
}

func TestParseWithoutFrontMatter(t *testing.T) {
	p, err := Parse([]byte("## Acceptance Criteria\n- Navigate to /a\n"), "nofront.md")
	require.NoError(t, err)
	require.Empty(t, p.Front.ID)
	require.Len(t, p.Criteria, 1)
}

func TestParseUnterminatedFrontMatter(t *testing.T) {
	_, err := Parse([]byte("---\nid: broken\n"), "broken.md")
	require.Error(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "j.journey.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleJourney), 0o644))
	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, p.SourcePath)
	require.Len(t, p.Criteria, 2)
}
