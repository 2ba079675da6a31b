package browser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"odyssey/internal/ir"
)

// Candidate is one locator mined from a live DOM, with the trait that
// produced it.
type Candidate struct {
	Locator ir.LocatorSpec `json:"locator"`
	Source  string         `json:"source"`
}

// MineCandidates parses a serialized DOM and returns replacement locator
// candidates for the elements matching failingSelector, best strategy
// first. An empty selector mines every interactive element instead. No
// matching element yields an empty list, not an error; only an unparseable
// document fails.
func MineCandidates(doc, failingSelector string) ([]Candidate, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse dom: %w", err)
	}

	tok, err := parseSelector(failingSelector)
	if err != nil {
		return nil, err
	}

	labels := labelTexts(root)
	var out []Candidate
	walk(root, func(n *html.Node) {
		if tok == nil {
			if !interactive(n) {
				return
			}
		} else if !tok.matches(n) {
			return
		}
		out = append(out, candidatesFor(n, labels)...)
	})
	return dedupeAndRank(out), nil
}

// selToken is one compound CSS selector: tag#id.class[attr=val]. Pseudo
// classes are stripped; they narrow a match but never widen it, so ignoring
// them only over-collects candidates.
type selToken struct {
	tag     string
	id      string
	classes []string
	attrs   map[string]string
}

var selPartRe = regexp.MustCompile(`^([a-zA-Z][\w-]*)?((?:[#.:\[][^#.\[:]*)*)$`)
var selPieceRe = regexp.MustCompile(`([#.:])([\w-]+)(?:\([^)]*\))?|\[([\w-]+)(?:=["']?([^"'\]]*)["']?)?\]`)

func parseSelector(sel string) (*selToken, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, nil
	}
	// Only the last compound selector identifies the target element.
	fields := strings.FieldsFunc(sel, func(r rune) bool { return r == ' ' || r == '>' || r == '+' || r == '~' })
	if len(fields) == 0 {
		return nil, nil
	}
	last := fields[len(fields)-1]

	m := selPartRe.FindStringSubmatch(last)
	if m == nil {
		return nil, fmt.Errorf("unsupported selector %q", sel)
	}
	tok := &selToken{tag: strings.ToLower(m[1]), attrs: map[string]string{}}
	for _, p := range selPieceRe.FindAllStringSubmatch(m[2], -1) {
		switch p[1] {
		case "#":
			tok.id = p[2]
		case ".":
			tok.classes = append(tok.classes, p[2])
		case ":":
			// pseudo class, ignored
		default:
			tok.attrs[p[3]] = p[4]
		}
	}
	return tok, nil
}

func (t *selToken) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if t.tag != "" && t.tag != n.Data {
		return false
	}
	if t.id != "" && attr(n, "id") != t.id {
		return false
	}
	if len(t.classes) > 0 {
		have := map[string]bool{}
		for _, c := range strings.Fields(attr(n, "class")) {
			have[c] = true
		}
		for _, c := range t.classes {
			if !have[c] {
				return false
			}
		}
	}
	for k, v := range t.attrs {
		got := attr(n, k)
		if v == "" {
			if !hasAttr(n, k) {
				return false
			}
		} else if got != v {
			return false
		}
	}
	return true
}

// candidatesFor mines every locator trait one element offers.
func candidatesFor(n *html.Node, labels map[string]string) []Candidate {
	var out []Candidate

	if tid := attr(n, "data-testid"); tid != "" {
		out = append(out, Candidate{
			Locator: ir.LocatorSpec{Strategy: ir.StrategyTestID, Value: tid},
			Source:  "data-testid attribute",
		})
	}

	name := accessibleName(n, labels)
	if role := roleOf(n); role != "" && name != "" {
		out = append(out, Candidate{
			Locator: ir.LocatorSpec{Strategy: ir.StrategyRole, Value: role, Options: map[string]string{"name": name}},
			Source:  "role with accessible name",
		})
	}

	if lbl := attr(n, "aria-label"); lbl != "" {
		out = append(out, Candidate{
			Locator: ir.LocatorSpec{Strategy: ir.StrategyLabel, Value: lbl},
			Source:  "aria-label attribute",
		})
	} else if id := attr(n, "id"); id != "" {
		if lbl := labels[id]; lbl != "" {
			out = append(out, Candidate{
				Locator: ir.LocatorSpec{Strategy: ir.StrategyLabel, Value: lbl},
				Source:  "associated label element",
			})
		}
	}

	if ph := attr(n, "placeholder"); ph != "" {
		out = append(out, Candidate{
			Locator: ir.LocatorSpec{Strategy: ir.StrategyPlaceholder, Value: ph},
			Source:  "placeholder attribute",
		})
	}

	if n.Data != "input" && n.Data != "textarea" && n.Data != "select" {
		if txt := ownText(n); txt != "" && len(txt) <= 40 {
			out = append(out, Candidate{
				Locator: ir.LocatorSpec{Strategy: ir.StrategyText, Value: txt},
				Source:  "visible text",
			})
		}
	}

	if id := attr(n, "id"); id != "" {
		out = append(out, Candidate{
			Locator: ir.LocatorSpec{Strategy: ir.StrategyCSS, Value: "#" + id},
			Source:  "id attribute",
		})
	}
	return out
}

// roleOf resolves the explicit or implicit ARIA role.
func roleOf(n *html.Node) string {
	if r := attr(n, "role"); r != "" {
		return r
	}
	switch n.Data {
	case "button":
		return "button"
	case "a":
		if hasAttr(n, "href") {
			return "link"
		}
	case "select":
		return "combobox"
	case "textarea":
		return "textbox"
	case "dialog":
		return "dialog"
	case "nav":
		return "navigation"
	case "table":
		return "table"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "input":
		switch attr(n, "type") {
		case "button", "submit", "reset":
			return "button"
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "search":
			return "searchbox"
		case "hidden":
			return ""
		default:
			return "textbox"
		}
	}
	return ""
}

func accessibleName(n *html.Node, labels map[string]string) string {
	if lbl := attr(n, "aria-label"); lbl != "" {
		return lbl
	}
	if id := attr(n, "id"); id != "" {
		if lbl := labels[id]; lbl != "" {
			return lbl
		}
	}
	if txt := ownText(n); len(txt) <= 40 {
		return txt
	}
	return ""
}

func interactive(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "button", "a", "input", "select", "textarea":
		return true
	}
	return hasAttr(n, "role")
}

// labelTexts maps element IDs to their <label for=...> text.
func labelTexts(root *html.Node) map[string]string {
	out := map[string]string{}
	walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "label" {
			if target := attr(n, "for"); target != "" {
				if txt := ownText(n); txt != "" {
					out[target] = txt
				}
			}
		}
	})
	return out
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

var spaceRe = regexp.MustCompile(`\s+`)

func ownText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(spaceRe.ReplaceAllString(b.String(), " "))
}

// dedupeAndRank removes duplicates and sorts by the fixed strategy
// priority, tie-breaking on value for stable output.
func dedupeAndRank(cands []Candidate) []Candidate {
	seen := map[string]bool{}
	var out []Candidate
	for _, c := range cands {
		key := string(c.Locator.Strategy) + "\x00" + c.Locator.Value + "\x00" + c.Locator.Option("name")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Locator.Strategy.Rank(), out[j].Locator.Strategy.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Locator.Value < out[j].Locator.Value
	})
	return out
}
