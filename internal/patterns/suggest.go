package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Suggestion proposes a rewritten step with an explicit locator hint.
type Suggestion struct {
	FixedText  string  `json:"fixedText"`
	Confidence float64 `json:"confidence"`
}

// roleLexicon maps UI nouns (and common CSS class/id tokens) to ARIA roles.
// Shared with the selector fix strategy, which infers roles from selector
// tokens with the same table.
var roleLexicon = map[string]string{
	"button":   "button",
	"btn":      "button",
	"submit":   "button",
	"link":     "link",
	"anchor":   "link",
	"nav":      "link",
	"checkbox": "checkbox",
	"radio":    "radio",
	"tab":      "tab",
	"menu":     "menu",
	"menuitem": "menuitem",
	"option":   "option",
	"heading":  "heading",
	"header":   "heading",
	"title":    "heading",
	"dialog":   "dialog",
	"modal":    "dialog",
	"dropdown": "combobox",
	"combobox": "combobox",
	"select":   "combobox",
	"listbox":  "listbox",
	"list":     "list",
	"row":      "row",
	"table":    "table",
	"switch":   "switch",
	"toggle":   "switch",
	"slider":   "slider",
	"search":   "searchbox",
}

// textboxNouns are targets better served by a label hint than a role hint.
var textboxNouns = map[string]bool{
	"field": true, "input": true, "textbox": true, "box": true, "textarea": true,
}

// lexiconTokens holds the lexicon keys sorted longest-first then
// alphabetically, with precompiled word-boundary patterns, so the noun scan
// is deterministic regardless of map iteration order.
var lexiconTokens = func() []struct {
	token string
	re    *regexp.Regexp
} {
	keys := make([]string, 0, len(roleLexicon))
	for k := range roleLexicon {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	out := make([]struct {
		token string
		re    *regexp.Regexp
	}, 0, len(keys))
	for _, k := range keys {
		out = append(out, struct {
			token string
			re    *regexp.Regexp
		}{k, regexp.MustCompile(`\b` + k + `\b`)})
	}
	return out
}()

// RoleForToken looks a lowercased token up in the UI-role lexicon.
func RoleForToken(token string) (string, bool) {
	r, ok := roleLexicon[strings.ToLower(token)]
	return r, ok
}

var capitalizedRe = regexp.MustCompile(`\b([A-Z][\w]*(?:\s+[A-Z][\w]*)*)\b`)

// SuggestFix proposes the missing hint syntax for a step that failed to
// match. It returns nil when the step already matches or when no plausible
// target can be inferred. The suggestion confidence reflects how the target
// name was found: a quoted name next to a known UI noun is trusted, a
// capitalization guess is not.
func SuggestFix(text string) *Suggestion {
	if m, _ := Match(text); m != nil {
		return nil
	}

	stripped := normalizeStep(text)
	lower := strings.ToLower(stripped)

	noun := ""
	role := ""
	for _, lt := range lexiconTokens {
		if lt.re.MatchString(lower) {
			noun, role = lt.token, roleLexicon[lt.token]
			break
		}
	}
	isTextbox := false
	for token := range textboxNouns {
		if strings.Contains(lower, token) {
			isTextbox = true
			break
		}
	}
	if noun == "" && !isTextbox {
		return nil
	}

	name, quoted := firstQuoted(stripped)
	if !quoted {
		// Fall back to the first capitalized phrase that is not the verb
		// at the start of the sentence.
		for _, m := range capitalizedRe.FindAllStringSubmatchIndex(stripped, -1) {
			if m[0] == 0 {
				continue
			}
			name = stripped[m[2]:m[3]]
			break
		}
	}

	var hint string
	conf := 0.0
	switch {
	case isTextbox && name != "":
		hint = fmt.Sprintf("`(label=%s)`", name)
		conf = 0.75
		if quoted {
			conf = 0.85
		}
	case role != "" && name != "":
		hint = fmt.Sprintf("`(role=%s, name=%s)`", role, name)
		conf = 0.6
		if quoted {
			conf = 0.85
		}
	case role != "":
		hint = fmt.Sprintf("`(role=%s)`", role)
		conf = 0.5
	default:
		return nil
	}

	return &Suggestion{
		FixedText:  strings.TrimSpace(stripped) + " " + hint,
		Confidence: conf,
	}
}
