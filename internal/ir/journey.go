package ir

// Step is one normalized journey step. Actions and assertions are kept in
// separate ordered lists; source order is preserved within each list.
type Step struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Actions     []Primitive `json:"actions"`
	Assertions  []Primitive `json:"assertions"`
	SourceText  string      `json:"sourceText"`
	Notes       string      `json:"notes,omitempty"`
}

// HasBlocked reports whether any primitive in the step is blocked.
func (s Step) HasBlocked() bool {
	for _, p := range s.Actions {
		if p.IsBlocked() {
			return true
		}
	}
	for _, p := range s.Assertions {
		if p.IsBlocked() {
			return true
		}
	}
	return false
}

// Journey is the normalized, closed-variant model of one user flow,
// ready (subject to validation) for code generation.
type Journey struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Tier               string            `json:"tier,omitempty"`
	Scope              string            `json:"scope,omitempty"`
	Actor              string            `json:"actor,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
	ModuleDependencies []string          `json:"moduleDependencies,omitempty"`
	Data               map[string]string `json:"data,omitempty"`
	Completion         []string          `json:"completion,omitempty"`
	Steps              []Step            `json:"steps"`
	SourcePath         string            `json:"sourcePath"`
}

// AssertionCount counts assertions across all steps.
func (j Journey) AssertionCount() int {
	n := 0
	for _, s := range j.Steps {
		n += len(s.Assertions)
	}
	return n
}

// ActionCount counts actions across all steps.
func (j Journey) ActionCount() int {
	n := 0
	for _, s := range j.Steps {
		n += len(s.Actions)
	}
	return n
}
