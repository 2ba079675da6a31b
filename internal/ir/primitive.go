package ir

import "strings"

// PrimitiveType enumerates every automation command the pipeline can emit.
// The set is closed: the matcher, renderer, and scorer all switch over it
// exhaustively, and the blocked escape hatch is the only way an unknown
// step survives normalization.
type PrimitiveType string

const (
	// Navigation
	PrimGoto       PrimitiveType = "goto"
	PrimWaitForURL PrimitiveType = "waitForURL"
	PrimReload     PrimitiveType = "reload"
	PrimGoBack     PrimitiveType = "goBack"
	PrimGoForward  PrimitiveType = "goForward"

	// Interaction
	PrimClick   PrimitiveType = "click"
	PrimFill    PrimitiveType = "fill"
	PrimSelect  PrimitiveType = "select"
	PrimCheck   PrimitiveType = "check"
	PrimUncheck PrimitiveType = "uncheck"
	PrimPress   PrimitiveType = "press"
	PrimHover   PrimitiveType = "hover"
	PrimFocus   PrimitiveType = "focus"
	PrimClear   PrimitiveType = "clear"
	PrimUpload  PrimitiveType = "upload"

	// Assertions. The "expect" prefix is load-bearing: it is how actions
	// and assertions are partitioned, so every assertion type must carry it
	// and no action type may.
	PrimExpectVisible      PrimitiveType = "expectVisible"
	PrimExpectNotVisible   PrimitiveType = "expectNotVisible"
	PrimExpectHidden       PrimitiveType = "expectHidden"
	PrimExpectText         PrimitiveType = "expectText"
	PrimExpectValue        PrimitiveType = "expectValue"
	PrimExpectChecked      PrimitiveType = "expectChecked"
	PrimExpectEnabled      PrimitiveType = "expectEnabled"
	PrimExpectDisabled     PrimitiveType = "expectDisabled"
	PrimExpectURL          PrimitiveType = "expectURL"
	PrimExpectTitle        PrimitiveType = "expectTitle"
	PrimExpectCount        PrimitiveType = "expectCount"
	PrimExpectContainsText PrimitiveType = "expectContainsText"

	// Signals
	PrimExpectToast  PrimitiveType = "expectToast"
	PrimDismissModal PrimitiveType = "dismissModal"
	PrimAcceptAlert  PrimitiveType = "acceptAlert"
	PrimDismissAlert PrimitiveType = "dismissAlert"

	// Composition
	PrimCallModule PrimitiveType = "callModule"

	// Escape hatch for steps no pattern matched. Carries the literal source
	// text so nothing is ever silently dropped.
	PrimBlocked PrimitiveType = "blocked"
)

// AllPrimitiveTypes returns the closed set in declaration order.
func AllPrimitiveTypes() []PrimitiveType {
	return []PrimitiveType{
		PrimGoto, PrimWaitForURL, PrimReload, PrimGoBack, PrimGoForward,
		PrimClick, PrimFill, PrimSelect, PrimCheck, PrimUncheck,
		PrimPress, PrimHover, PrimFocus, PrimClear, PrimUpload,
		PrimExpectVisible, PrimExpectNotVisible, PrimExpectHidden,
		PrimExpectText, PrimExpectValue, PrimExpectChecked,
		PrimExpectEnabled, PrimExpectDisabled, PrimExpectURL,
		PrimExpectTitle, PrimExpectCount, PrimExpectContainsText,
		PrimExpectToast, PrimDismissModal, PrimAcceptAlert, PrimDismissAlert,
		PrimCallModule,
		PrimBlocked,
	}
}

// IsAssertion reports whether t is an assertion. The split is total: a
// primitive is an assertion iff its name starts with "expect".
func (t PrimitiveType) IsAssertion() bool {
	return strings.HasPrefix(string(t), "expect")
}

// Valid reports whether t belongs to the closed set.
func (t PrimitiveType) Valid() bool {
	for _, known := range AllPrimitiveTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Primitive is one canonical automation command. Which fields are populated
// depends on Type; every type other than blocked carries enough to render
// deterministically with no further lookups.
type Primitive struct {
	Type PrimitiveType `json:"type"`

	// Target element, for interaction and element assertions.
	Locator *LocatorSpec `json:"locator,omitempty"`

	// Value for fill/select/press/expectText/expectValue and friends.
	Value *ValueSpec `json:"value,omitempty"`

	// URL or URL pattern for goto/waitForURL/expectURL.
	URL string `json:"url,omitempty"`

	// Expected count for expectCount.
	Count int `json:"count,omitempty"`

	// Module name for callModule.
	Module string `json:"module,omitempty"`

	// Blocked-only fields.
	Reason     string `json:"reason,omitempty"`
	SourceText string `json:"sourceText,omitempty"`
}

// Blocked builds the escape-hatch primitive for an unmatchable step.
func Blocked(sourceText, reason string) Primitive {
	return Primitive{Type: PrimBlocked, SourceText: sourceText, Reason: reason}
}

// IsBlocked reports whether p is the blocked placeholder.
func (p Primitive) IsBlocked() bool { return p.Type == PrimBlocked }
