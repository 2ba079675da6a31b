// Package render turns a normalized journey into a runnable Go test file.
// Output is deterministic: the same journey and options always produce the
// same bytes, so generated files diff cleanly across compilations.
package render

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"odyssey/internal/ir"
)

// Options controls the emitted file's frame.
type Options struct {
	PackageName      string `yaml:"package_name" json:"package_name"`
	UIImportPath     string `yaml:"ui_import_path" json:"ui_import_path"`
	DefaultTimeoutMs int    `yaml:"default_timeout_ms" json:"default_timeout_ms"`
}

// DefaultOptions returns the standard frame for generated journey tests.
func DefaultOptions() Options {
	return Options{
		PackageName:      "journeys",
		UIImportPath:     "odyssey-tests/ui",
		DefaultTimeoutMs: 5000,
	}
}

var fileTmpl = template.Must(template.New("journeyTest").Parse(`// Code generated by odyssey from {{.Source}}. DO NOT EDIT.
package {{.Package}}

import (
	"testing"

	"{{.ImportPath}}"
)

func {{.FuncName}}(t *testing.T) {
	page := ui.NewPage(t)
	ui.SetTimeout(page, {{.TimeoutMs}})
{{- range .Steps}}

	// {{.Comment}}
{{- range .Lines}}
	{{.}}
{{- end}}
{{- end}}
}
`))

type stepBlock struct {
	Comment string
	Lines   []string
}

type fileData struct {
	Source     string
	Package    string
	ImportPath string
	FuncName   string
	TimeoutMs  int
	Steps      []stepBlock
}

// Render emits the Go test source for one journey.
func Render(j ir.Journey, opts Options) (string, error) {
	if opts.PackageName == "" || opts.UIImportPath == "" || opts.DefaultTimeoutMs <= 0 {
		opts = fill(opts)
	}
	if len(j.Steps) == 0 {
		return "", fmt.Errorf("render %s: journey has no steps", j.ID)
	}

	data := fileData{
		Source:     sourceLabel(j),
		Package:    opts.PackageName,
		ImportPath: opts.UIImportPath,
		FuncName:   FuncName(j),
		TimeoutMs:  opts.DefaultTimeoutMs,
	}
	for _, step := range j.Steps {
		block := stepBlock{Comment: fmt.Sprintf("%s: %s", step.ID, step.Description)}
		for _, p := range append(append([]ir.Primitive{}, step.Actions...), step.Assertions...) {
			lines, err := primitiveLines(p)
			if err != nil {
				return "", fmt.Errorf("render %s step %s: %w", j.ID, step.ID, err)
			}
			block.Lines = append(block.Lines, lines...)
		}
		data.Steps = append(data.Steps, block)
	}

	var b strings.Builder
	if err := fileTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s: %w", j.ID, err)
	}
	return b.String(), nil
}

// FuncName derives the Go test function name from the journey title,
// falling back to the ID.
func FuncName(j ir.Journey) string {
	base := j.Title
	if base == "" {
		base = j.ID
	}
	var b strings.Builder
	b.WriteString("Test")
	upper := true
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || (unicode.IsDigit(r) && b.Len() > len("Test")):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		default:
			upper = true
		}
	}
	if b.Len() == len("Test") {
		b.WriteString("Journey")
	}
	return b.String()
}

func sourceLabel(j ir.Journey) string {
	if j.SourcePath != "" {
		return j.SourcePath
	}
	return j.ID
}

func fill(opts Options) Options {
	d := DefaultOptions()
	if opts.PackageName == "" {
		opts.PackageName = d.PackageName
	}
	if opts.UIImportPath == "" {
		opts.UIImportPath = d.UIImportPath
	}
	if opts.DefaultTimeoutMs <= 0 {
		opts.DefaultTimeoutMs = d.DefaultTimeoutMs
	}
	return opts
}

// primitiveLines renders one primitive. Blocked primitives become a marker
// comment and a skip, so an incomplete journey fails loudly instead of
// passing with silently dropped steps.
func primitiveLines(p ir.Primitive) ([]string, error) {
	switch p.Type {
	case ir.PrimGoto:
		return []string{fmt.Sprintf("ui.Goto(page, %q)", p.URL)}, nil
	case ir.PrimWaitForURL:
		return []string{fmt.Sprintf("ui.WaitURL(page, %q)", p.URL)}, nil
	case ir.PrimReload:
		return []string{"ui.Reload(page)"}, nil
	case ir.PrimGoBack:
		return []string{"ui.GoBack(page)"}, nil
	case ir.PrimGoForward:
		return []string{"ui.GoForward(page)"}, nil

	case ir.PrimClick:
		return locatorCall("ui.Click(page, %s)", p)
	case ir.PrimHover:
		return locatorCall("ui.Hover(page, %s)", p)
	case ir.PrimFocus:
		return locatorCall("ui.Focus(page, %s)", p)
	case ir.PrimClear:
		return locatorCall("ui.Clear(page, %s)", p)
	case ir.PrimCheck:
		return locatorCall("ui.Check(page, %s)", p)
	case ir.PrimUncheck:
		return locatorCall("ui.Uncheck(page, %s)", p)

	case ir.PrimFill:
		return locatorValueCall("ui.Fill(page, %s, %s)", p)
	case ir.PrimSelect:
		return locatorValueCall("ui.Select(page, %s, %s)", p)
	case ir.PrimUpload:
		return locatorValueCall("ui.Upload(page, %s, %s)", p)

	case ir.PrimPress:
		v, err := valueExpr(p)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("ui.PressKey(page, %s)", v)}, nil

	case ir.PrimExpectVisible:
		return locatorCall("ui.ExpectVisible(t, page, %s)", p)
	case ir.PrimExpectNotVisible:
		return locatorCall("ui.ExpectNotVisible(t, page, %s)", p)
	case ir.PrimExpectHidden:
		return locatorCall("ui.ExpectHidden(t, page, %s)", p)
	case ir.PrimExpectChecked:
		return locatorCall("ui.ExpectChecked(t, page, %s)", p)
	case ir.PrimExpectEnabled:
		return locatorCall("ui.ExpectEnabled(t, page, %s)", p)
	case ir.PrimExpectDisabled:
		return locatorCall("ui.ExpectDisabled(t, page, %s)", p)

	case ir.PrimExpectText:
		return locatorValueCall("ui.ExpectText(t, page, %s, %s)", p)
	case ir.PrimExpectValue:
		return locatorValueCall("ui.ExpectValue(t, page, %s, %s)", p)
	case ir.PrimExpectContainsText:
		return locatorValueCall("ui.ExpectContainsText(t, page, %s, %s)", p)

	case ir.PrimExpectURL:
		return []string{fmt.Sprintf("ui.ExpectURL(t, page, %q)", p.URL)}, nil
	case ir.PrimExpectTitle:
		v, err := valueExpr(p)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("ui.ExpectTitle(t, page, %s)", v)}, nil
	case ir.PrimExpectCount:
		loc, err := locatorExpr(p)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("ui.ExpectCount(t, page, %s, %d)", loc, p.Count)}, nil

	case ir.PrimExpectToast:
		if p.Value == nil {
			return []string{"ui.ExpectToast(t, page)"}, nil
		}
		v, err := valueExpr(p)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("ui.ExpectToast(t, page, %s)", v)}, nil
	case ir.PrimDismissModal:
		return []string{"ui.DismissModal(page)"}, nil
	case ir.PrimAcceptAlert:
		return []string{"ui.AcceptAlert(page)"}, nil
	case ir.PrimDismissAlert:
		return []string{"ui.DismissAlert(page)"}, nil

	case ir.PrimCallModule:
		return []string{fmt.Sprintf("ui.CallModule(t, page, %q)", p.Module)}, nil

	case ir.PrimBlocked:
		return []string{
			fmt.Sprintf("// BLOCKED: %s", strings.ReplaceAll(p.SourceText, "\n", " ")),
			fmt.Sprintf("t.Skip(%q)", "blocked step: "+p.Reason),
		}, nil
	}
	return nil, fmt.Errorf("unknown primitive type %q", p.Type)
}

func locatorCall(format string, p ir.Primitive) ([]string, error) {
	loc, err := locatorExpr(p)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf(format, loc)}, nil
}

func locatorValueCall(format string, p ir.Primitive) ([]string, error) {
	loc, err := locatorExpr(p)
	if err != nil {
		return nil, err
	}
	v, err := valueExpr(p)
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf(format, loc, v)}, nil
}

func locatorExpr(p ir.Primitive) (string, error) {
	if p.Locator == nil {
		return "", fmt.Errorf("%s: missing locator", p.Type)
	}
	l := *p.Locator
	switch l.Strategy {
	case ir.StrategyRole:
		if name := l.Option("name"); name != "" {
			return fmt.Sprintf("ui.Role(%q, %q)", l.Value, name), nil
		}
		return fmt.Sprintf("ui.Role(%q)", l.Value), nil
	case ir.StrategyLabel:
		return fmt.Sprintf("ui.Label(%q)", l.Value), nil
	case ir.StrategyPlaceholder:
		return fmt.Sprintf("ui.Placeholder(%q)", l.Value), nil
	case ir.StrategyText:
		return fmt.Sprintf("ui.Text(%q)", l.Value), nil
	case ir.StrategyTestID:
		return fmt.Sprintf("ui.TestID(%q)", l.Value), nil
	case ir.StrategyCSS:
		return fmt.Sprintf("ui.CSS(%q)", l.Value), nil
	}
	return "", fmt.Errorf("%s: unknown locator strategy %q", p.Type, l.Strategy)
}

func valueExpr(p ir.Primitive) (string, error) {
	if p.Value == nil {
		return "", fmt.Errorf("%s: missing value", p.Type)
	}
	v := *p.Value
	switch v.Kind {
	case ir.ValueLiteral:
		return fmt.Sprintf("%q", v.Payload), nil
	case ir.ValueRunID:
		return "ui.RunID()", nil
	case ir.ValueActor:
		return fmt.Sprintf("ui.Actor(%q)", v.Payload), nil
	case ir.ValueTestData:
		return fmt.Sprintf("ui.TestData(%q)", v.Payload), nil
	case ir.ValueGenerated:
		return fmt.Sprintf("ui.Generated(%q)", v.Payload), nil
	}
	return "", fmt.Errorf("%s: unknown value kind %q", p.Type, v.Kind)
}
