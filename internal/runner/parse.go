package runner

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// testEvent mirrors the `go test -json` event stream (cmd/test2json).
type testEvent struct {
	Action  string `json:"Action"`
	Package string `json:"Package"`
	Test    string `json:"Test"`
	Output  string `json:"Output"`
}

// Outcome is the digest of one test run's JSON stream.
type Outcome struct {
	Failed      bool
	FailedTests []string
	// Errors holds one cleaned message per failed test (or per failed
	// package when the failure happened outside any test, e.g. a build
	// error), in a stable order.
	Errors []string
}

// Parse digests a `go test -json` stream. Lines that are not JSON (raw
// toolchain output) are collected as package-level output.
func Parse(out []byte) Outcome {
	type key struct{ pkg, test string }
	buffers := map[key][]string{}
	var failed []key

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		var ev testEvent
		if err := json.Unmarshal(line, &ev); err != nil || ev.Action == "" {
			buffers[key{}] = append(buffers[key{}], string(line))
			continue
		}
		k := key{ev.Package, ev.Test}
		switch ev.Action {
		case "output":
			if l := cleanLine(ev.Output); l != "" {
				buffers[k] = append(buffers[k], l)
			}
		case "fail":
			failed = append(failed, k)
		}
	}

	var o Outcome
	if len(failed) == 0 {
		return o
	}
	o.Failed = true

	// Per-test failures first; package-level entries only matter when no
	// test inside them failed (build errors, init panics).
	testsFailedIn := map[string]bool{}
	for _, k := range failed {
		if k.test != "" {
			testsFailedIn[k.pkg] = true
		}
	}
	sort.Slice(failed, func(i, j int) bool {
		if failed[i].pkg != failed[j].pkg {
			return failed[i].pkg < failed[j].pkg
		}
		return failed[i].test < failed[j].test
	})
	for _, k := range failed {
		if k.test == "" {
			if testsFailedIn[k.pkg] {
				continue
			}
			msg := strings.Join(append(buffers[key{k.pkg, ""}], buffers[key{}]...), "\n")
			if msg != "" {
				o.Errors = append(o.Errors, msg)
				o.FailedTests = append(o.FailedTests, k.pkg)
			}
			continue
		}
		o.FailedTests = append(o.FailedTests, k.test)
		msg := strings.Join(buffers[k], "\n")
		if msg == "" {
			// A failure can emit nothing beyond framing (t.Fail with no
			// message); keep Errors parallel to FailedTests regardless.
			msg = "(no output)"
		}
		o.Errors = append(o.Errors, msg)
	}
	return o
}

// cleanLine strips go test framing so only the failure text itself reaches
// the classifier.
func cleanLine(s string) string {
	s = strings.TrimRight(s, "\n")
	trimmed := strings.TrimLeft(s, " \t")
	switch {
	case strings.HasPrefix(trimmed, "=== "),
		strings.HasPrefix(trimmed, "--- "),
		trimmed == "FAIL",
		trimmed == "PASS",
		strings.HasPrefix(trimmed, "FAIL\t"),
		strings.HasPrefix(trimmed, "ok  \t"),
		strings.HasPrefix(trimmed, "exit status "):
		return ""
	}
	return trimmed
}
