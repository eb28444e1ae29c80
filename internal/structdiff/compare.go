// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package structdiff compares the machine-readable output of a routing daemon
// against a reference document and renders a unified diff on mismatch.
//
// Structured documents are JSON.  Mappings compare irrespective of key order,
// sequences compare element-wise in order, and scalars compare by value
// without coercing between strings and numbers.  Numbers compare by numeric
// value, exactly, so 1 and 1.0 are equal but 0.1 and 0.10000000000000000001
// are not.  When a document is not structured the
// comparison falls back to line-oriented text, with CRLF line endings,
// trailing whitespace and trailing blank lines ignored.  An empty document
// only matches empty output.
package structdiff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/pmezard/go-difflib/difflib"
)

// Labels of the two sides of every rendered diff.
const (
	CurrentLabel  = "current"
	ExpectedLabel = "expected"
)

// Mode selects how two documents are compared.
type Mode int

const (
	// Auto compares structurally when both sides parse and as text otherwise.
	Auto Mode = iota
	// Structured requires the expected side to parse.  A current side that
	// does not parse is reported as a mismatch.
	Structured
	// Text always compares line by line.
	Text
)

var modeNames = map[Mode]string{
	Auto:       "auto",
	Structured: "structured",
	Text:       "text",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the name of a Mode.  "json" is accepted as an alias of
// "structured".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return Auto, nil
	case "structured", "json":
		return Structured, nil
	case "text":
		return Text, nil
	}
	return Auto, fmt.Errorf("unknown comparison mode %q", s)
}

// Result is the outcome of a single comparison.  Diff is empty iff Equal.
type Result struct {
	Equal bool
	Diff  string
}

// ExpectedError reports that the expected document could not be parsed even
// though structured comparison was required.
type ExpectedError struct {
	Err error
}

func (e *ExpectedError) Error() string {
	return fmt.Sprintf("expected document is not structured: %v", e.Err)
}

func (e *ExpectedError) Unwrap() error { return e.Err }

// Comparator compares current documents against one expected document,
// which is parsed once at construction.
type Comparator struct {
	mode         Mode
	expectedText string
	expected     any
	structured   bool
}

// NewComparator returns a Comparator for the expected document.  It returns
// an *ExpectedError when mode is Structured and expected does not parse.
func NewComparator(expected string, mode Mode) (*Comparator, error) {
	c := &Comparator{mode: mode, expectedText: expected}
	if mode == Text {
		return c, nil
	}
	doc, err := Parse(expected)
	switch {
	case err == nil:
		c.expected, c.structured = doc, true
	case mode == Structured:
		return nil, &ExpectedError{Err: err}
	}
	return c, nil
}

// Mode returns the mode the comparator was built with.
func (c *Comparator) Mode() Mode { return c.mode }

// Compare compares current against the expected document.
func (c *Comparator) Compare(current string) Result {
	if !c.structured {
		return compareText(current, c.expectedText)
	}
	doc, err := Parse(current)
	if err != nil {
		if c.mode != Structured {
			return compareText(current, c.expectedText)
		}
		r := compareText(current, render(c.expected))
		return Result{Diff: fmt.Sprintf("%s output is not structured: %v\n%s", CurrentLabel, err, r.Diff)}
	}
	return compareTrees(doc, c.expected)
}

// Compare compares two documents in Auto mode.
func Compare(current, expected string) Result {
	c, _ := NewComparator(expected, Auto)
	return c.Compare(current)
}

// CompareMode compares two documents in the given mode.
func CompareMode(current, expected string, mode Mode) (Result, error) {
	c, err := NewComparator(expected, mode)
	if err != nil {
		return Result{}, err
	}
	return c.Compare(current), nil
}

func compareTrees(current, expected any) Result {
	var r diffCollector
	if cmp.Equal(current, expected, cmp.Reporter(&r)) {
		return Result{Equal: true}
	}
	var b strings.Builder
	b.WriteString(unifiedDiff(render(current), render(expected)))
	if paths := r.String(); paths != "" {
		fmt.Fprintf(&b, "mismatched paths (%s vs %s):\n%s", CurrentLabel, ExpectedLabel, paths)
	}
	return Result{Diff: b.String()}
}

func compareText(current, expected string) Result {
	cur, exp := normalizeText(current), normalizeText(expected)
	if cur == "" && exp == "" && (current == "") != (expected == "") {
		// Whitespace-only output never matches an empty document.
		return Result{Diff: unifiedDiff(quoteLines(current), quoteLines(expected))}
	}
	if cur == exp {
		return Result{Equal: true}
	}
	return Result{Diff: unifiedDiff(cur, exp)}
}

// quoteLines renders every line of s as a quoted string, so that blank
// lines and whitespace show up in a diff.
func quoteLines(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strconv.Quote(l)
	}
	return strings.Join(lines, "\n") + "\n"
}

// normalizeText applies the text canonicalization policy: CRLF becomes LF,
// trailing whitespace is removed from every line and trailing blank lines
// are dropped.
func normalizeText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func unifiedDiff(current, expected string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.TrimSuffix(current, "\n")),
		B:        difflib.SplitLines(strings.TrimSuffix(expected, "\n")),
		FromFile: CurrentLabel,
		ToFile:   ExpectedLabel,
		Context:  3,
	})
	if err != nil || diff == "" {
		return fmt.Sprintf("--- %s\n+++ %s\n-%q\n+%q\n", CurrentLabel, ExpectedLabel, current, expected)
	}
	return diff
}
