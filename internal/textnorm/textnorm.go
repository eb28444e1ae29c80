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

// Package textnorm rewrites free-text command output before it is compared
// against a reference, masking values that legitimately change from run to
// run such as uptimes, TCP ports and allocated labels.
package textnorm

import (
	"regexp"
	"sort"
	"strings"
)

// Filter rewrites command output.
type Filter interface {
	Apply(text string) string
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(string) string

// Apply calls f(text).
func (f FilterFunc) Apply(text string) string { return f(text) }

// Apply runs text through filters in order.
func Apply(text string, filters ...Filter) string {
	for _, f := range filters {
		text = f.Apply(text)
	}
	return text
}

type mask struct {
	re   *regexp.Regexp
	repl string
}

func (m mask) Apply(text string) string {
	return m.re.ReplaceAllString(text, m.repl)
}

// Mask replaces every match of pattern with repl.  repl may reference
// submatches as in regexp.Regexp.ReplaceAllString.  Mask panics if pattern
// does not compile; patterns are expected to be literals in test code.
func Mask(pattern, repl string) Filter {
	return mask{re: regexp.MustCompile(pattern), repl: repl}
}

type sortRuns struct {
	re *regexp.Regexp
}

func (s sortRuns) Apply(text string) string {
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); {
		if !s.re.MatchString(lines[i]) {
			i++
			continue
		}
		j := i
		for j < len(lines) && s.re.MatchString(lines[j]) {
			j++
		}
		sort.Strings(lines[i:j])
		i = j
	}
	return strings.Join(lines, "\n")
}

// SortRuns sorts each run of consecutive lines matching pattern, leaving
// all other lines in place.  Daemons print some tables, such as label
// bindings, in hash order.
func SortRuns(pattern string) Filter {
	return sortRuns{re: regexp.MustCompile(pattern)}
}

type grep struct {
	re *regexp.Regexp
}

func (g grep) Apply(text string) string {
	var kept []string
	for _, l := range strings.Split(text, "\n") {
		if g.re.MatchString(l) {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}

// Grep keeps only the lines matching pattern.
func Grep(pattern string) Filter {
	return grep{re: regexp.MustCompile(pattern)}
}

type sortBlocks struct{}

func (sortBlocks) Apply(text string) string {
	trailing := strings.HasSuffix(text, "\n")
	var blocks []string
	for _, l := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if len(blocks) > 0 && (strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t")) {
			blocks[len(blocks)-1] += "\n" + l
			continue
		}
		blocks = append(blocks, l)
	}
	sort.Strings(blocks)
	out := strings.Join(blocks, "\n")
	if trailing {
		out += "\n"
	}
	return out
}

// SortBlocks sorts the output by blocks, where a block is a line followed
// by its indented continuation lines, such as a multipath kernel route and
// its nexthops.
func SortBlocks() Filter {
	return sortBlocks{}
}

// TrimSpace removes leading and trailing white space from the whole output.
func TrimSpace() Filter {
	return FilterFunc(strings.TrimSpace)
}

// Common masks for FRR show output.
var (
	// MaskUptime replaces hh:mm:ss timers.
	MaskUptime = Mask(`\b[0-9][0-9]:[0-9][0-9]:[0-9][0-9]\b`, "xx:xx:xx")
	// MaskTCPPorts replaces the ports of "TCP connection: a.b.c.d:port - e.f.g.h:port".
	MaskTCPPorts = Mask(`TCP connection: ([0-9]+\.[0-9]+\.[0-9]+\.[0-9]+):[0-9]+ - ([0-9]+\.[0-9]+\.[0-9]+\.[0-9]+):[0-9]+`,
		"TCP connection: ${1}:xxx - ${2}:xxx")
	// MaskLabels replaces "label N" and "label: N" values.
	MaskLabels = Mask(`label(:?) [0-9]+`, "label${1} xxx")
)
