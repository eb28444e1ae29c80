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

package scenario

import (
	"fmt"
	"strings"
)

// Precondition is the result of checking whether the system under test
// supports what a scenario exercises.  It is computed once during setup and
// passed explicitly to every check that depends on it.
type Precondition struct {
	Supported bool
	Reason    string
}

// Supported returns a satisfied Precondition.
func Supported() Precondition {
	return Precondition{Supported: true}
}

// Unsupported returns an unsatisfied Precondition with a formatted reason.
func Unsupported(format string, args ...any) Precondition {
	return Precondition{Reason: fmt.Sprintf(format, args...)}
}

// And combines preconditions; the result is satisfied only if all are.
// Reasons of every unsatisfied precondition are kept.
func (p Precondition) And(others ...Precondition) Precondition {
	all := append([]Precondition{p}, others...)
	var reasons []string
	for _, q := range all {
		if !q.Supported {
			reasons = append(reasons, q.Reason)
		}
	}
	if len(reasons) == 0 {
		return Supported()
	}
	return Precondition{Reason: strings.Join(reasons, "; ")}
}

func (p Precondition) String() string {
	if p.Supported {
		return "supported"
	}
	return "unsupported: " + p.Reason
}

// UnsupportedError reports a check skipped because its precondition failed.
type UnsupportedError struct {
	Check  string
	Reason string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported: %s", e.Check, e.Reason)
}

// TimeoutError reports a check whose node never converged within the retry
// budget.  Diff is the diagnostic of the last attempt, verbatim.
type TimeoutError struct {
	Check    string
	Node     string
	Attempts int
	Diff     string
	// Unreachable is set when the last attempt could not run the command
	// at all, as opposed to running it and getting the wrong answer.
	Unreachable bool
}

func (e *TimeoutError) Error() string {
	what := "did not converge"
	if e.Unreachable {
		what = "was unreachable"
	}
	return fmt.Sprintf("%s: %s %s after %d attempts:\n%s", e.Check, e.Node, what, e.Attempts, e.Diff)
}
