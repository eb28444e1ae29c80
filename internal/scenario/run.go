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
	"context"
	"errors"
	"testing"

	"github.com/openconfig/topoverify/internal/fixture"
)

// Run verifies a check from a test.  An unsatisfied precondition skips the
// test; a broken fixture or a node that does not converge fails it, with
// the last diff included verbatim in the failure message.
func Run(t testing.TB, v *Verifier, pre Precondition, c Check) {
	t.Helper()
	out, err := v.Verify(context.Background(), pre, c)
	if err == nil {
		t.Logf("%s converged after %d attempts (%v)", c.name(), out.Attempts, out.Elapsed)
		return
	}
	var (
		ue *UnsupportedError
		fe *fixture.Error
		te *TimeoutError
	)
	switch {
	case errors.As(err, &ue):
		t.Skipf("Skipping %s: %s", ue.Check, ue.Reason)
	case errors.As(err, &fe):
		t.Fatalf("Broken test fixture for %s: %v", c.name(), fe)
	case errors.As(err, &te):
		if te.Unreachable {
			t.Fatalf("%s: %s was unreachable for %d attempts:\n%s", te.Check, te.Node, te.Attempts, te.Diff)
		}
		t.Fatalf("%s: %s did not converge after %d attempts:\n%s", te.Check, te.Node, te.Attempts, te.Diff)
	default:
		t.Fatalf("%s: %v", c.name(), err)
	}
}

// RunEach runs every check as a subtest, in order.  The checks share the
// precondition so a scenario that is unsupported skips every subtest.
func RunEach(t *testing.T, v *Verifier, pre Precondition, checks []Check) {
	t.Helper()
	for _, c := range checks {
		t.Run(c.name(), func(t *testing.T) {
			Run(t, v, pre, c)
		})
	}
}
