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

// Package scenario composes the fixture loader, the comparator and the
// poller into the fixed shape every convergence check follows: check the
// precondition, load the expected fixture, build a probe against a node,
// poll it, and report the last diff on failure.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/openconfig/topoverify/internal/fixture"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/openconfig/topoverify/internal/poll"
	"github.com/openconfig/topoverify/internal/structdiff"
	"github.com/openconfig/topoverify/internal/textnorm"
)

// Check is one convergence check of one node.
type Check struct {
	// Name identifies the check in reports, e.g. "r1/ospf_srdb".
	Name    string
	Node    harness.Node
	Command string
	// Fixture names the expected document in the Verifier's loader.
	Fixture string
	Mode    structdiff.Mode
	// Filters rewrite the command output before comparison.
	Filters []textnorm.Filter
	Policy  poll.RetryPolicy
}

func (c Check) name() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Node != nil {
		return c.Node.Name() + "/" + c.Fixture
	}
	return c.Fixture
}

// Outcome describes a converged check.
type Outcome struct {
	Attempts int
	Elapsed  time.Duration
}

// Verifier runs checks.
type Verifier struct {
	Fixtures *fixture.Loader
	// Poller is used for every check; nil polls with time.Sleep.
	Poller *poll.Poller
	// Recorder, if set, records every verified check.
	Recorder *Recorder
}

// Verify runs a check and returns nil error once the node's output matches
// the fixture.  Errors are *UnsupportedError when pre is not satisfied,
// *fixture.Error when the fixture cannot be loaded or parsed, and
// *TimeoutError when the node did not converge.  Neither of the first two
// polls the node.
func (v *Verifier) Verify(ctx context.Context, pre Precondition, c Check) (*Outcome, error) {
	name := c.name()
	out, err := v.verify(ctx, pre, c, name)
	if v.Recorder != nil {
		if rerr := v.Recorder.Record(name, c.Node, out, err); rerr != nil {
			log.Warningf("Unable to record %s: %v", name, rerr)
		}
	}
	return out, err
}

func (v *Verifier) verify(ctx context.Context, pre Precondition, c Check, name string) (*Outcome, error) {
	if !pre.Supported {
		return nil, &UnsupportedError{Check: name, Reason: pre.Reason}
	}
	if c.Node == nil {
		return nil, fmt.Errorf("%s: no node to check", name)
	}
	fx, err := v.Fixtures.Load(c.Fixture)
	if err != nil {
		return nil, err
	}
	if c.Mode == structdiff.Structured && !fx.Structured {
		return nil, &fixture.Error{Name: c.Fixture, Err: errors.New("structured comparison needs a .json or .yaml fixture")}
	}
	comparator, err := structdiff.NewComparator(fx.Text, c.Mode)
	if err != nil {
		return nil, &fixture.Error{Name: c.Fixture, Err: err}
	}

	var lastErr error
	probe := func() (bool, string) {
		current, err := c.Node.RunCommand(ctx, c.Command)
		lastErr = err
		if err != nil {
			return false, fmt.Sprintf("harness communication error, no output from %s: %v", c.Node.Name(), err)
		}
		r := comparator.Compare(textnorm.Apply(current, c.Filters...))
		return r.Equal, r.Diff
	}

	log.Infof("Waiting for %s to converge (%v) ...", name, c.Policy)
	start := time.Now()
	res := v.Poller.Run(probe, c.Policy)
	out := &Outcome{Attempts: res.Attempts, Elapsed: time.Since(start)}
	if !res.OK {
		return out, &TimeoutError{
			Check:       name,
			Node:        c.Node.Name(),
			Attempts:    res.Attempts,
			Diff:        res.Diagnostic,
			Unreachable: lastErr != nil,
		}
	}
	log.Infof("Done waiting for %s after %d attempts", name, res.Attempts)
	return out, nil
}

// VerifyAll runs checks in order and stops at the first error.
func (v *Verifier) VerifyAll(ctx context.Context, pre Precondition, checks []Check) error {
	for _, c := range checks {
		if _, err := v.Verify(ctx, pre, c); err != nil {
			return err
		}
	}
	return nil
}
