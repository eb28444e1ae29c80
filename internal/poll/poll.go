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

// Package poll runs a probe repeatedly until it succeeds or its retry budget
// is spent.  It absorbs the delay between a protocol state change and that
// state becoming observable through a management command.
package poll

import (
	"fmt"
	"time"

	log "github.com/golang/glog"
)

// Probe performs one observation and reports whether it matched, along with
// a diagnostic describing the observation.  Any state a probe needs is
// captured when it is built.
type Probe func() (bool, string)

// RetryPolicy bounds a poll.  The wall-clock bound is
// (MaxAttempts-1)*Interval plus the time spent in the probe.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// NewRetryPolicy returns a RetryPolicy making at most maxAttempts probe
// invocations spaced interval apart.
func NewRetryPolicy(maxAttempts int, interval time.Duration) (RetryPolicy, error) {
	if maxAttempts < 1 {
		return RetryPolicy{}, fmt.Errorf("max attempts must be at least 1, got %d", maxAttempts)
	}
	if interval < 0 {
		return RetryPolicy{}, fmt.Errorf("interval must not be negative, got %v", interval)
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Interval: interval}, nil
}

// Budget is the total time a poll under p may spend sleeping.
func (p RetryPolicy) Budget() time.Duration {
	p = p.normalized()
	return time.Duration(p.MaxAttempts-1) * p.Interval
}

func (p RetryPolicy) String() string {
	return fmt.Sprintf("%d attempts every %v", p.MaxAttempts, p.Interval)
}

// normalized treats a zero value policy as a single attempt.
func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Interval < 0 {
		p.Interval = 0
	}
	return p
}

// Outcome describes a finished poll.
type Outcome struct {
	OK         bool
	Diagnostic string
	Attempts   int
	Slept      time.Duration
}

// Poller runs probes.  The zero value sleeps with time.Sleep.
type Poller struct {
	// Sleep blocks for the given duration between attempts.
	Sleep func(time.Duration)
}

func (p *Poller) sleep(d time.Duration) {
	if p == nil || p.Sleep == nil {
		time.Sleep(d)
		return
	}
	p.Sleep(d)
}

// Run invokes probe until it reports success or policy.MaxAttempts
// invocations have been made.  Invocations are strictly sequential and there
// is no sleep after the last attempt.  On failure the Outcome carries the
// diagnostic of the last attempt only.
func (p *Poller) Run(probe Probe, policy RetryPolicy) Outcome {
	policy = policy.normalized()
	var out Outcome
	for {
		out.Attempts++
		ok, diag := probe()
		out.OK, out.Diagnostic = ok, diag
		if ok {
			log.V(1).Infof("Probe succeeded on attempt %d of %d", out.Attempts, policy.MaxAttempts)
			return out
		}
		if out.Attempts >= policy.MaxAttempts {
			log.V(1).Infof("Probe did not succeed after %d attempts", out.Attempts)
			return out
		}
		log.V(2).Infof("Attempt %d of %d failed, retrying in %v", out.Attempts, policy.MaxAttempts, policy.Interval)
		p.sleep(policy.Interval)
		out.Slept += policy.Interval
	}
}

// Poll is Run reduced to its success flag and last diagnostic.
func (p *Poller) Poll(probe Probe, policy RetryPolicy) (bool, string) {
	out := p.Run(probe, policy)
	return out.OK, out.Diagnostic
}

// Poll runs probe under policy using time.Sleep between attempts.
func Poll(probe Probe, policy RetryPolicy) (bool, string) {
	var p Poller
	return p.Poll(probe, policy)
}
