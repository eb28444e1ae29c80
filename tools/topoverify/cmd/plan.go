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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/openconfig/topoverify/internal/frr"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/openconfig/topoverify/internal/poll"
	"github.com/openconfig/topoverify/internal/scenario"
	"github.com/openconfig/topoverify/internal/structdiff"
	"github.com/openconfig/topoverify/internal/textnorm"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Plan is an ordered list of checks run against a network.  Relative
// paths are resolved against the directory of the plan file.
//
//	topology: topology.yaml
//	fixtures: testdata
//	retry:
//	  attempts: 25
//	  interval: 3s
//	checks:
//	  - node: r1
//	    command: show ip ospf database segment-routing json
//	    fixture: r1/ospf_srdb.json
//	    mode: structured
//	    require:
//	      version: ">= 4"
type Plan struct {
	Topology string      `yaml:"topology"`
	Fixtures string      `yaml:"fixtures"`
	Retry    Retry       `yaml:"retry"`
	Checks   []PlanCheck `yaml:"checks"`
}

// Retry is the retry policy of a plan or a single check.
type Retry struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

// PlanCheck is one check of a plan.
type PlanCheck struct {
	Name string `yaml:"name"`
	Node string `yaml:"node"`
	// Command is run in vtysh unless Shell is set.
	Command string  `yaml:"command"`
	Shell   bool    `yaml:"shell"`
	Fixture string  `yaml:"fixture"`
	Mode    string  `yaml:"mode"`
	Require Require `yaml:"require"`
	Filters Filters `yaml:"filters"`
	// Retry overrides the plan retry policy when set.
	Retry *Retry `yaml:"retry"`
}

// Require lists the preconditions of a check.  A check whose
// preconditions do not hold is skipped.
type Require struct {
	Command string   `yaml:"command"`
	File    string   `yaml:"file"`
	Version string   `yaml:"version"`
	Daemons []string `yaml:"daemons"`
}

// Filters rewrite the command output before comparison, in the order
// mask, grep, sort_runs, sort_blocks, project.
type Filters struct {
	Mask       []MaskFilter `yaml:"mask"`
	Grep       string       `yaml:"grep"`
	SortRuns   []string     `yaml:"sort_runs"`
	SortBlocks bool         `yaml:"sort_blocks"`
	Project    *Projection  `yaml:"project"`
}

// MaskFilter replaces every match of Pattern with Replace.
type MaskFilter struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// Projection narrows JSON output to the object at Path.
type Projection struct {
	Path []string `yaml:"path"`
	Keys []string `yaml:"keys"`
}

// LoadPlan reads and validates the plan at path.
func LoadPlan(fsys afero.Fs, path string) (*Plan, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	p := &Plan{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	p.Topology = resolve(dir, p.Topology)
	p.Fixtures = resolve(dir, p.Fixtures)
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (p *Plan) validate() error {
	var errs []error
	if p.Topology == "" {
		errs = append(errs, errors.New("no topology"))
	}
	if len(p.Checks) == 0 {
		errs = append(errs, errors.New("no checks"))
	}
	for i, c := range p.Checks {
		if c.Node == "" || c.Command == "" || c.Fixture == "" {
			errs = append(errs, fmt.Errorf("check %d: node, command and fixture are required", i))
		}
		if _, err := structdiff.ParseMode(c.Mode); err != nil {
			errs = append(errs, fmt.Errorf("check %d: %w", i, err))
		}
		for _, m := range c.Filters.Mask {
			if _, err := regexp.Compile(m.Pattern); err != nil {
				errs = append(errs, fmt.Errorf("check %d: mask: %w", i, err))
			}
		}
		for _, pat := range append([]string{c.Filters.Grep}, c.Filters.SortRuns...) {
			if _, err := regexp.Compile(pat); err != nil {
				errs = append(errs, fmt.Errorf("check %d: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// policy returns the retry policy of c, falling back to def.
func (c PlanCheck) policy(def Retry) (poll.RetryPolicy, error) {
	r := def
	if c.Retry != nil {
		r = *c.Retry
	}
	if r.Attempts == 0 {
		r.Attempts = 1
	}
	return poll.NewRetryPolicy(r.Attempts, r.Interval)
}

func (c PlanCheck) filters() []textnorm.Filter {
	var fs []textnorm.Filter
	for _, m := range c.Filters.Mask {
		fs = append(fs, textnorm.Mask(m.Pattern, m.Replace))
	}
	if c.Filters.Grep != "" {
		fs = append(fs, textnorm.Grep(c.Filters.Grep))
	}
	for _, pat := range c.Filters.SortRuns {
		fs = append(fs, textnorm.SortRuns(pat))
	}
	if c.Filters.SortBlocks {
		fs = append(fs, textnorm.SortBlocks())
	}
	if pr := c.Filters.Project; pr != nil {
		fs = append(fs, textnorm.Project(pr.Path, pr.Keys...))
	}
	return fs
}

func (c PlanCheck) name() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Node + "/" + c.Fixture
}

// check builds the scenario check of c on node.
func (c PlanCheck) check(node harness.Node, def Retry) (scenario.Check, error) {
	mode, err := structdiff.ParseMode(c.Mode)
	if err != nil {
		return scenario.Check{}, err
	}
	policy, err := c.policy(def)
	if err != nil {
		return scenario.Check{}, err
	}
	cmd := c.Command
	if !c.Shell {
		cmd = frr.Vtysh(cmd)
	}
	return scenario.Check{
		Name:    c.name(),
		Node:    node,
		Command: cmd,
		Fixture: c.Fixture,
		Mode:    mode,
		Filters: c.filters(),
		Policy:  policy,
	}, nil
}

// precondition evaluates r on node.
func (r Require) precondition(ctx context.Context, node harness.Node) (scenario.Precondition, error) {
	pre := scenario.Supported()
	add := func(p scenario.Precondition, err error) error {
		if err != nil {
			return err
		}
		pre = pre.And(p)
		return nil
	}
	if r.Command != "" {
		if err := add(frr.RequireCommand(ctx, node, r.Command)); err != nil {
			return pre, err
		}
	}
	if r.File != "" {
		if err := add(frr.RequireFile(ctx, node, r.File)); err != nil {
			return pre, err
		}
	}
	if r.Version != "" {
		if err := add(frr.RequireVersion(ctx, node, r.Version)); err != nil {
			return pre, err
		}
	}
	if len(r.Daemons) > 0 {
		if err := add(frr.RequireDaemons(ctx, node, r.Daemons...)); err != nil {
			return pre, err
		}
	}
	return pre, nil
}
