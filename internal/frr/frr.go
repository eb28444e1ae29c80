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

// Package frr provides helpers for checking FRRouting nodes through vtysh.
package frr

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	log "github.com/golang/glog"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/openconfig/topoverify/internal/scenario"
)

// Vtysh returns a shell command that runs each of cmds in a single vtysh
// invocation.
func Vtysh(cmds ...string) string {
	var b strings.Builder
	b.WriteString("vtysh")
	for _, c := range cmds {
		b.WriteString(" -c ")
		b.WriteString(shellQuote(c))
	}
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Show runs a single vtysh command on node.
func Show(ctx context.Context, node harness.Node, cmd string) (string, error) {
	return node.RunCommand(ctx, Vtysh(cmd))
}

// unknownCommand matches the vtysh responses for commands a daemon does not
// implement, e.g. "% Unknown command: show ip pim upstream json".
var unknownCommand = regexp.MustCompile(`(?m)^%?\s*(Unknown command|Command incomplete|There is no such command)`)

// RequireCommand reports whether node implements the vtysh command cmd.
// An error is returned only when the node could not be reached.
func RequireCommand(ctx context.Context, node harness.Node, cmd string) (scenario.Precondition, error) {
	out, err := Show(ctx, node, cmd)
	if err != nil {
		return scenario.Precondition{}, err
	}
	if unknownCommand.MatchString(out) {
		return scenario.Unsupported("%s does not support %q", node.Name(), cmd), nil
	}
	return scenario.Supported(), nil
}

// RequireFile reports whether path exists on node, e.g. /proc/net/ip_mr_vif
// for a kernel built with multicast routing.
func RequireFile(ctx context.Context, node harness.Node, path string) (scenario.Precondition, error) {
	out, err := node.RunCommand(ctx, fmt.Sprintf("test -e %s && echo present || echo absent", shellQuote(path)))
	if err != nil {
		return scenario.Precondition{}, err
	}
	if strings.TrimSpace(out) != "present" {
		return scenario.Unsupported("%s has no %s", node.Name(), path), nil
	}
	return scenario.Supported(), nil
}

var frrVersion = regexp.MustCompile(`FRRouting ([0-9]+(?:\.[0-9]+){0,2})`)

// Version returns the FRR release running on node, parsed from
// "show version".  Development suffixes such as "-dev" are dropped.
func Version(ctx context.Context, node harness.Node) (*semver.Version, error) {
	out, err := Show(ctx, node, "show version")
	if err != nil {
		return nil, err
	}
	m := frrVersion.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("%s: no FRRouting version in %q", node.Name(), firstLine(out))
	}
	return semver.NewVersion(m[1])
}

// RequireVersion reports whether the FRR release on node satisfies
// constraint, e.g. ">= 4".
func RequireVersion(ctx context.Context, node harness.Node, constraint string) (scenario.Precondition, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return scenario.Precondition{}, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	v, err := Version(ctx, node)
	if err != nil {
		return scenario.Precondition{}, err
	}
	if !c.Check(v) {
		return scenario.Unsupported("%s runs FRR %s, need %s", node.Name(), v, constraint), nil
	}
	log.V(1).Infof("%s runs FRR %s", node.Name(), v)
	return scenario.Supported(), nil
}

// RequireDaemons reports whether every one of daemons is listed by
// "show daemons" on node.
func RequireDaemons(ctx context.Context, node harness.Node, daemons ...string) (scenario.Precondition, error) {
	out, err := Show(ctx, node, "show daemons")
	if err != nil {
		return scenario.Precondition{}, err
	}
	running := map[string]bool{}
	for _, d := range strings.Fields(out) {
		running[d] = true
	}
	var missing []string
	for _, d := range daemons {
		if !running[d] {
			missing = append(missing, d)
		}
	}
	if len(missing) > 0 {
		return scenario.Unsupported("%s is not running %s", node.Name(), strings.Join(missing, ", ")), nil
	}
	return scenario.Supported(), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
