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

package harness

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// runFunc runs a program and returns its combined output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runProgram(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExecNode runs commands as local processes through /bin/sh, optionally
// inside a network namespace.  Emulated topologies built from namespaces
// (mininet, containerlab with netns) expose their routers this way.
type ExecNode struct {
	name      string
	namespace string
	run       runFunc
}

// NewExecNode returns a node running commands in the given network
// namespace, or in the current one if namespace is empty.
func NewExecNode(name, namespace string) *ExecNode {
	return &ExecNode{name: name, namespace: namespace, run: runProgram}
}

// Name returns the node name.
func (n *ExecNode) Name() string { return n.name }

func (n *ExecNode) argv(cmd string) (string, []string) {
	if n.namespace == "" {
		return "/bin/sh", []string{"-c", cmd}
	}
	return "ip", []string{"netns", "exec", n.namespace, "/bin/sh", "-c", cmd}
}

// RunCommand runs cmd and returns its combined output.  A command that ran
// and exited non-zero is not an error: its output is returned for
// comparison like any other.
func (n *ExecNode) RunCommand(ctx context.Context, cmd string) (string, error) {
	prog, args := n.argv(cmd)
	out, err := n.run(ctx, prog, args...)
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && ctx.Err() == nil {
			return string(out), nil
		}
		return "", &CommandError{Node: n.name, Command: cmd, Err: fmt.Errorf("%s: %w", prog, err)}
	}
	return string(out), nil
}
