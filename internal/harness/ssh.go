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

	log "github.com/golang/glog"
	"golang.org/x/crypto/ssh"
)

// SSHNode runs commands over an SSH connection, one session per command.
type SSHNode struct {
	name string
	ssh  *ssh.Client
}

// NewSSHNode wraps an established SSH client.
func NewSSHNode(name string, sc *ssh.Client) *SSHNode {
	return &SSHNode{name: name, ssh: sc}
}

// DialSSH connects to addr and returns a node using the connection.
func DialSSH(ctx context.Context, name, addr string, config *ssh.ClientConfig) (*SSHNode, error) {
	type result struct {
		c   *ssh.Client
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, config)
		ch <- result{c, err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.c != nil {
				r.c.Close()
			}
		}()
		return nil, fmt.Errorf("dialing %s at %s: %w", name, addr, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("dialing %s at %s: %w", name, addr, r.err)
		}
		return NewSSHNode(name, r.c), nil
	}
}

// Name returns the node name.
func (n *SSHNode) Name() string { return n.name }

// RunCommand runs cmd in a new session and returns stdout and stderr.
func (n *SSHNode) RunCommand(ctx context.Context, cmd string) (string, error) {
	sess, err := n.ssh.NewSession()
	if err != nil {
		return "", &CommandError{Node: n.name, Command: cmd, Err: fmt.Errorf("could not create session: %w", err)}
	}
	defer sess.Close()

	type result struct {
		buf []byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf, err := sess.CombinedOutput(cmd)
		ch <- result{buf, err}
	}()
	select {
	case <-ctx.Done():
		if err := sess.Signal(ssh.SIGKILL); err != nil {
			log.Warningf("Could not kill %q on %s: %v", cmd, n.name, err)
		}
		return "", &CommandError{Node: n.name, Command: cmd, Err: ctx.Err()}
	case r := <-ch:
		return n.result(cmd, r.buf, r.err)
	}
}

// result maps the outcome of a session onto RunCommand's results.  A
// non-zero exit status still produced output worth comparing.
func (n *SSHNode) result(cmd string, buf []byte, err error) (string, error) {
	var exitErr *ssh.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", &CommandError{Node: n.name, Command: cmd, Err: fmt.Errorf("could not execute command: %w", err)}
	}
	return string(buf), nil
}

// Close closes the SSH connection.
func (n *SSHNode) Close() error {
	return n.ssh.Close()
}
