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

// Package harness is the boundary between verification code and the
// emulated network.  A Node runs management commands and returns their
// text output; a Network is the ordered set of nodes of one topology.
package harness

import (
	"context"
	"fmt"
)

// Node is a router or host of the emulated network.  Implementations need
// not be safe for concurrent use; callers run one command at a time.
type Node interface {
	Name() string
	// RunCommand runs a shell command on the node and returns its combined
	// output.  Failures to reach the node or run the command are returned
	// as *CommandError.
	RunCommand(ctx context.Context, cmd string) (string, error)
}

// CommandError reports that a command produced no usable output because
// the node could not be reached or the command could not be run.
type CommandError struct {
	Node    string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: command %q failed: %v", e.Node, e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Network is an ordered, immutable set of nodes.
type Network struct {
	nodes  []Node
	byName map[string]Node
}

// NewNetwork returns a Network holding nodes in the given order.  Node
// names must be unique and non-empty.
func NewNetwork(nodes ...Node) (*Network, error) {
	n := &Network{byName: make(map[string]Node, len(nodes))}
	for _, node := range nodes {
		name := node.Name()
		if name == "" {
			return nil, fmt.Errorf("node #%d has no name", len(n.nodes))
		}
		if _, ok := n.byName[name]; ok {
			return nil, fmt.Errorf("duplicate node %q", name)
		}
		n.byName[name] = node
		n.nodes = append(n.nodes, node)
	}
	return n, nil
}

// Nodes returns the nodes in topology order.
func (n *Network) Nodes() []Node {
	return append([]Node(nil), n.nodes...)
}

// Names returns the node names in topology order.
func (n *Network) Names() []string {
	names := make([]string, len(n.nodes))
	for i, node := range n.nodes {
		names[i] = node.Name()
	}
	return names
}

// Node returns the named node.
func (n *Network) Node(name string) (Node, error) {
	node, ok := n.byName[name]
	if !ok {
		return nil, fmt.Errorf("no node %q in network %v", name, n.Names())
	}
	return node, nil
}

// Close releases the transports of all nodes that hold one.
func (n *Network) Close() error {
	var first error
	for _, node := range n.nodes {
		c, ok := node.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("closing %s: %w", node.Name(), err)
		}
	}
	return first
}
