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
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"
)

// Transports a node may be reached over.
const (
	TransportExec = "exec"
	TransportSSH  = "ssh"
)

const defaultDialTimeout = 10 * time.Second

// Topology describes how to reach the nodes of an already running emulated
// network.  It is read from YAML:
//
//	nodes:
//	  - name: r1
//	    namespace: r1
//	  - name: r2
//	    transport: ssh
//	    address: 192.0.2.2:22
//	    username: frr
//	    key_file: /home/frr/.ssh/id_ed25519
type Topology struct {
	Nodes []NodeConfig `yaml:"nodes"`

	fs afero.Fs
}

// NodeConfig describes one node of a Topology.
type NodeConfig struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
	// Namespace is the network namespace of an exec node.
	Namespace string `yaml:"namespace"`

	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	KeyFile  string `yaml:"key_file"`
	// HostKey is the node's public key in authorized_keys format.  When
	// empty the host key is not verified.
	HostKey     string        `yaml:"host_key"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// LoadTopology reads and validates a topology file.
func LoadTopology(fsys afero.Fs, path string) (*Topology, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading topology: %w", err)
	}
	t, err := ParseTopology(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.fs = fsys
	return t, nil
}

// ParseTopology decodes and validates a YAML topology.
func ParseTopology(data []byte) (*Topology, error) {
	t := &Topology{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("invalid topology: %w", err)
	}
	if len(t.Nodes) == 0 {
		return nil, fmt.Errorf("topology has no nodes")
	}
	seen := make(map[string]bool)
	for i := range t.Nodes {
		nc := &t.Nodes[i]
		if nc.Name == "" {
			return nil, fmt.Errorf("node #%d has no name", i)
		}
		if seen[nc.Name] {
			return nil, fmt.Errorf("duplicate node %q", nc.Name)
		}
		seen[nc.Name] = true
		if nc.Transport == "" {
			nc.Transport = TransportExec
		}
		switch nc.Transport {
		case TransportExec:
		case TransportSSH:
			if nc.Address == "" || nc.Username == "" {
				return nil, fmt.Errorf("ssh node %q needs an address and a username", nc.Name)
			}
			if nc.Password == "" && nc.KeyFile == "" {
				return nil, fmt.Errorf("ssh node %q needs a password or a key_file", nc.Name)
			}
		default:
			return nil, fmt.Errorf("node %q has unknown transport %q", nc.Name, nc.Transport)
		}
	}
	return t, nil
}

// Connect reaches every node of the topology, in order, and returns them as
// a Network.  Nodes connected before a failure are closed.
func (t *Topology) Connect(ctx context.Context) (*Network, error) {
	var nodes []Node
	closeAll := func() {
		n := &Network{nodes: nodes}
		if err := n.Close(); err != nil {
			log.Warningf("Closing partially connected topology: %v", err)
		}
	}
	for _, nc := range t.Nodes {
		switch nc.Transport {
		case TransportSSH:
			config, err := t.sshConfig(nc)
			if err != nil {
				closeAll()
				return nil, err
			}
			node, err := DialSSH(ctx, nc.Name, nc.Address, config)
			if err != nil {
				closeAll()
				return nil, err
			}
			nodes = append(nodes, node)
		default:
			nodes = append(nodes, NewExecNode(nc.Name, nc.Namespace))
		}
		log.V(1).Infof("Connected to %s over %s", nc.Name, nc.Transport)
	}
	return NewNetwork(nodes...)
}

func (t *Topology) sshConfig(nc NodeConfig) (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:    nc.Username,
		Timeout: nc.DialTimeout,
	}
	if config.Timeout == 0 {
		config.Timeout = defaultDialTimeout
	}
	if nc.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(nc.Password))
	}
	if nc.KeyFile != "" {
		fsys := t.fs
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		pem, err := afero.ReadFile(fsys, nc.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("node %s: reading key: %w", nc.Name, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("node %s: parsing key: %w", nc.Name, err)
		}
		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}
	if nc.HostKey == "" {
		log.Warningf("Host key of %s is not verified", nc.Name)
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey()
		return config, nil
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(nc.HostKey))
	if err != nil {
		return nil, fmt.Errorf("node %s: parsing host key: %w", nc.Name, err)
	}
	config.HostKeyCallback = ssh.FixedHostKey(pub)
	return config, nil
}
