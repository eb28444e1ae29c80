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

package fptest

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sync"
	"testing"

	log "github.com/golang/glog"
	"github.com/openconfig/topoverify/internal/args"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/openconfig/topoverify/internal/rundata"
	"github.com/spf13/afero"

	closer "github.com/openconfig/gocloser"
)

var (
	netOnce sync.Once
	network *harness.Network
	netErr  error
)

// RunDataName is the file in -arg_outputs_dir the run properties are
// written to.
const RunDataName = "rundata.txt"

// RunTests parses the flags, runs the tests, records the run properties and
// disconnects from the network.  It should be called from every verification suite like this:
//
//	package test
//
//	import "github.com/openconfig/topoverify/internal/fptest"
//
//	func TestMain(m *testing.M) {
//	  fptest.RunTests(m)
//	}
func RunTests(m *testing.M) {
	if !flag.Parsed() {
		flag.Parse()
	}
	code := m.Run()
	if err := writeRunData(afero.NewOsFs(), rundata.Properties(context.Background(), network)); err != nil {
		log.Warningf("Unable to record the run properties: %v", err)
	}
	if network != nil {
		if err := network.Close(); err != nil {
			log.Warningf("Unable to disconnect from the network: %v", err)
		}
	}
	os.Exit(code)
}

// writeRunData logs the run properties, and writes them to
// -arg_outputs_dir when it is set.
func writeRunData(fsys afero.Fs, props map[string]string) (rerr error) {
	for k, v := range props {
		log.V(1).Infof("rundata %s=%s", k, v)
	}
	if *args.OutputsDir == "" {
		return nil
	}
	if err := fsys.MkdirAll(*args.OutputsDir, 0o755); err != nil {
		return err
	}
	f, err := fsys.Create(filepath.Join(*args.OutputsDir, RunDataName))
	if err != nil {
		return err
	}
	defer closer.Close(&rerr, f.Close, "error closing run data")
	return rundata.Write(f, props)
}

// Network returns the network described by -arg_topology, connecting to it
// on first use.  The test is skipped when no topology was given.
func Network(t testing.TB) *harness.Network {
	t.Helper()
	if *args.Topology == "" {
		t.Skip("No topology given, set -arg_topology to run against a network")
	}
	netOnce.Do(func() {
		var topo *harness.Topology
		topo, netErr = harness.LoadTopology(afero.NewOsFs(), *args.Topology)
		if netErr != nil {
			return
		}
		network, netErr = topo.Connect(context.Background())
	})
	if netErr != nil {
		t.Fatalf("Unable to connect to the network in %s: %v", *args.Topology, netErr)
	}
	return network
}

// Node returns the node called name, failing the test when the topology
// has no such node.
func Node(t testing.TB, name string) harness.Node {
	t.Helper()
	n, err := Network(t).Node(name)
	if err != nil {
		t.Fatalf("Topology %s: %v", *args.Topology, err)
	}
	return n
}
