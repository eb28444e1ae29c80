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

// Package pim_basic_test checks the PIM upstream state of r1 once r2 starts
// sending a multicast stream and once r2 joins a group through IGMP.
//
//	r1 (10.0.20.1) ---- sw1 ---- r2 (10.0.20.2)
package pim_basic_test

import (
	"context"
	"flag"
	"fmt"
	"testing"

	"github.com/openconfig/topoverify/internal/fptest"
	"github.com/openconfig/topoverify/internal/frr"
	"github.com/openconfig/topoverify/internal/scenario"
	"github.com/openconfig/topoverify/internal/structdiff"
	"github.com/openconfig/topoverify/internal/textnorm"
)

var (
	mcastTX = flag.String("mcast_tx", "/usr/lib/frr/topotests/pim-basic/mcast-tx.py", "Multicast sender run on r2.")
	mcastRX = flag.String("mcast_rx", "/usr/lib/frr/topotests/pim-basic/mcast-rx.py", "Multicast receiver run on r2.")
)

const upstreamCmd = "show ip pim upstream json"

func TestMain(m *testing.M) {
	fptest.RunTests(m)
}

// pimAvailable requires a FRR release with JSON PIM output on r1 and a
// kernel built with multicast routing.
func pimAvailable(t *testing.T) scenario.Precondition {
	t.Helper()
	ctx := context.Background()
	r1 := fptest.Node(t, "r1")
	cmd, err := frr.RequireCommand(ctx, r1, upstreamCmd)
	pre := fptest.Require(t, cmd, err)
	kernel, err := frr.RequireFile(ctx, r1, "/proc/net/ip_mr_vif")
	return pre.And(fptest.Require(t, kernel, err))
}

func TestPIM(t *testing.T) {
	pre := pimAvailable(t)
	r1 := fptest.Node(t, "r1")
	r2 := fptest.Node(t, "r2")
	v := fptest.Verifier(t, "testdata")

	t.Run("SendMcastStream", func(t *testing.T) {
		if pre.Supported {
			cmd := fmt.Sprintf("%s --ttl 5 --count 5 --interval 10 229.1.1.1 r2-eth0 > /tmp/mcast-tx.out", *mcastTX)
			if _, err := r2.RunCommand(context.Background(), cmd); err != nil {
				t.Fatalf("Unable to start the multicast stream on r2: %v", err)
			}
		}
		scenario.Run(t, v, pre, scenario.Check{
			Name:    "r1/upstream S,G",
			Node:    r1,
			Command: frr.Vtysh(upstreamCmd),
			Fixture: "r1/upstream_sg.json",
			Mode:    structdiff.Structured,
			Filters: []textnorm.Filter{
				textnorm.Project([]string{"229.1.1.1", "10.0.20.2"}, "firstHopRouter", "joinState", "regState", "inboundInterface"),
			},
			Policy: fptest.Policy(t),
		})
	})

	t.Run("IGMPReport", func(t *testing.T) {
		if pre.Supported {
			cmd := fmt.Sprintf("%s 229.1.1.2 r2-eth0 > /tmp/mcast-rx.out 2>&1 &", *mcastRX)
			if _, err := r2.RunCommand(context.Background(), cmd); err != nil {
				t.Fatalf("Unable to join 229.1.1.2 on r2: %v", err)
			}
		}
		scenario.Run(t, v, pre, scenario.Check{
			Name:    "r1/upstream *,G",
			Node:    r1,
			Command: frr.Vtysh(upstreamCmd),
			Fixture: "r1/upstream_starg.yaml",
			Mode:    structdiff.Structured,
			Filters: []textnorm.Filter{
				textnorm.Project([]string{"229.1.1.2", "*"}, "sourceIgmp", "joinState", "regState", "sptBit"),
			},
			Policy: fptest.Policy(t),
		})
	})
}

func TestMemoryLeaks(t *testing.T) {
	fptest.CheckMemoryLeaks(t, fptest.Network(t), "zebra", "pimd")
}
