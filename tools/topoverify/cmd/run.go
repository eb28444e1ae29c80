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
	"io"
	"time"

	log "github.com/golang/glog"
	closer "github.com/openconfig/gocloser"
	"github.com/openconfig/topoverify/internal/fixture"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/openconfig/topoverify/internal/poll"
	"github.com/openconfig/topoverify/internal/scenario"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runner runs the checks of a plan and prints one line per check.
type runner struct {
	out      io.Writer
	verifier *scenario.Verifier
	failFast bool
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Run the checks of a plan against a network.",
		Long: `run connects to the nodes of the plan topology and verifies every check
in order.  It prints PASS, SKIP or FAIL for each check, with the difference
between the last output and the fixture for failed checks, and exits with a
non-zero status when any check failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd.Context(), v, cmd.OutOrStdout())
		},
	}
	c.Flags().StringP("plan", "p", "", "Plan file listing the checks to run.")
	c.Flags().String("outputs-dir", "", "Directory receiving the CSV convergence report.")
	c.Flags().Int("attempts", 0, "Override the number of attempts of every check.")
	c.Flags().Duration("interval", 0, "Override the time between two attempts of every check.")
	c.Flags().Bool("fail-fast", false, "Stop at the first failed check.")
	bindFlags(v, c.Flags())
	return c
}

func runPlan(ctx context.Context, v *viper.Viper, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	planFile := v.GetString("plan")
	if planFile == "" {
		return errors.New("no plan given, set --plan or TOPOVERIFY_PLAN")
	}
	fsys := afero.NewOsFs()
	plan, err := LoadPlan(fsys, planFile)
	if err != nil {
		return err
	}
	if n := v.GetInt("attempts"); n > 0 {
		plan.Retry.Attempts = n
	}
	if d := v.GetDuration("interval"); d > 0 {
		plan.Retry.Interval = d
	}

	topo, err := harness.LoadTopology(fsys, plan.Topology)
	if err != nil {
		return err
	}
	net, err := topo.Connect(ctx)
	if err != nil {
		return err
	}
	defer closer.CloseAndLog(net.Close, "error disconnecting from the network")

	r := &runner{
		out: out,
		verifier: &scenario.Verifier{
			Fixtures: fixture.NewLoaderFS(fsys, plan.Fixtures),
			Poller:   &poll.Poller{},
		},
		failFast: v.GetBool("fail-fast"),
	}
	if dir := v.GetString("outputs-dir"); dir != "" {
		rec, err := scenario.NewRecorder(dir, "convergence.csv")
		if err != nil {
			return err
		}
		r.verifier.Recorder = rec
		log.Infof("Recording results of run %s in %s", rec.RunID(), rec.Path())
	}
	return r.run(ctx, plan, net)
}

func (r *runner) run(ctx context.Context, plan *Plan, net *harness.Network) error {
	start := time.Now()
	var passed, skipped, failed int
	for _, pc := range plan.Checks {
		err := r.runCheck(ctx, plan, pc, net)
		switch scenario.Status(err) {
		case scenario.StatusPassed:
			passed++
		case scenario.StatusSkipped:
			skipped++
		default:
			failed++
		}
		if err != nil && r.failFast && scenario.Status(err) != scenario.StatusSkipped {
			break
		}
	}
	fmt.Fprintf(r.out, "%d passed, %d skipped, %d failed in %v\n", passed, skipped, failed, time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(plan.Checks))
	}
	return nil
}

// runCheck verifies one check and prints its result.
func (r *runner) runCheck(ctx context.Context, plan *Plan, pc PlanCheck, net *harness.Network) error {
	err := r.verify(ctx, plan, pc, net)
	var (
		ue *scenario.UnsupportedError
		te *scenario.TimeoutError
	)
	switch {
	case err == nil:
		fmt.Fprintf(r.out, "PASS %s\n", pc.name())
	case errors.As(err, &ue):
		fmt.Fprintf(r.out, "SKIP %s: %s\n", pc.name(), ue.Reason)
	case errors.As(err, &te):
		fmt.Fprintf(r.out, "FAIL %s: %s after %d attempts\n%s\n", pc.name(), scenario.Status(err), te.Attempts, te.Diff)
	default:
		fmt.Fprintf(r.out, "FAIL %s: %v\n", pc.name(), err)
	}
	return err
}

func (r *runner) verify(ctx context.Context, plan *Plan, pc PlanCheck, net *harness.Network) error {
	node, err := net.Node(pc.Node)
	if err != nil {
		return err
	}
	c, err := pc.check(node, plan.Retry)
	if err != nil {
		return err
	}
	pre, err := pc.Require.precondition(ctx, node)
	if err != nil {
		return err
	}
	_, err = r.verifier.Verify(ctx, pre, c)
	return err
}
