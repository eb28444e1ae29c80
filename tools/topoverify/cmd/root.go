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

// Package cmd implements the topoverify commands.
package cmd

import (
	"flag"
	"strings"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// New returns the root command.  Every flag may also be set through a
// TOPOVERIFY_ environment variable, e.g. TOPOVERIFY_PLAN for --plan.
func New() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("topoverify")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "topoverify",
		Short: "Verify the converged state of an emulated routing network.",
		Long: `topoverify queries the nodes of a running network and compares their
output against reference fixtures, retrying each comparison until the
network converges or the retry budget runs out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// glog registers its flags on the standard flag set.
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newRunCmd(v), newCompareCmd(v))
	return root
}

// bindFlags makes every flag of fs readable through v.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			log.Warningf("Unable to bind flag --%s: %v", f.Name, err)
		}
	})
}
