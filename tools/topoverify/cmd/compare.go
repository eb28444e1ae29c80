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
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/openconfig/topoverify/internal/fixture"
	"github.com/openconfig/topoverify/internal/structdiff"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errDiffer is returned by compare when the documents differ.
var errDiffer = errors.New("documents differ")

func newCompareCmd(v *viper.Viper) *cobra.Command {
	c := &cobra.Command{
		Use:   "compare CURRENT EXPECTED",
		Short: "Compare a saved command output against a fixture.",
		Long: `compare reads a saved command output and a fixture, and prints their
differences the way run reports a check that did not converge.  EXPECTED may
be JSON, YAML or text.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compareFiles(afero.NewOsFs(), cmd.OutOrStdout(), args[0], args[1], v.GetString("mode"))
		},
	}
	c.Flags().StringP("mode", "m", "auto", "Comparison mode: auto, structured or text.")
	bindFlags(v, c.Flags())
	return c
}

func compareFiles(fsys afero.Fs, out io.Writer, current, expected, modeName string) error {
	mode, err := structdiff.ParseMode(modeName)
	if err != nil {
		return err
	}
	cur, err := afero.ReadFile(fsys, current)
	if err != nil {
		return err
	}
	fx, err := fixture.NewLoaderFS(fsys, filepath.Dir(expected)).Load(filepath.Base(expected))
	if err != nil {
		return err
	}
	if mode == structdiff.Structured && !fx.Structured {
		return fmt.Errorf("%s is not a JSON or YAML fixture", expected)
	}
	r, err := structdiff.CompareMode(string(cur), fx.Text, mode)
	if err != nil {
		return err
	}
	if r.Equal {
		fmt.Fprintln(out, "equal")
		return nil
	}
	fmt.Fprint(out, r.Diff)
	return errDiffer
}
