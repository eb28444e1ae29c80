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

package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	closer "github.com/openconfig/gocloser"
	"github.com/openconfig/topoverify/internal/fixture"
	"github.com/openconfig/topoverify/internal/harness"
)

const timeformat = "2006-01-02 15:04:05"

// Check statuses written to reports.
const (
	StatusPassed      = "PASSED"
	StatusFailed      = "FAILED"
	StatusSkipped     = "SKIPPED"
	StatusUnreachable = "UNREACHABLE"
	StatusBroken      = "BROKEN_FIXTURE"
)

// Recorder appends one CSV row per verified check to a report file:
// run id, check, node, status, attempts, elapsed seconds, timestamp.
// The last diff of every check that did not converge is written next to the
// report as <node>_<check>.diff.
type Recorder struct {
	path  string
	runID string
	now   func() time.Time
}

// NewRecorder returns a Recorder appending to name inside dir.  All rows it
// writes share a fresh run id.
func NewRecorder(dir, name string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	return &Recorder{
		path:  filepath.Join(dir, name),
		runID: id.String(),
		now:   time.Now,
	}, nil
}

// Path returns the report file path.
func (r *Recorder) Path() string { return r.path }

// RunID returns the id written in every row.
func (r *Recorder) RunID() string { return r.runID }

// Status maps the result of Verifier.Verify onto a report status.
func Status(err error) string {
	var (
		ue *UnsupportedError
		fe *fixture.Error
		te *TimeoutError
	)
	switch {
	case err == nil:
		return StatusPassed
	case errors.As(err, &ue):
		return StatusSkipped
	case errors.As(err, &fe):
		return StatusBroken
	case errors.As(err, &te) && te.Unreachable:
		return StatusUnreachable
	default:
		return StatusFailed
	}
}

// sanitizeFilename keeps letters, digits and safe punctuation, and maps
// separators to underscores.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		switch r {
		case '+', ',', '-', '.', '=', '~':
			return r
		case ' ', '/', '_', ':':
			return '_'
		default:
			return -1
		}
	}, name)
}

// DiffPath returns the file the last diff of check on node is written to.
func (r *Recorder) DiffPath(check, node string) string {
	return filepath.Join(filepath.Dir(r.path), sanitizeFilename(node+"_"+check)+".diff")
}

// Record appends a row for one check.
func (r *Recorder) Record(check string, node harness.Node, out *Outcome, verr error) (rerr error) {
	nodeName := ""
	if node != nil {
		nodeName = node.Name()
	}
	var te *TimeoutError
	if errors.As(verr, &te) {
		if err := os.WriteFile(r.DiffPath(check, nodeName), []byte(te.Diff), 0644); err != nil {
			return err
		}
	}
	var attempts int
	var elapsed time.Duration
	if out != nil {
		attempts, elapsed = out.Attempts, out.Elapsed
	}
	row := []string{
		r.runID,
		check,
		nodeName,
		Status(verr),
		fmt.Sprint(attempts),
		fmt.Sprintf("%.3f", elapsed.Seconds()),
		r.now().Format(timeformat),
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer closer.Close(&rerr, f.Close, "error closing convergence report")
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
