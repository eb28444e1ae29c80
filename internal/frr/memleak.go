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

package frr

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	log "github.com/golang/glog"
	closer "github.com/openconfig/gocloser"
	"github.com/openconfig/topoverify/internal/harness"
	"github.com/spf13/afero"
)

// Leak is the stderr log of a daemon that reported allocations still held
// at exit.
type Leak struct {
	Daemon string
	Log    string
}

// LeakReport lists the leaking daemons of one node.
type LeakReport struct {
	Node  string
	Leaks []Leak
}

// Found reports whether any daemon leaked memory.
func (r *LeakReport) Found() bool { return len(r.Leaks) > 0 }

// MemoryLeaks reads <logDir>/<node>-<daemon>.err on node for each daemon and
// collects the logs that carry memstats output.
func MemoryLeaks(ctx context.Context, node harness.Node, daemons []string, logDir string) (*LeakReport, error) {
	r := &LeakReport{Node: node.Name()}
	for _, d := range daemons {
		file := path.Join(logDir, fmt.Sprintf("%s-%s.err", node.Name(), d))
		out, err := node.RunCommand(ctx, "cat "+shellQuote(file)+" 2>/dev/null")
		if err != nil {
			return nil, err
		}
		if !strings.Contains(out, "memstats") {
			continue
		}
		log.Warningf("%s %s leaked memory:\n%s", node.Name(), d, out)
		r.Leaks = append(r.Leaks, Leak{Daemon: d, Log: out})
	}
	return r, nil
}

var allocGroup = regexp.MustCompile(`(showing active allocations in memory group [a-zA-Z0-9]+)`)

// Markdown renders the report as a "## Router" section with one
// "### Process" subsection per leaking daemon.  It is empty when nothing
// leaked.
func (r *LeakReport) Markdown() string {
	if !r.Found() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Router %s\n", r.Node)
	for _, l := range r.Leaks {
		fmt.Fprintf(&b, "### Process %s\n", l.Daemon)
		text := strings.ReplaceAll(l.Log, "core_handler: ", "")
		text = allocGroup.ReplaceAllString(text, "\n#### ${1}\n")
		text = strings.ReplaceAll(text, "memstats:  ", "    ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// AppendLeakReport appends the reports that found leaks to the markdown file
// at name, writing a title header when the file is new.  Nothing is written
// when no report found a leak.
func AppendLeakReport(fsys afero.Fs, name, suite string, reports ...*LeakReport) (rerr error) {
	var body strings.Builder
	for _, r := range reports {
		body.WriteString(r.Markdown())
	}
	if body.Len() == 0 {
		return nil
	}
	exists, err := afero.Exists(fsys, name)
	if err != nil {
		return err
	}
	f, err := fsys.OpenFile(name, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer closer.Close(&rerr, f.Close, "error closing leak report")
	if !exists {
		fmt.Fprintf(f, "# Memory Leak Detection for topotest %s\n\n", suite)
	}
	_, err = f.WriteString(body.String())
	return err
}
