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

package rundata

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	gitv5 "github.com/go-git/go-git/v5"
	log "github.com/golang/glog"
)

// buildSettings are the build settings worth recording; the vcs.* settings
// are always kept.
var buildSettings = map[string]bool{
	"GOOS":        true,
	"GOARCH":      true,
	"CGO_ENABLED": true,
	"-race":       true,
}

func buildInfo(m map[string]string) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		log.Warning("No build info in the test binary.")
		return
	}
	m["build.go_version"] = bi.GoVersion
	m["build.path"] = bi.Path
	if bi.Main.Version != "" {
		m["build.main.version"] = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if buildSettings[s.Key] || strings.HasPrefix(s.Key, "vcs.") {
			m["build.settings."+s.Key] = s.Value
		}
	}
}

// gitInfo records the state of the git working tree containing dir and
// returns the root of the working tree, or "" when dir is not in one.
func gitInfo(m map[string]string, dir string) string {
	repo, err := gitv5.PlainOpenWithOptions(dir, &gitv5.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}

	if origin, err := repo.Remote("origin"); err != nil {
		log.Warningf("Could not get git origin: %v", err)
	} else if urls := origin.Config().URLs; len(urls) > 0 {
		m["git.origin"] = urls[0]
	}

	if err := gitHead(m, repo); err != nil {
		log.Warningf("Could not get git HEAD: %v", err)
	}

	if status, err := wt.Status(); err != nil {
		log.Warningf("Could not get git status: %v", err)
	} else {
		m["git.status"] = status.String()
		m["git.clean"] = fmt.Sprint(status.IsClean())
	}
	return wt.Filesystem.Root()
}

func gitHead(m map[string]string, repo *gitv5.Repository) error {
	head, err := repo.Head()
	if err != nil {
		return err
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return err
	}
	m["git.commit"] = commit.Hash.String()
	m["git.commit_timestamp"] = fmt.Sprint(commit.Committer.When.Unix())
	return nil
}

// modulePath returns the part of a package path below the topoverify
// module, or "" for packages outside of it.
func modulePath(pkg string) string {
	const part = "/topoverify/"
	i := strings.LastIndex(pkg, part)
	if i < 0 {
		return ""
	}
	return pkg[i+len(part):]
}

// testPath returns the directory of the calling test relative to the
// working tree root wt.  Outside a working tree it falls back to the
// package path of the test below the module.
func testPath(wt string) string {
	var pcs [32]uintptr
	frames := runtime.CallersFrames(pcs[:runtime.Callers(0, pcs[:])])
	for {
		frame, more := frames.Next()
		if strings.HasSuffix(frame.File, "_test.go") {
			if wt == "" {
				pkg := frame.Function
				slash := strings.LastIndexByte(pkg, '/')
				if dot := strings.IndexByte(pkg[slash+1:], '.'); dot >= 0 {
					pkg = pkg[:slash+1+dot]
				}
				return modulePath(pkg)
			}
			rel, err := filepath.Rel(wt, filepath.Dir(frame.File))
			if err != nil || strings.HasPrefix(rel, "..") {
				return ""
			}
			return rel
		}
		if !more {
			return ""
		}
	}
}

// argInfo records the -arg_ flags of fs that were set away from their
// default.
func argInfo(m map[string]string, fs *flag.FlagSet) {
	const prefix = "arg_"
	fs.Visit(func(f *flag.Flag) {
		if !strings.HasPrefix(f.Name, prefix) || f.Value.String() == f.DefValue {
			return
		}
		m["arg."+strings.TrimPrefix(f.Name, prefix)] = f.Value.String()
	})
}

var timeBegin = time.Now()

// local records the properties that do not need the network.
func local(m map[string]string, fs *flag.FlagSet) {
	buildInfo(m)
	wd, err := os.Getwd()
	if err != nil {
		log.Warningf("Could not get the working directory: %v", err)
	}
	wt := ""
	if wd != "" {
		wt = gitInfo(m, wd)
	}
	if tp := testPath(wt); tp != "" {
		m["test.path"] = tp
	}
	argInfo(m, fs)
	m["time.begin"] = fmt.Sprint(timeBegin.Unix())
	m["time.end"] = fmt.Sprint(time.Now().Unix())
}
