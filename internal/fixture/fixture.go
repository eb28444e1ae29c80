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

// Package fixture loads the reference documents that scenario checks compare
// live node output against.
//
// Fixtures are addressed by a slash separated name relative to a root
// directory, e.g. "r1/ospf_srdb.json".  Files ending in .json must hold a
// JSON document, files ending in .yaml or .yml are converted to canonical
// JSON, and any other file is a free-text reference.
package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/openconfig/topoverify/internal/structdiff"
	"github.com/spf13/afero"
)

// Error reports a fixture that could not be loaded or parsed.  It always
// indicates a defect in the test, never in the system under test.
type Error struct {
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fixture %q: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fixture is a loaded reference document.
type Fixture struct {
	Name string
	// Text is the document as compared.  YAML fixtures hold their canonical
	// JSON rendering here.
	Text string
	// Structured is true for JSON and YAML fixtures.
	Structured bool
}

// Loader reads fixtures below a root directory.
type Loader struct {
	fs   afero.Fs
	root string
}

// NewLoader returns a Loader reading from the OS filesystem.
func NewLoader(root string) *Loader {
	return NewLoaderFS(afero.NewOsFs(), root)
}

// NewLoaderFS returns a Loader reading from fsys.
func NewLoaderFS(fsys afero.Fs, root string) *Loader {
	return &Loader{fs: afero.NewReadOnlyFs(fsys), root: root}
}

// Root returns the directory fixtures are resolved against.
func (l *Loader) Root() string { return l.root }

func (l *Loader) path(name string) (string, error) {
	clean := path.Clean("/" + name)
	if name == "" || clean == "/" {
		return "", errors.New("empty fixture name")
	}
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Exists reports whether the named fixture is present.  Suites use it to
// skip nodes that have no reference for a given command.
func (l *Loader) Exists(name string) bool {
	p, err := l.path(name)
	if err != nil {
		return false
	}
	fi, err := l.fs.Stat(p)
	return err == nil && !fi.IsDir()
}

// Load reads and validates the named fixture.  All errors are *Error.
func (l *Loader) Load(name string) (*Fixture, error) {
	p, err := l.path(name)
	if err != nil {
		return nil, &Error{Name: name, Err: err}
	}
	data, err := afero.ReadFile(l.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("not found under %s", l.root)
		}
		return nil, &Error{Name: name, Err: err}
	}

	f := &Fixture{Name: name, Text: string(data)}
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		if _, err := structdiff.Parse(f.Text); err != nil {
			return nil, &Error{Name: name, Err: fmt.Errorf("invalid JSON: %w", err)}
		}
		f.Structured = true
	case ".yaml", ".yml":
		js, err := structdiff.YAMLToJSON(data)
		if err != nil {
			return nil, &Error{Name: name, Err: fmt.Errorf("invalid YAML: %w", err)}
		}
		f.Text, f.Structured = js, true
	}
	return f, nil
}
