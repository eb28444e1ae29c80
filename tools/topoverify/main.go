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

// The topoverify command verifies the converged state of a running
// network of FRRouting nodes against reference fixtures.
//
// Usage:
//
//	topoverify run --plan plan.yaml [--outputs-dir out]
//	topoverify compare CURRENT EXPECTED [--mode structured]
package main

import (
	log "github.com/golang/glog"
	"github.com/openconfig/topoverify/tools/topoverify/cmd"
)

func main() {
	defer log.Flush()
	if err := cmd.New().Execute(); err != nil {
		log.Exitf("topoverify: %v", err)
	}
}
