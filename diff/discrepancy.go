// Copyright 2025 Permdiff
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"sort"

	"github.com/permdiff/permdiff/perms"
)

// Discrepancy records one relative path whose permission metadata differs
// between the two compared trees. Source holds the snapshot from the first
// root, Target the snapshot from the second.
type Discrepancy struct {
	Path   string
	Source perms.Snapshot
	Target perms.Snapshot
}

// SortByPath orders discrepancies by relative path, ascending. Compare
// returns results in no particular order; callers sort before rendering.
func SortByPath(results []Discrepancy) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
}

// Summary holds aggregated statistics about a comparison run.
type Summary struct {
	Total         int
	Differing     int
	MissingSource int
	MissingTarget int
}

// HasDifferences returns true if any discrepancy was found.
func (s *Summary) HasDifferences() bool {
	return s.Total > 0
}

// CalculateSummary calculates summary statistics from a list of discrepancies.
func CalculateSummary(results []Discrepancy) Summary {
	summary := Summary{
		Total: len(results),
	}

	for _, result := range results {
		switch {
		case !result.Source.Accessible():
			summary.MissingSource++
		case !result.Target.Accessible():
			summary.MissingTarget++
		default:
			summary.Differing++
		}
	}

	return summary
}
