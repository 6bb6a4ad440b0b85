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

package report

import (
	"fmt"
	"io"
	"strings"
)

// TextRenderer renders the plain text report.
type TextRenderer struct{}

func (TextRenderer) Render(w io.Writer, rep Report) error {
	var b strings.Builder
	b.WriteString("Permission Difference Report\n")
	fmt.Fprintf(&b, "Comparing: %s vs %s\n\n", rep.Root1, rep.Root2)

	if len(rep.Discrepancies) == 0 {
		b.WriteString("No permission differences found.\n")
	} else {
		for _, d := range sortedResults(rep.Discrepancies) {
			fmt.Fprintf(&b, "File: %s\n", d.Path)
			fmt.Fprintf(&b, "  %s: %s\n", rep.Root1, d.Source)
			fmt.Fprintf(&b, "  %s: %s\n", rep.Root2, d.Target)
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
