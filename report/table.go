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
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableRenderer renders discrepancies as a bordered three-column table.
// With Styled set the output carries ANSI color for terminal display;
// unset, the same table renders plain for files and pipes.
type TableRenderer struct {
	Styled bool
}

func (r *TableRenderer) Render(w io.Writer, rep Report) error {
	if len(rep.Discrepancies) == 0 {
		_, err := io.WriteString(w, "No permission differences found.\n")
		return err
	}

	tw := table.NewWriter()
	tw.SetTitle("Permission Difference Report")
	tw.AppendHeader(table.Row{"File", rep.Root1, rep.Root2})
	for _, d := range sortedResults(rep.Discrepancies) {
		tw.AppendRow(table.Row{d.Path, d.Source.String(), d.Target.String()})
	}
	tw.SetCaption("%d differing paths", len(rep.Discrepancies))

	// The default style upcases header cells, which would mangle the root
	// paths shown there.
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	if r.Styled {
		style.Title.Colors = text.Colors{text.Bold, text.FgMagenta}
		style.Color.Header = text.Colors{text.Bold, text.FgBlue}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Colors: text.Colors{text.Italic, text.FgYellow}},
			{Number: 2, Colors: text.Colors{text.FgGreen}},
			{Number: 3, Colors: text.Colors{text.FgRed}},
		})
	}
	tw.SetStyle(style)

	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}
