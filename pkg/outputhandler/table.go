// Copyright 2025 venslabs
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

package outputhandler

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/matcher"
	"github.com/venslabs/sbomwatch/pkg/meter"
	"github.com/venslabs/sbomwatch/pkg/severity"
)

type tableOutputHandler struct {
	w io.Writer

	matched, unmatched []matcher.Result
	notified           int
	rows               []table.Row
	cost               *meter.Cost
	closed             bool
}

// NewTableOutputHandler buffers the run and renders it as tables on Close.
func NewTableOutputHandler(w io.Writer) OutputHandler {
	if w == nil {
		w = os.Stdout
	}
	return &tableOutputHandler{w: w}
}

func (h *tableOutputHandler) HandleMatches(matched, unmatched []matcher.Result) error {
	h.matched = append(h.matched, matched...)
	h.unmatched = append(h.unmatched, unmatched...)
	return nil
}

func (h *tableOutputHandler) HandleNotifications(total int) error {
	h.notified = total
	return nil
}

func (h *tableOutputHandler) HandleNotification(n catalog.Notification, vulns []catalog.Vulnerability) error {
	if len(vulns) == 0 {
		h.rows = append(h.rows, table.Row{n.Title, "-", "-", "-", "No vulnerabilities linked."})
		return nil
	}
	for _, v := range vulns {
		sev := severity.Of(v.CVSS, v.CVSSVector)
		h.rows = append(h.rows, table.Row{n.Title, v.CVE, formatCVSS(v.CVSS), colorSeverity(sev), text.WrapSoft(v.Description, 60)})
	}
	return nil
}

func (h *tableOutputHandler) HandleCost(c meter.Cost) error {
	h.cost = &c
	return nil
}

func (h *tableOutputHandler) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	var b strings.Builder

	tw := table.NewWriter()
	tw.SetTitle("Matched Components: %d", len(h.matched))
	tw.AppendHeader(table.Row{"Name", "Version", "Catalog ID"})
	for _, r := range h.matched {
		tw.AppendRow(table.Row{r.Component.Name, r.Component.Version, r.Component.ID})
	}
	b.WriteString(tw.Render())
	b.WriteString("\n\n")

	tw = table.NewWriter()
	tw.SetTitle("Unmatched Components: %d", len(h.unmatched))
	tw.AppendHeader(table.Row{"Name", "Version", "PURL", "Reason"})
	for _, r := range h.unmatched {
		tw.AppendRow(table.Row{r.BOM.Name, r.BOM.Version, r.BOM.PackageURL, string(r.Reason)})
	}
	b.WriteString(tw.Render())
	b.WriteString("\n\n")

	if len(h.matched) > 0 {
		if h.notified == 0 {
			b.WriteString("No notifications found.\n\n")
		} else {
			tw = table.NewWriter()
			tw.SetTitle("Notifications: %d", h.notified)
			tw.AppendHeader(table.Row{"Notification", "CVE", "CVSS", "Severity", "Description"})
			tw.AppendRows(h.rows)
			tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
			b.WriteString(tw.Render())
			b.WriteString("\n\n")
		}
	}

	if h.cost != nil {
		tw = table.NewWriter()
		tw.SetTitle("Estimated cost")
		tw.AppendRows([]table.Row{
			{"Total API calls", h.cost.Calls},
			{"Weekly", fmt.Sprintf("%.2f %s", h.cost.Weekly, h.cost.Currency)},
			{"Monthly", fmt.Sprintf("%.2f %s", h.cost.Monthly, h.cost.Currency)},
			{"Yearly", fmt.Sprintf("%.2f %s", h.cost.Yearly, h.cost.Currency)},
		})
		b.WriteString(tw.Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(h.w, b.String())
	return err
}

func colorSeverity(l severity.Level) string {
	label := strings.ToUpper(string(l))
	switch l {
	case severity.Critical:
		return text.Colors{text.FgRed, text.Bold}.Sprint(label)
	case severity.High:
		return text.FgRed.Sprint(label)
	case severity.Medium:
		return text.FgYellow.Sprint(label)
	case severity.Low:
		return text.FgBlue.Sprint(label)
	default:
		return label
	}
}
