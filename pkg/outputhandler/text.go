package outputhandler

import (
	"fmt"
	"io"
	"os"

	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/matcher"
	"github.com/venslabs/sbomwatch/pkg/meter"
)

// NewTextOutputHandler returns the plain console report. Output is written
// as the pipeline progresses, so a failed run still shows what it got to.
func NewTextOutputHandler(w io.Writer) OutputHandler {
	if w == nil {
		w = os.Stdout
	}
	return &textOutputHandler{w: w}
}

type textOutputHandler struct {
	w   io.Writer
	err error
}

func (h *textOutputHandler) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func (h *textOutputHandler) HandleMatches(matched, unmatched []matcher.Result) error {
	h.printf("\nMatched Components: %d\n", len(matched))
	if len(matched) == 0 {
		h.printf("  None\n")
	}
	for _, r := range matched {
		h.printf("  - %s %s (ID: %s)\n", r.Component.Name, r.Component.Version, r.Component.ID)
	}

	h.printf("\nUnmatched Components: %d\n", len(unmatched))
	if len(unmatched) == 0 {
		h.printf("  None\n")
	}
	for _, r := range unmatched {
		h.printf("  - %s %s (PURL: %s) [%s]\n", r.BOM.Name, r.BOM.Version, r.BOM.PackageURL, r.Reason)
	}
	return h.err
}

func (h *textOutputHandler) HandleNotifications(total int) error {
	if total == 0 {
		h.printf("\nNo notifications found.\n")
		return h.err
	}
	h.printf("\nFound %d notifications:\n\n", total)
	return h.err
}

func (h *textOutputHandler) HandleNotification(n catalog.Notification, vulns []catalog.Vulnerability) error {
	h.printf("Title: %s\n", n.Title)
	h.printf("Description:\n %s\n", n.Description)
	h.printf("Vulnerabilities:\n")
	if len(n.VulnerabilityIDs) == 0 {
		h.printf("No vulnerabilities linked.\n")
		return h.err
	}
	for _, v := range vulns {
		h.printf("  CVE: %s\n", v.CVE)
		h.printf("  CVSS: %s\n", formatCVSS(v.CVSS))
		h.printf("  Description: %s\n", v.Description)
	}
	return h.err
}

func (h *textOutputHandler) HandleCost(c meter.Cost) error {
	h.printf("\nTotal API calls: %d\n", c.Calls)
	h.printf("Estimated weekly cost: %.2f %s\n", c.Weekly, c.Currency)
	h.printf("Estimated monthly cost: %.2f %s\n", c.Monthly, c.Currency)
	h.printf("Estimated yearly cost: %.2f %s\n", c.Yearly, c.Currency)
	return h.err
}

func (h *textOutputHandler) Close() error {
	return h.err
}
