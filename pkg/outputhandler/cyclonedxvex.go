package outputhandler

import (
	"io"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/matcher"
	"github.com/venslabs/sbomwatch/pkg/meter"
	"github.com/venslabs/sbomwatch/pkg/severity"
)

// NewCycloneDxVexOutputHandler returns an OutputHandler that accumulates the
// vulnerabilities reported for the monitoring list and emits a CycloneDX BOM
// on Close. Matched components become the BOM components and every
// vulnerability affects all of them, since notifications are raised per list.
func NewCycloneDxVexOutputHandler(w io.Writer) OutputHandler { return &cycloneDxVexWriter{w: w} }

type cycloneDxVexWriter struct {
	w      io.Writer
	comps  []cyclonedx.Component
	vulns  []cyclonedx.Vulnerability
	seen   map[string]int
	closed bool
}

func (c *cycloneDxVexWriter) HandleMatches(matched, _ []matcher.Result) error {
	for _, r := range matched {
		comp := cyclonedx.Component{
			BOMRef:     r.Component.ID,
			Type:       cyclonedx.ComponentTypeLibrary,
			Name:       r.Component.Name,
			Version:    r.Component.Version,
			PackageURL: r.BOM.PackageURL,
		}
		c.comps = append(c.comps, comp)
	}
	return nil
}

func (c *cycloneDxVexWriter) HandleNotifications(int) error { return nil }

func (c *cycloneDxVexWriter) HandleNotification(n catalog.Notification, vulns []catalog.Vulnerability) error {
	if c.seen == nil {
		c.seen = make(map[string]int)
	}
	for _, v := range vulns {
		id := v.CVE
		if id == "" {
			id = v.ID
		}
		// Several notifications may link the same vulnerability.
		if _, ok := c.seen[id]; ok {
			continue
		}
		c.seen[id] = len(c.vulns)

		vuln := cyclonedx.Vulnerability{
			BOMRef:      v.ID,
			ID:          id,
			Description: v.Description,
			Detail:      n.Title,
		}
		if r, ok := rating(v); ok {
			vuln.Ratings = &[]cyclonedx.VulnerabilityRating{r}
		}
		if len(c.comps) > 0 {
			affects := make([]cyclonedx.Affects, 0, len(c.comps))
			for _, comp := range c.comps {
				affects = append(affects, cyclonedx.Affects{Ref: comp.BOMRef})
			}
			vuln.Affects = &affects
		}
		c.vulns = append(c.vulns, vuln)
	}
	return nil
}

func rating(v catalog.Vulnerability) (cyclonedx.VulnerabilityRating, bool) {
	r := cyclonedx.VulnerabilityRating{Vector: v.CVSSVector}
	score := v.CVSS
	if v.CVSSVector != "" {
		if s, method, err := severity.BaseScore(v.CVSSVector); err == nil {
			r.Method = method
			if score == nil {
				score = &s
			}
		}
	}
	if score == nil {
		return r, false
	}
	r.Score = score
	r.Severity = severity.FromScore(*score).CycloneDX()
	return r, true
}

func (c *cycloneDxVexWriter) HandleCost(meter.Cost) error { return nil }

func (c *cycloneDxVexWriter) Close() error {
	if c.closed {
		return nil
	}
	bom := cyclonedx.NewBOM()
	if len(c.comps) > 0 {
		bom.Components = &c.comps
	}
	if len(c.vulns) > 0 {
		bom.Vulnerabilities = &c.vulns
	}

	enc := cyclonedx.NewBOMEncoder(c.w, cyclonedx.BOMFileFormatJSON)
	enc.SetPretty(true)
	if err := enc.Encode(bom); err != nil {
		return err
	}
	c.closed = true
	return nil
}
