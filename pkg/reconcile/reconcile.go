// Copyright 2026 venslabs
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

// Package reconcile keeps a catalog monitoring list in sync with an SBOM
// and reports the notifications raised for it.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/matcher"
	"github.com/venslabs/sbomwatch/pkg/outputhandler"
	"github.com/venslabs/sbomwatch/pkg/sbom"
)

const (
	DefaultListName    = "Monitoring list for SBOM"
	DefaultListComment = "Auto-generated from SBOM import"
)

// Pipeline runs one reconciliation. Client is usually a metered client;
// Output receives every report event.
type Pipeline struct {
	Client  *catalog.Client
	Matcher *matcher.Adapter
	Output  outputhandler.OutputHandler

	ListName    string
	ListComment string
}

// Summary describes what a run did.
type Summary struct {
	Matched       []matcher.Result
	Unmatched     []matcher.Result
	List          *catalog.MonitoringList
	ListCreated   bool
	Notifications int
}

func (p *Pipeline) validate() error {
	if p.Client == nil || p.Output == nil {
		return errors.New("pipeline needs a catalog client and an output handler")
	}
	if p.Matcher == nil {
		p.Matcher = matcher.New(nil, p.Client.Components)
	}
	if p.ListName == "" {
		p.ListName = DefaultListName
	}
	if p.ListComment == "" {
		p.ListComment = DefaultListComment
	}
	return nil
}

// Run loads the SBOM at path and reconciles it. Output.Close is left to the caller.
func (p *Pipeline) Run(ctx context.Context, path string) (*Summary, error) {
	bom, err := sbom.Load(path)
	if err != nil {
		return nil, err
	}
	return p.RunBOM(ctx, bom)
}

// RunBOM reconciles an already decoded SBOM.
func (p *Pipeline) RunBOM(ctx context.Context, bom *cyclonedx.BOM) (*Summary, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, c := range sbom.Components(bom) {
		res, err := p.Matcher.Match(ctx, c)
		if err != nil {
			return sum, fmt.Errorf("failed to match component %q: %w", c.Name, err)
		}
		if res.Matched() {
			sum.Matched = append(sum.Matched, res)
		} else {
			sum.Unmatched = append(sum.Unmatched, res)
		}
	}
	if err := p.Output.HandleMatches(sum.Matched, sum.Unmatched); err != nil {
		return sum, err
	}

	if len(sum.Matched) == 0 {
		slog.WarnContext(ctx, "No matched components found. Exiting.")
		return sum, nil
	}

	ml, created, err := p.upsertList(ctx)
	if err != nil {
		return sum, err
	}
	sum.List, sum.ListCreated = ml, created

	ml.Components = make([]catalog.Component, 0, len(sum.Matched))
	for _, r := range sum.Matched {
		ml.Components = append(ml.Components, *r.Component)
	}
	if err := p.Client.MonitoringLists.Update(ctx, ml); err != nil {
		return sum, fmt.Errorf("failed to update monitoring list %s: %w", ml.ID, err)
	}
	slog.InfoContext(ctx, "Monitoring list updated", "id", ml.ID, "components", len(ml.Components))

	notifications, err := catalog.From(p.Client.Notifications).
		Where("monitoringLists.id", catalog.OpAny, ml.ID).
		All(ctx)
	if err != nil {
		return sum, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	sum.Notifications = len(notifications)
	if err := p.Output.HandleNotifications(len(notifications)); err != nil {
		return sum, err
	}

	for _, n := range notifications {
		var vulns []catalog.Vulnerability
		if len(n.VulnerabilityIDs) > 0 {
			vulns, err = catalog.From(p.Client.Vulnerabilities).
				Where("id", catalog.OpIn, n.VulnerabilityIDs...).
				All(ctx)
			if err != nil {
				return sum, fmt.Errorf("failed to fetch vulnerabilities of notification %s: %w", n.ID, err)
			}
		}
		if err := p.Output.HandleNotification(n, vulns); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// upsertList finds the list by name and comment, creating it when absent.
func (p *Pipeline) upsertList(ctx context.Context) (*catalog.MonitoringList, bool, error) {
	ml, err := catalog.From(p.Client.MonitoringLists).
		Where("name", catalog.OpEq, p.ListName).
		Where("comment", catalog.OpEq, p.ListComment).
		First(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up monitoring list: %w", err)
	}
	if ml != nil {
		slog.InfoContext(ctx, "Using existing monitoring list", "id", ml.ID)
		return ml, false, nil
	}

	ml = &catalog.MonitoringList{Name: p.ListName, Comment: p.ListComment}
	if err := p.Client.MonitoringLists.Create(ctx, ml); err != nil {
		return nil, false, fmt.Errorf("failed to create monitoring list: %w", err)
	}
	slog.InfoContext(ctx, "Created new monitoring list", "id", ml.ID)
	return ml, true, nil
}
