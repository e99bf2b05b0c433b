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

// Package matcher maps SBOM components onto catalog components.
package matcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/venslabs/sbomwatch/pkg/catalog"
)

// ErrMissingPurl is returned by a Heuristic for a component without package URL.
var ErrMissingPurl = errors.New("component has no package URL")

// Reason explains why a component is unmatched.
type Reason string

const (
	ReasonMissingPurl  Reason = "missing-purl"
	ReasonNotDerivable Reason = "not-derivable"
	ReasonNotFound     Reason = "not-found-in-catalog"
)

// Heuristic derives the catalog (name, version) pair for an SBOM component.
// It returns ErrMissingPurl when the component carries no package URL, and
// an empty name or version when no pair can be derived.
type Heuristic interface {
	Derive(c cyclonedx.Component) (name, version string, err error)
}

// Result is the outcome for one SBOM component: either Component is set,
// or Reason is.
type Result struct {
	BOM       cyclonedx.Component
	Component *catalog.Component
	Reason    Reason

	// Name and Version are the derived lookup key, empty when not derivable.
	Name    string
	Version string
}

func (r Result) Matched() bool { return r.Component != nil }

// Adapter resolves SBOM components against the catalog.
type Adapter struct {
	heuristic  Heuristic
	components catalog.Repository[catalog.Component]
}

func New(h Heuristic, components catalog.Repository[catalog.Component]) *Adapter {
	if h == nil {
		h = PurlHeuristic{}
	}
	return &Adapter{heuristic: h, components: components}
}

// Match classifies c. Per-component problems (no purl, no derivable pair,
// no active catalog entry) are reported through Result.Reason; only catalog
// service failures are returned as errors.
func (a *Adapter) Match(ctx context.Context, c cyclonedx.Component) (Result, error) {
	res := Result{BOM: c}

	name, version, err := a.heuristic.Derive(c)
	if errors.Is(err, ErrMissingPurl) {
		slog.WarnContext(ctx, "Ignoring BOM component due to missing PURL", "component", c.Name)
		res.Reason = ReasonMissingPurl
		return res, nil
	}
	if err != nil || name == "" || version == "" {
		slog.WarnContext(ctx, "Could not match BOM component", "component", c.Name, "purl", c.PackageURL, "error", err)
		res.Reason = ReasonNotDerivable
		return res, nil
	}
	res.Name, res.Version = name, version

	comp, err := catalog.From(a.components).
		Where("name", catalog.OpEq, name).
		Where("version", catalog.OpEq, version).
		Where("active", catalog.OpEq, "true").
		First(ctx)
	if err != nil {
		return res, err
	}
	if comp == nil {
		slog.InfoContext(ctx, "No catalog component found", "name", name, "version", version)
		res.Reason = ReasonNotFound
		return res, nil
	}

	slog.InfoContext(ctx, "Matched component", "name", comp.Name, "version", comp.Version, "id", comp.ID)
	res.Component = comp
	return res, nil
}
