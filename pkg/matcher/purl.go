package matcher

import (
	"fmt"
	"strings"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/package-url/packageurl-go"
)

// PurlHeuristic derives the catalog key from the component's package URL.
//
// The catalog names most packages by their bare purl name. Ecosystems whose
// names are only unique together with the namespace keep it:
// golang and npm as "namespace/name", maven as "group:artifact".
// The purl version wins over the component version.
type PurlHeuristic struct{}

func (PurlHeuristic) Derive(c cyclonedx.Component) (string, string, error) {
	raw := strings.TrimSpace(c.PackageURL)
	if raw == "" {
		return "", "", ErrMissingPurl
	}
	p, err := packageurl.FromString(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid package URL %q: %w", raw, err)
	}

	version := p.Version
	if version == "" {
		version = c.Version
	}
	return CatalogName(p), version, nil
}

// CatalogName returns the catalog component name for p.
func CatalogName(p packageurl.PackageURL) string {
	if p.Namespace == "" {
		return p.Name
	}
	switch p.Type {
	case packageurl.TypeGolang, packageurl.TypeNPM:
		return p.Namespace + "/" + p.Name
	case packageurl.TypeMaven:
		return p.Namespace + ":" + p.Name
	default:
		return p.Name
	}
}
