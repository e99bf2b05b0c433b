package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/catalog/catalogtest"
)

func TestPurlHeuristic(t *testing.T) {
	tests := []struct {
		name        string
		component   cyclonedx.Component
		wantName    string
		wantVersion string
		wantErr     error
		wantAnyErr  bool
	}{
		{
			name:      "missing purl",
			component: cyclonedx.Component{Name: "thing", Version: "1.0"},
			wantErr:   ErrMissingPurl,
		},
		{
			name:      "blank purl",
			component: cyclonedx.Component{Name: "thing", PackageURL: "   "},
			wantErr:   ErrMissingPurl,
		},
		{
			name:       "invalid purl",
			component:  cyclonedx.Component{Name: "thing", PackageURL: "not-a-purl"},
			wantAnyErr: true,
		},
		{
			name:        "pypi",
			component:   cyclonedx.Component{PackageURL: "pkg:pypi/requests@2.31.0"},
			wantName:    "requests",
			wantVersion: "2.31.0",
		},
		{
			name:        "npm scoped",
			component:   cyclonedx.Component{PackageURL: "pkg:npm/%40angular/core@17.0.1"},
			wantName:    "@angular/core",
			wantVersion: "17.0.1",
		},
		{
			name:        "golang",
			component:   cyclonedx.Component{PackageURL: "pkg:golang/github.com/pkg/errors@v0.9.1"},
			wantName:    "github.com/pkg/errors",
			wantVersion: "v0.9.1",
		},
		{
			name:        "maven",
			component:   cyclonedx.Component{PackageURL: "pkg:maven/org.apache.logging.log4j/log4j-core@2.14.1"},
			wantName:    "org.apache.logging.log4j:log4j-core",
			wantVersion: "2.14.1",
		},
		{
			name:        "deb drops namespace",
			component:   cyclonedx.Component{PackageURL: "pkg:deb/debian/openssl@3.0.11-1?arch=amd64"},
			wantName:    "openssl",
			wantVersion: "3.0.11-1",
		},
		{
			name:        "version falls back to component",
			component:   cyclonedx.Component{Version: "1.3", PackageURL: "pkg:generic/zlib"},
			wantName:    "zlib",
			wantVersion: "1.3",
		},
		{
			name:        "no version anywhere",
			component:   cyclonedx.Component{PackageURL: "pkg:generic/zlib"},
			wantName:    "zlib",
			wantVersion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, version, err := PurlHeuristic{}.Derive(tt.component)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.wantAnyErr:
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func seededStore() *catalogtest.Store {
	store := catalogtest.NewStore()
	store.Components.Add(
		catalog.Component{ID: "c-zlib", Name: "zlib", Version: "1.3", Active: true},
		catalog.Component{ID: "c-old", Name: "openssl", Version: "1.0.2", Active: false},
	)
	return store
}

func TestAdapterMatch(t *testing.T) {
	tests := []struct {
		name        string
		component   cyclonedx.Component
		wantReason  Reason
		wantID      string
		wantLookups int
	}{
		{
			name:        "missing purl never hits the catalog",
			component:   cyclonedx.Component{Name: "vendored", Version: "0.1"},
			wantReason:  ReasonMissingPurl,
			wantLookups: 0,
		},
		{
			name:        "underivable never hits the catalog",
			component:   cyclonedx.Component{Name: "zlib", PackageURL: "pkg:generic/zlib"},
			wantReason:  ReasonNotDerivable,
			wantLookups: 0,
		},
		{
			name:        "invalid purl is underivable",
			component:   cyclonedx.Component{Name: "zlib", PackageURL: "zlib@1.3"},
			wantReason:  ReasonNotDerivable,
			wantLookups: 0,
		},
		{
			name:        "inactive only is a lookup miss",
			component:   cyclonedx.Component{Name: "openssl", PackageURL: "pkg:generic/openssl@1.0.2"},
			wantReason:  ReasonNotFound,
			wantLookups: 1,
		},
		{
			name:        "unknown version is a lookup miss",
			component:   cyclonedx.Component{Name: "zlib", PackageURL: "pkg:generic/zlib@1.2.11"},
			wantReason:  ReasonNotFound,
			wantLookups: 1,
		},
		{
			name:        "active match",
			component:   cyclonedx.Component{Name: "zlib", PackageURL: "pkg:generic/zlib@1.3"},
			wantID:      "c-zlib",
			wantLookups: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			a := New(nil, store.Components)

			res, err := a.Match(context.Background(), tt.component)
			require.NoError(t, err)
			assert.Equal(t, tt.component, res.BOM)
			assert.Equal(t, tt.wantLookups, store.Components.Calls("first"))

			if tt.wantID != "" {
				require.True(t, res.Matched())
				assert.Equal(t, tt.wantID, res.Component.ID)
				assert.Empty(t, res.Reason)
				return
			}
			assert.False(t, res.Matched())
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestAdapterLookupUsesThreeFilters(t *testing.T) {
	store := seededStore()
	a := New(PurlHeuristic{}, store.Components)

	_, err := a.Match(context.Background(), cyclonedx.Component{PackageURL: "pkg:generic/zlib@1.3"})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Components.Calls("where"))
	assert.Equal(t, 1, store.Components.Calls("first"))
}

func TestAdapterServiceErrorPropagates(t *testing.T) {
	store := seededStore()
	store.Components.FailOn("first", errors.New("unavailable"))
	a := New(nil, store.Components)

	_, err := a.Match(context.Background(), cyclonedx.Component{PackageURL: "pkg:generic/zlib@1.3"})
	require.Error(t, err)
	assert.True(t, catalog.IsServiceError(err))
}

type stubHeuristic struct {
	name, version string
	err           error
}

func (s stubHeuristic) Derive(cyclonedx.Component) (string, string, error) {
	return s.name, s.version, s.err
}

func TestAdapterCustomHeuristic(t *testing.T) {
	store := seededStore()

	res, err := New(stubHeuristic{name: "zlib", version: "1.3"}, store.Components).
		Match(context.Background(), cyclonedx.Component{Name: "anything"})
	require.NoError(t, err)
	assert.True(t, res.Matched())
	assert.Equal(t, "zlib", res.Name)

	res, err = New(stubHeuristic{err: errors.New("nope")}, store.Components).
		Match(context.Background(), cyclonedx.Component{Name: "anything"})
	require.NoError(t, err)
	assert.Equal(t, ReasonNotDerivable, res.Reason)
}
