package reconcile

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyCatalog answers every query with no data.
func emptyCatalog(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileNoMatches(t *testing.T) {
	srv, requests := emptyCatalog(t)

	out, err := run(t, "--api-url", srv.URL, "--token", "test-token", filepath.Join("testdata", "bom.json"))
	require.NoError(t, err)

	// two derivable components, one lookup each, then the no-match guard
	assert.Equal(t, int64(2), requests.Load())
	assert.Contains(t, out, "Matched Components: 0\n  None\n")
	assert.Contains(t, out, "Unmatched Components: 3\n")
	assert.Contains(t, out, "Total API calls: 8\n")
	assert.Contains(t, out, "Estimated weekly cost: 0.40 EUR\n")
	assert.Contains(t, out, "Estimated yearly cost: 20.80 EUR\n")
}

func TestReconcilePricingFile(t *testing.T) {
	srv, _ := emptyCatalog(t)
	pricingFile := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(pricingFile, []byte("currency: USD\nperRequest: 0.5\ncountWhere: false\n"), 0o600))

	out, err := run(t, "--api-url", srv.URL, "--token", "test-token", "--pricing-file", pricingFile, filepath.Join("testdata", "bom.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Total API calls: 2\n")
	assert.Contains(t, out, "Estimated weekly cost: 1.00 USD\n")
}

func TestReconcileWithoutEstimate(t *testing.T) {
	srv, _ := emptyCatalog(t)

	out, err := run(t, "--api-url", srv.URL, "--token", "test-token", "--estimate-cost=false", filepath.Join("testdata", "bom.json"))
	require.NoError(t, err)
	assert.NotContains(t, out, "Total API calls")
}

func TestReconcileOutputFile(t *testing.T) {
	srv, _ := emptyCatalog(t)
	outPath := filepath.Join(t.TempDir(), "vex.cdx.json")

	_, err := run(t, "--api-url", srv.URL, "--token", "test-token",
		"--output-format", "cyclonedxvex", "--output", outPath, filepath.Join("testdata", "bom.json"))
	require.NoError(t, err)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"bomFormat": "CycloneDX"`)
}

func TestReconcileErrors(t *testing.T) {
	srv, requests := emptyCatalog(t)
	bom := filepath.Join("testdata", "bom.json")

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing token", args: []string{"--api-url", srv.URL, bom}},
		{name: "unauthorized", args: []string{"--api-url", srv.URL, "--token", "wrong", bom}},
		{name: "unknown output format", args: []string{"--api-url", srv.URL, "--token", "test-token", "--output-format", "sarif", bom}},
		{name: "unsupported sbom", args: []string{"--api-url", srv.URL, "--token", "test-token", "bom.yaml"}},
		{name: "missing pricing file", args: []string{"--api-url", srv.URL, "--token", "test-token", "--pricing-file", "nope.yaml", bom}},
		{name: "too many args", args: []string{"a.json", "b.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
	// only the unauthorized case reaches the service
	assert.Equal(t, int64(1), requests.Load())
}
