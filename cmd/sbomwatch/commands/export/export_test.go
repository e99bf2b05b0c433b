package export

import (
	"bytes"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tlsServer(t *testing.T, lists string, details map[string]string) (srv *httptest.Server, caFile string) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/portal/api/v1/common/monitoring_lists", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(lists))
	})
	mux.HandleFunc("/portal/api/v1/common/monitoring_lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, ok := details[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	srv = httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	caFile = filepath.Join(t.TempDir(), "ca-bundle.pem")
	require.NoError(t, os.WriteFile(caFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}), 0o600))
	return srv, caFile
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

func TestExport(t *testing.T) {
	srv, caFile := tlsServer(t, `["a", "b", "c"]`, map[string]string{
		"a": `{"id": "a", "name": "Firmware"}`,
		"c": `{"name": "Backend"}`,
	})
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "lists.xlsx")
	jsonPath := filepath.Join(dir, "lists.json")

	out, err := run(t, "--api-url", srv.URL+"/portal/api/v1/", "--ca-bundle", caFile,
		"--xlsx-output", xlsxPath, "--json-output", jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "Exported 2 records to "+xlsxPath+"\nExported 2 records to "+jsonPath+"\n", out)

	assert.FileExists(t, xlsxPath)
	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"name": "Backend",`+"\n"+`        "id": "c"`)
}

func TestExportNothing(t *testing.T) {
	srv, caFile := tlsServer(t, `["gone"]`, nil)
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "lists.xlsx")

	out, err := run(t, "--api-url", srv.URL+"/portal/api/v1", "--ca-bundle", caFile,
		"--xlsx-output", xlsxPath, "--json-output", filepath.Join(dir, "lists.json"))
	require.NoError(t, err)
	assert.Equal(t, "No data to export.\n", out)
	assert.NoFileExists(t, xlsxPath)
}

func TestExportUntrustedServer(t *testing.T) {
	srv, _ := tlsServer(t, `[]`, nil)

	_, err := run(t, "--api-url", srv.URL+"/portal/api/v1", "--xlsx-output", filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}

func TestExportBadClientCert(t *testing.T) {
	_, err := run(t, "--client-cert", filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
