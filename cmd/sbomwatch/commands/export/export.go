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

package export

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/venslabs/sbomwatch/pkg/export"
)

const DefaultTimeout = 300 * time.Second

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "export [flags]",
		Short:                 "Export all monitoring lists to XLSX and JSON",
		Long:                  "Fetch every monitoring list from the certificate authenticated monitoring API and write them to a spreadsheet and a JSON file. Lists whose details cannot be fetched are skipped with a warning.",
		Example:               Example(),
		Args:                  cobra.NoArgs,
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("api-url", export.DefaultAPIURL, "Monitoring API base URL")
	flags.String("client-cert", "", "PEM client certificate chain")
	flags.String("client-key", "", "PEM client private key (defaults to --client-cert)")
	flags.String("client-key-passphrase", "", "Passphrase of an encrypted client key [$SBOMWATCH_CLIENT_KEY_PASSPHRASE]")
	flags.String("ca-bundle", "", "PEM CA bundle used to verify the server (defaults to the system roots)")
	flags.String("xlsx-output", export.DefaultXLSXOutput, "Spreadsheet output path")
	flags.String("json-output", export.DefaultJSONOutput, "JSON output path")
	flags.Duration("timeout", DefaultTimeout, "Timeout for the whole export")

	return cmd
}

func Example() string {
	return `  # Export with an encrypted client key
  export SBOMWATCH_CLIENT_KEY_PASSPHRASE=...
  sbomwatch export --client-cert certificate.pem --client-key pri-key.pem --ca-bundle ca-bundle.pem`
}

func action(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	flags := cmd.Flags()

	apiURL, _ := flags.GetString("api-url")
	certFile, _ := flags.GetString("client-cert")
	keyFile, _ := flags.GetString("client-key")
	passphrase, _ := flags.GetString("client-key-passphrase")
	caBundle, _ := flags.GetString("ca-bundle")
	xlsxPath, _ := flags.GetString("xlsx-output")
	jsonPath, _ := flags.GetString("json-output")
	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		return err
	}

	// The TLS material is loaded before any request is made.
	tlsConfig, err := export.NewTLSConfig(certFile, keyFile, passphrase, caBundle)
	if err != nil {
		return err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	client, err := export.NewClient(apiURL, &http.Client{Transport: transport, Timeout: timeout})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	records, err := client.Collect(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No data to export.")
		return err
	}
	if err := export.WriteXLSX(xlsxPath, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d records to %s\n", len(records), xlsxPath) //nolint:errcheck
	if err := export.WriteJSON(jsonPath, records); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %d records to %s\n", len(records), jsonPath) //nolint:errcheck
	return nil
}
