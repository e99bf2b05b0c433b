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

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/venslabs/sbomwatch/cmd/sbomwatch/version"
	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/meter"
	"github.com/venslabs/sbomwatch/pkg/outputhandler"
	"github.com/venslabs/sbomwatch/pkg/pricing"
	"github.com/venslabs/sbomwatch/pkg/reconcile"
)

const (
	DefaultSBOM    = "bom.json"
	DefaultTimeout = 300 * time.Second
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "reconcile [flags] [SBOM]",
		Short:                 "Sync a monitoring list with an SBOM and report its notifications",
		Long:                  "Match the components of a CycloneDX SBOM (.json or .xml) against the catalog, replace the members of the monitoring list with the matches, and print the notifications and vulnerabilities raised for the list.",
		Example:               Example(),
		Args:                  cobra.MaximumNArgs(1),
		RunE:                  action,
		DisableFlagsInUseLine: true,
	}

	flags := cmd.Flags()
	flags.String("api-url", catalog.DefaultAPIURL, "Catalog API base URL")
	flags.String("token", "", "Catalog API token [$SBOMWATCH_TOKEN]")
	flags.String("list-name", reconcile.DefaultListName, "Name of the monitoring list")
	flags.String("list-comment", reconcile.DefaultListComment, "Comment of the monitoring list")
	flags.String("output-format", outputhandler.FormatAuto, fmt.Sprintf("Output format (%v)", outputhandler.Formats))
	flags.String("output", "", "Output file path (if not specified, prints to stdout)")
	flags.Bool("estimate-cost", true, "Count catalog calls and print the projected cost")
	flags.String("pricing-file", "", "Path to pricing.yaml (currency, perRequest, countWhere)")
	flags.Duration("timeout", DefaultTimeout, "Timeout for the whole run")

	return cmd
}

func Example() string {
	return `  # Reconcile bom.json in the current directory
  export SBOMWATCH_TOKEN=...
  sbomwatch reconcile

  # Use a named list and render tables
  sbomwatch reconcile --list-name payments --output-format table sbom.cdx.xml

  # Write a CycloneDX VEX with the reported vulnerabilities
  sbomwatch reconcile --output-format cyclonedxvex --output vex.cdx.json sbom.cdx.json`
}

func action(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	flags := cmd.Flags()

	sbomPath := DefaultSBOM
	if len(args) == 1 {
		sbomPath = args[0]
	}

	token, err := flags.GetString("token")
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("a catalog API token is required (--token or $SBOMWATCH_TOKEN)")
	}
	apiURL, err := flags.GetString("api-url")
	if err != nil {
		return err
	}
	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		return err
	}
	estimate, err := flags.GetBool("estimate-cost")
	if err != nil {
		return err
	}

	// Load pricing before touching the network so a bad file fails fast.
	prices := pricing.Default()
	if pricingPath, _ := flags.GetString("pricing-file"); pricingPath != "" {
		prices, err = pricing.Load(pricingPath)
		if err != nil {
			return fmt.Errorf("failed to load pricing file %q: %w", pricingPath, err)
		}
		slog.DebugContext(ctx, "Pricing loaded", "currency", prices.Currency, "perRequest", prices.Rate(), "policy", prices.Policy())
	}

	client, err := catalog.New(apiURL, token, catalog.WithUserAgent("sbomwatch/"+version.GetVersion()))
	if err != nil {
		return err
	}
	counter := meter.NewCounter()
	if estimate {
		client = meter.Wrap(client, counter, prices.Policy())
	}

	var w io.Writer = cmd.OutOrStdout()
	if outputPath, _ := flags.GetString("output"); outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	outputFormat, err := flags.GetString("output-format")
	if err != nil {
		return err
	}
	if outputFormat == "" || outputFormat == outputhandler.FormatAuto {
		outputFormat = outputhandler.FormatText
		slog.DebugContext(ctx, "Automatically choosing output format", "format", outputFormat)
	}
	h, err := outputhandler.New(outputFormat, w)
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck

	p := &reconcile.Pipeline{Client: client, Output: h}
	p.ListName, _ = flags.GetString("list-name")
	p.ListComment, _ = flags.GetString("list-comment")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := p.Run(ctx, sbomPath); err != nil {
		return err
	}

	if estimate {
		cost := prices.Estimate(counter.Count())
		slog.DebugContext(ctx, "Catalog calls", "count", cost.Calls, "policy", prices.Policy())
		if err := h.HandleCost(cost); err != nil {
			return err
		}
	}
	return h.Close()
}
