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

package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/venslabs/sbomwatch/cmd/sbomwatch/commands/export"
	"github.com/venslabs/sbomwatch/cmd/sbomwatch/commands/reconcile"
	"github.com/venslabs/sbomwatch/cmd/sbomwatch/config"
	"github.com/venslabs/sbomwatch/cmd/sbomwatch/version"
)

var logLevel = new(slog.LevelVar)

func main() {
	logHandler := tint.NewHandler(os.Stderr, &tint.Options{Level: logLevel, TimeFormat: time.Kitchen})
	slog.SetDefault(slog.New(logHandler))
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("Error", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sbomwatch",
		Short: "Keep a vulnerability monitoring list in sync with an SBOM",
		Long: `Match the components of a CycloneDX SBOM against a vulnerability catalog,
keep a monitoring list with the matches, and report the notifications raised for it.

Flags can also be set in ./.sbomwatch.yaml, ~/.sbomwatch.yaml, or through
environment variables with the SBOMWATCH_ prefix (e.g. SBOMWATCH_TOKEN).`,
		Example:       reconcile.Example(),
		Version:       version.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.Bool("debug", false, "debug mode [$SBOMWATCH_DEBUG]")
	flags.String(config.FlagConfigFile, "", "config file (default .sbomwatch.yaml in the working directory or $HOME)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(cmd, viper.New()); err != nil {
			return err
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logLevel.Set(slog.LevelDebug)
		}
		return nil
	}

	cmd.AddCommand(
		reconcile.New(),
		export.New(),
		version.New(),
	)
	return cmd
}
