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

// Package config layers the config file and environment under the command line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "SBOMWATCH"
	FileName       = ".sbomwatch"
	FlagConfigFile = "config"
)

// Initialize reads the config file (the --config flag, or .sbomwatch.yaml
// in the working directory or $HOME) and SBOMWATCH_* variables into v, then
// copies every value into the flags of cmd the user did not set.
// Precedence is flag > environment > file > default.
func Initialize(cmd *cobra.Command, v *viper.Viper) error {
	cfgFile, _ := cmd.Flags().GetString(FlagConfigFile)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "could not read config file")
		}
		slog.Debug("No config file found")
	} else {
		slog.Debug("Using config file", "path", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(EnvPrefix)
	// SBOMWATCH_API_URL for --api-url
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return bindFlags(cmd, v)
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == FlagConfigFile {
			return
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := setFlag(cmd.Flags(), f, v.Get(f.Name)); err != nil {
				errs = append(errs, err)
			}
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return errors.Wrap(errs[0], "invalid configuration")
	}
	return nil
}

func setFlag(flags *pflag.FlagSet, f *pflag.Flag, val any) error {
	s := fmt.Sprintf("%v", val)
	if list, ok := val.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, p := range list {
			parts = append(parts, fmt.Sprintf("%v", p))
		}
		s = strings.Join(parts, ",")
	}
	return errors.Wrapf(flags.Set(f.Name, s), "flag --%s", f.Name)
}
