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

package outputhandler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/venslabs/sbomwatch/pkg/catalog"
	"github.com/venslabs/sbomwatch/pkg/matcher"
	"github.com/venslabs/sbomwatch/pkg/meter"
)

// OutputHandler renders a reconciliation run. Calls arrive in pipeline
// order: HandleMatches once, HandleNotifications once with the total, then
// HandleNotification per notification, HandleCost at most once, Close last.
// A run that stops at the no-match guard only sees HandleMatches and Close.
type OutputHandler interface {
	HandleMatches(matched, unmatched []matcher.Result) error
	HandleNotifications(total int) error
	HandleNotification(n catalog.Notification, vulns []catalog.Vulnerability) error
	HandleCost(c meter.Cost) error
	Close() error
}

const (
	FormatAuto         = "auto"
	FormatText         = "text"
	FormatTable        = "table"
	FormatCycloneDxVex = "cyclonedxvex"
)

// Formats lists the accepted --output-format values.
var Formats = []string{FormatAuto, FormatText, FormatTable, FormatCycloneDxVex}

// New returns the handler for format. "auto" and "" select text.
func New(format string, w io.Writer) (OutputHandler, error) {
	switch format {
	case "", FormatAuto, FormatText:
		return NewTextOutputHandler(w), nil
	case FormatTable:
		return NewTableOutputHandler(w), nil
	case FormatCycloneDxVex:
		return NewCycloneDxVexOutputHandler(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func formatCVSS(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64)
}
