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

// Package severity turns CVSS scores and vectors into qualitative ratings.
package severity

import (
	"fmt"
	"strings"

	"github.com/CycloneDX/cyclonedx-go"
	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"
)

// Level is a CVSS qualitative severity rating.
type Level string

const (
	None     Level = "none"
	Low      Level = "low"
	Medium   Level = "medium"
	High     Level = "high"
	Critical Level = "critical"
	Unknown  Level = "unknown"
)

// FromScore rates a 0.0-10.0 base score using the CVSS v3 bands.
// Scores outside that range are Unknown.
func FromScore(score float64) Level {
	switch {
	case score < 0 || score > 10:
		return Unknown
	case score == 0:
		return None
	case score < 4.0:
		return Low
	case score < 7.0:
		return Medium
	case score < 9.0:
		return High
	default:
		return Critical
	}
}

// Of rates a score when present, otherwise the base score of vector.
func Of(score *float64, vector string) Level {
	if score != nil {
		return FromScore(*score)
	}
	if vector == "" {
		return Unknown
	}
	s, _, err := BaseScore(vector)
	if err != nil {
		return Unknown
	}
	return FromScore(s)
}

// BaseScore computes the base score of a CVSS vector and reports the
// scoring method it was parsed as. Vectors without a "CVSS:" prefix are
// taken as v2.0.
func BaseScore(vector string) (float64, cyclonedx.ScoringMethod, error) {
	switch {
	case strings.HasPrefix(vector, "CVSS:4.0/"):
		cvss, err := gocvss40.ParseVector(vector)
		if err != nil {
			return 0, "", fmt.Errorf("failed to parse CVSS v4.0 vector %q: %w", vector, err)
		}
		return cvss.Score(), cyclonedx.ScoringMethodCVSSv4, nil
	case strings.HasPrefix(vector, "CVSS:3.1/"):
		cvss, err := gocvss31.ParseVector(vector)
		if err != nil {
			return 0, "", fmt.Errorf("failed to parse CVSS v3.1 vector %q: %w", vector, err)
		}
		return cvss.BaseScore(), cyclonedx.ScoringMethodCVSSv31, nil
	case strings.HasPrefix(vector, "CVSS:3.0/"):
		cvss, err := gocvss30.ParseVector(vector)
		if err != nil {
			return 0, "", fmt.Errorf("failed to parse CVSS v3.0 vector %q: %w", vector, err)
		}
		return cvss.BaseScore(), cyclonedx.ScoringMethodCVSSv3, nil
	case strings.HasPrefix(vector, "CVSS:"):
		return 0, "", fmt.Errorf("unsupported CVSS version in vector %q", vector)
	default:
		cvss, err := gocvss20.ParseVector(vector)
		if err != nil {
			return 0, "", fmt.Errorf("failed to parse CVSS v2.0 vector %q: %w", vector, err)
		}
		return cvss.BaseScore(), cyclonedx.ScoringMethodCVSSv2, nil
	}
}

// CycloneDX maps l to the CycloneDX rating severity.
func (l Level) CycloneDX() cyclonedx.Severity {
	switch l {
	case None:
		return cyclonedx.SeverityNone
	case Low:
		return cyclonedx.SeverityLow
	case Medium:
		return cyclonedx.SeverityMedium
	case High:
		return cyclonedx.SeverityHigh
	case Critical:
		return cyclonedx.SeverityCritical
	default:
		return cyclonedx.SeverityUnknown
	}
}
