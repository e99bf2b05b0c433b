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

package sbom

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/CycloneDX/cyclonedx-go"
)

// ErrUnsupportedFormat is returned for files that are neither .json nor .xml.
var ErrUnsupportedFormat = errors.New("SBOM file must end with .json or .xml")

// FormatOf picks the CycloneDX decoder from the file extension.
// The suffix match is case-sensitive: "bom.JSON" is rejected.
func FormatOf(path string) (cyclonedx.BOMFileFormat, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return cyclonedx.BOMFileFormatJSON, nil
	case strings.HasSuffix(path, ".xml"):
		return cyclonedx.BOMFileFormatXML, nil
	default:
		return 0, ErrUnsupportedFormat
	}
}

// Load decodes a CycloneDX SBOM from path. The extension is checked before
// the file is opened, so an unsupported path fails without touching the disk.
func Load(path string) (*cyclonedx.BOM, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	var bom cyclonedx.BOM
	if err := cyclonedx.NewBOMDecoder(f, format).Decode(&bom); err != nil {
		return nil, fmt.Errorf("failed to decode SBOM %q: %w", path, err)
	}
	return &bom, nil
}

// Components returns the top-level components of bom in document order.
// Nested components are not flattened.
func Components(bom *cyclonedx.BOM) []cyclonedx.Component {
	if bom == nil || bom.Components == nil {
		return nil
	}
	return *bom.Components
}
