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

package catalog

import (
	"fmt"
	"strconv"

	"github.com/venslabs/sbomwatch/pkg/api/types"
)

// JSON:API resource types, which double as collection paths.
const (
	TypeMonitoringLists = "monitoringLists"
	TypeComponents      = "components"
	TypeNotifications   = "notifications"
	TypeVulnerabilities = "vulnerabilities"
)

// Component is the catalog's canonical record for one software component version.
type Component struct {
	ID      string
	Name    string
	Version string
	Active  bool
}

// MonitoringList is a named group of components the service raises notifications for.
// Components is the complete membership; an update replaces it as a whole.
type MonitoringList struct {
	ID         string
	Name       string
	Comment    string
	Components []Component
}

// Notification is an alert attached to one or more monitoring lists.
type Notification struct {
	ID                string
	Title             string
	Description       string
	VulnerabilityIDs  []string
	MonitoringListIDs []string
}

// Vulnerability is a CVE-level record. CVSS is nil when the service has no score.
type Vulnerability struct {
	ID          string
	CVE         string
	CVSS        *float64
	CVSSVector  string
	Description string
}

// kind binds a Go resource type to its JSON:API representation.
type kind[R any] struct {
	typ    string
	decode func(types.Resource) (R, error)
	encode func(R) types.Resource
	id     func(R) string
	setID  func(*R, string)
}

var componentKind = kind[Component]{
	typ: TypeComponents,
	decode: func(r types.Resource) (Component, error) {
		active, err := boolAttr(r.Attributes, "active")
		if err != nil {
			return Component{}, err
		}
		return Component{
			ID:      r.ID,
			Name:    stringAttr(r.Attributes, "name"),
			Version: stringAttr(r.Attributes, "version"),
			Active:  active,
		}, nil
	},
	encode: func(c Component) types.Resource {
		return types.Resource{
			Type: TypeComponents,
			ID:   c.ID,
			Attributes: map[string]any{
				"name":    c.Name,
				"version": c.Version,
				"active":  c.Active,
			},
		}
	},
	id:    func(c Component) string { return c.ID },
	setID: func(c *Component, id string) { c.ID = id },
}

var monitoringListKind = kind[MonitoringList]{
	typ: TypeMonitoringLists,
	decode: func(r types.Resource) (MonitoringList, error) {
		ml := MonitoringList{
			ID:      r.ID,
			Name:    stringAttr(r.Attributes, "name"),
			Comment: stringAttr(r.Attributes, "comment"),
		}
		for _, id := range r.IDs("components") {
			ml.Components = append(ml.Components, Component{ID: id})
		}
		return ml, nil
	},
	encode: func(ml MonitoringList) types.Resource {
		// Always send the relationship, even when empty, so that an update
		// replaces the membership instead of leaving it untouched.
		members := make([]types.Identifier, 0, len(ml.Components))
		for _, c := range ml.Components {
			members = append(members, types.Identifier{Type: TypeComponents, ID: c.ID})
		}
		return types.Resource{
			Type: TypeMonitoringLists,
			ID:   ml.ID,
			Attributes: map[string]any{
				"name":    ml.Name,
				"comment": ml.Comment,
			},
			Relationships: map[string]types.Relationship{
				"components": {Data: members},
			},
		}
	},
	id:    func(ml MonitoringList) string { return ml.ID },
	setID: func(ml *MonitoringList, id string) { ml.ID = id },
}

var notificationKind = kind[Notification]{
	typ: TypeNotifications,
	decode: func(r types.Resource) (Notification, error) {
		return Notification{
			ID:                r.ID,
			Title:             stringAttr(r.Attributes, "title"),
			Description:       stringAttr(r.Attributes, "description"),
			VulnerabilityIDs:  r.IDs("vulnerabilities"),
			MonitoringListIDs: r.IDs("monitoringLists"),
		}, nil
	},
	encode: func(n Notification) types.Resource {
		return types.Resource{
			Type: TypeNotifications,
			ID:   n.ID,
			Attributes: map[string]any{
				"title":       n.Title,
				"description": n.Description,
			},
			Relationships: map[string]types.Relationship{
				"vulnerabilities": {Data: identifiers(TypeVulnerabilities, n.VulnerabilityIDs)},
				"monitoringLists": {Data: identifiers(TypeMonitoringLists, n.MonitoringListIDs)},
			},
		}
	},
	id:    func(n Notification) string { return n.ID },
	setID: func(n *Notification, id string) { n.ID = id },
}

var vulnerabilityKind = kind[Vulnerability]{
	typ: TypeVulnerabilities,
	decode: func(r types.Resource) (Vulnerability, error) {
		cvss, err := floatAttr(r.Attributes, "cvss")
		if err != nil {
			return Vulnerability{}, err
		}
		return Vulnerability{
			ID:          r.ID,
			CVE:         stringAttr(r.Attributes, "cve"),
			CVSS:        cvss,
			CVSSVector:  stringAttr(r.Attributes, "cvssVector"),
			Description: stringAttr(r.Attributes, "description"),
		}, nil
	},
	encode: func(v Vulnerability) types.Resource {
		attrs := map[string]any{
			"cve":         v.CVE,
			"description": v.Description,
		}
		if v.CVSS != nil {
			attrs["cvss"] = *v.CVSS
		}
		if v.CVSSVector != "" {
			attrs["cvssVector"] = v.CVSSVector
		}
		return types.Resource{Type: TypeVulnerabilities, ID: v.ID, Attributes: attrs}
	},
	id:    func(v Vulnerability) string { return v.ID },
	setID: func(v *Vulnerability, id string) { v.ID = id },
}

func identifiers(typ string, ids []string) []types.Identifier {
	out := make([]types.Identifier, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.Identifier{Type: typ, ID: id})
	}
	return out
}

func stringAttr(attrs map[string]any, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// boolAttr accepts both JSON booleans and their string spelling, since the
// service filters on "true" but returns a boolean.
func boolAttr(attrs map[string]any, key string) (bool, error) {
	switch v := attrs[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("attribute %q: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("attribute %q: unexpected type %T", key, v)
	}
}

func floatAttr(attrs map[string]any, key string) (*float64, error) {
	switch v := attrs[key].(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", key, err)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("attribute %q: unexpected type %T", key, v)
	}
}
