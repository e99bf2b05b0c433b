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
	"net/url"
	"slices"
	"strings"
)

// Operator is a filter comparison understood by the catalog service.
type Operator string

const (
	// OpEq matches when the field equals the single value.
	OpEq Operator = "eq"
	// OpAny matches when any element of a to-many field equals the value.
	OpAny Operator = "any"
	// OpIn matches when the field equals one of the values.
	OpIn Operator = "in"
)

// Filter is one field/operator/value predicate.
type Filter struct {
	Field    string
	Operator Operator
	Values   []string
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.Field, f.Operator, strings.Join(f.Values, ","))
}

// Query is an immutable, ordered list of filters. The zero value matches everything.
type Query struct {
	filters []Filter
}

// With returns a copy of q with f appended. q itself is left untouched, so
// two queries derived from the same prefix never share predicates.
func (q Query) With(f Filter) Query {
	filters := make([]Filter, len(q.filters), len(q.filters)+1)
	copy(filters, q.filters)
	f.Values = slices.Clone(f.Values)
	return Query{filters: append(filters, f)}
}

// Filters returns a copy of the accumulated predicates in insertion order.
func (q Query) Filters() []Filter {
	return slices.Clone(q.filters)
}

func (q Query) Len() int { return len(q.filters) }

// Params encodes the query as JSON:API filter parameters,
// e.g. filter[name][eq]=openssl.
func (q Query) Params() url.Values {
	v := url.Values{}
	for _, f := range q.filters {
		v.Add(fmt.Sprintf("filter[%s][%s]", f.Field, f.Operator), strings.Join(f.Values, ","))
	}
	return v
}

func (q Query) String() string {
	parts := make([]string, len(q.filters))
	for i, f := range q.filters {
		parts[i] = f.String()
	}
	return strings.Join(parts, " AND ")
}
