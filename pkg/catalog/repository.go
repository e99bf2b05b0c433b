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

import "context"

// Repository is the query/create/update capability for one resource kind.
// Every call site goes through these five operations, which is what allows
// decorators such as the call meter to observe all catalog traffic.
type Repository[R any] interface {
	// Where returns q extended with f. It performs no I/O.
	Where(q Query, f Filter) Query
	// First returns the first resource matching q, or nil if there is none.
	// Zero results is not an error.
	First(ctx context.Context, q Query) (*R, error)
	// All returns every resource matching q.
	All(ctx context.Context, q Query) ([]R, error)
	// Create persists r and stores the generated ID in it.
	Create(ctx context.Context, r *R) error
	// Update persists the attributes and relationships of an existing r.
	Update(ctx context.Context, r *R) error
}

// Selection is a fluent front-end over a Repository:
//
//	c, err := catalog.From(repo).Where("name", catalog.OpEq, "zlib").First(ctx)
//
// Each Where hop calls Repository.Where exactly once. Selections are values;
// deriving two selections from a common prefix is safe.
type Selection[R any] struct {
	repo Repository[R]
	q    Query
}

func From[R any](repo Repository[R]) Selection[R] {
	return Selection[R]{repo: repo}
}

func (s Selection[R]) Where(field string, op Operator, values ...string) Selection[R] {
	return Selection[R]{
		repo: s.repo,
		q:    s.repo.Where(s.q, Filter{Field: field, Operator: op, Values: values}),
	}
}

func (s Selection[R]) First(ctx context.Context) (*R, error) {
	return s.repo.First(ctx, s.q)
}

func (s Selection[R]) All(ctx context.Context) ([]R, error) {
	return s.repo.All(ctx, s.q)
}

// Query returns the accumulated query.
func (s Selection[R]) Query() Query { return s.q }

// Client groups the repositories of the four resource kinds.
type Client struct {
	MonitoringLists Repository[MonitoringList]
	Components      Repository[Component]
	Notifications   Repository[Notification]
	Vulnerabilities Repository[Vulnerability]
}
