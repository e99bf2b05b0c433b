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

// Package meter counts catalog operations as billable units.
//
// The meter is a decorator over catalog.Repository: it delegates every call
// unchanged and increments a Counter. A Counter is meant to live for exactly
// one run; construct a fresh one instead of resetting.
package meter

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/venslabs/sbomwatch/pkg/catalog"
)

// Policy decides which operations are billable.
type Policy int

const (
	// PolicyEveryCall bills every operation, including each Where hop.
	// A chain where().where().where().first() costs 4 units.
	PolicyEveryCall Policy = iota
	// PolicyRoundTrips bills only operations that reach the service
	// (First, All, Create, Update).
	PolicyRoundTrips
)

func (p Policy) String() string {
	switch p {
	case PolicyEveryCall:
		return "every-call"
	case PolicyRoundTrips:
		return "round-trips"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "every-call":
		return PolicyEveryCall, nil
	case "round-trips":
		return PolicyRoundTrips, nil
	default:
		return 0, fmt.Errorf("unknown meter policy %q, make sure to use one of [every-call round-trips]", s)
	}
}

// Counter is safe for concurrent use.
type Counter struct {
	n atomic.Int64
}

func NewCounter() *Counter { return &Counter{} }

func (c *Counter) Inc() { c.n.Add(1) }

func (c *Counter) Count() int64 { return c.n.Load() }

// Repository is a metering catalog.Repository.
type Repository[R any] struct {
	next    catalog.Repository[R]
	counter *Counter
	policy  Policy
}

func NewRepository[R any](next catalog.Repository[R], counter *Counter, policy Policy) *Repository[R] {
	return &Repository[R]{next: next, counter: counter, policy: policy}
}

func (r *Repository[R]) Where(q catalog.Query, f catalog.Filter) catalog.Query {
	if r.policy == PolicyEveryCall {
		r.counter.Inc()
	}
	return r.next.Where(q, f)
}

func (r *Repository[R]) First(ctx context.Context, q catalog.Query) (*R, error) {
	r.counter.Inc()
	return r.next.First(ctx, q)
}

func (r *Repository[R]) All(ctx context.Context, q catalog.Query) ([]R, error) {
	r.counter.Inc()
	return r.next.All(ctx, q)
}

func (r *Repository[R]) Create(ctx context.Context, v *R) error {
	r.counter.Inc()
	return r.next.Create(ctx, v)
}

func (r *Repository[R]) Update(ctx context.Context, v *R) error {
	r.counter.Inc()
	return r.next.Update(ctx, v)
}

// Wrap returns a client whose four repositories bill into counter.
// c is not modified.
func Wrap(c *catalog.Client, counter *Counter, policy Policy) *catalog.Client {
	return &catalog.Client{
		MonitoringLists: NewRepository(c.MonitoringLists, counter, policy),
		Components:      NewRepository(c.Components, counter, policy),
		Notifications:   NewRepository(c.Notifications, counter, policy),
		Vulnerabilities: NewRepository(c.Vulnerabilities, counter, policy),
	}
}
