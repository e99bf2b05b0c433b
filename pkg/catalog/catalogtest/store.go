// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/venslabs/sbomwatch/pkg/catalog"
)

// Store holds one in-memory table per resource kind.
type Store struct {
	MonitoringLists *Table[catalog.MonitoringList]
	Components      *Table[catalog.Component]
	Notifications   *Table[catalog.Notification]
	Vulnerabilities *Table[catalog.Vulnerability]
}

func NewStore() *Store {
	return &Store{
		MonitoringLists: newTable(catalog.TypeMonitoringLists, monitoringListFields,
			func(ml catalog.MonitoringList) string { return ml.ID },
			func(ml *catalog.MonitoringList, id string) { ml.ID = id }),
		Components: newTable(catalog.TypeComponents, componentFields,
			func(c catalog.Component) string { return c.ID },
			func(c *catalog.Component, id string) { c.ID = id }),
		Notifications: newTable(catalog.TypeNotifications, notificationFields,
			func(n catalog.Notification) string { return n.ID },
			func(n *catalog.Notification, id string) { n.ID = id }),
		Vulnerabilities: newTable(catalog.TypeVulnerabilities, vulnerabilityFields,
			func(v catalog.Vulnerability) string { return v.ID },
			func(v *catalog.Vulnerability, id string) { v.ID = id }),
	}
}

// Client exposes the store through the catalog repositories.
func (s *Store) Client() *catalog.Client {
	return &catalog.Client{
		MonitoringLists: s.MonitoringLists,
		Components:      s.Components,
		Notifications:   s.Notifications,
		Vulnerabilities: s.Vulnerabilities,
	}
}

// Calls returns the total number of operations issued against all tables.
func (s *Store) Calls() int {
	return s.MonitoringLists.TotalCalls() + s.Components.TotalCalls() +
		s.Notifications.TotalCalls() + s.Vulnerabilities.TotalCalls()
}

// Table is an in-memory Repository. Filters are evaluated against the
// string values returned by fields; every operation is recorded in Calls.
type Table[R any] struct {
	mu     sync.Mutex
	typ    string
	rows   []R
	fields func(R, string) []string
	id     func(R) string
	setID  func(*R, string)

	calls map[string]int
	fail  map[string]error
}

func newTable[R any](typ string, fields func(R, string) []string, id func(R) string, setID func(*R, string)) *Table[R] {
	return &Table[R]{
		typ:    typ,
		fields: fields,
		id:     id,
		setID:  setID,
		calls:  make(map[string]int),
		fail:   make(map[string]error),
	}
}

// Add seeds rows, assigning a random ID to rows that have none. It returns the stored rows.
func (t *Table[R]) Add(rows ...R) []R {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if t.id(r) == "" {
			t.setID(&r, uuid.NewString())
		}
		t.rows = append(t.rows, r)
		out = append(out, r)
	}
	return out
}

func (t *Table[R]) Rows() []R {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.rows)
}

// Calls returns how often op (where, first, all, create, update) was invoked.
func (t *Table[R]) Calls(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

func (t *Table[R]) TotalCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		n += c
	}
	return n
}

// FailOn makes op return a *catalog.ServiceError carrying err.
func (t *Table[R]) FailOn(op string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail[op] = err
}

func (t *Table[R]) record(op string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[op]++
	if err, ok := t.fail[op]; ok {
		return &catalog.ServiceError{Op: op, Resource: t.typ, StatusCode: http.StatusInternalServerError, Err: err}
	}
	return nil
}

func (t *Table[R]) Where(q catalog.Query, f catalog.Filter) catalog.Query {
	_ = t.record("where")
	return q.With(f)
}

func (t *Table[R]) First(_ context.Context, q catalog.Query) (*R, error) {
	if err := t.record("first"); err != nil {
		return nil, err
	}
	matches := t.match(q)
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

func (t *Table[R]) All(_ context.Context, q catalog.Query) ([]R, error) {
	if err := t.record("all"); err != nil {
		return nil, err
	}
	return t.match(q), nil
}

func (t *Table[R]) Create(_ context.Context, r *R) error {
	if err := t.record("create"); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setID(r, uuid.NewString())
	t.rows = append(t.rows, *r)
	return nil
}

func (t *Table[R]) Update(_ context.Context, r *R) error {
	if err := t.record("update"); err != nil {
		return err
	}
	id := t.id(*r)
	if id == "" {
		return fmt.Errorf("update %s: %w", t.typ, catalog.ErrMissingID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if t.id(t.rows[i]) == id {
			t.rows[i] = *r
			return nil
		}
	}
	return &catalog.ServiceError{Op: "update", Resource: t.typ, StatusCode: http.StatusNotFound, Detail: "no resource with id " + id}
}

func (t *Table[R]) match(q catalog.Query) []R {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []R
	for _, r := range t.rows {
		if t.matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func (t *Table[R]) matches(r R, q catalog.Query) bool {
	for _, f := range q.Filters() {
		values := t.fields(r, f.Field)
		switch f.Operator {
		case catalog.OpEq:
			if len(f.Values) != 1 || !slices.Contains(values, f.Values[0]) {
				return false
			}
		case catalog.OpAny, catalog.OpIn:
			if !slices.ContainsFunc(values, func(v string) bool { return slices.Contains(f.Values, v) }) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func componentFields(c catalog.Component, field string) []string {
	switch field {
	case "id":
		return []string{c.ID}
	case "name":
		return []string{c.Name}
	case "version":
		return []string{c.Version}
	case "active":
		return []string{strconv.FormatBool(c.Active)}
	}
	return nil
}

func monitoringListFields(ml catalog.MonitoringList, field string) []string {
	switch field {
	case "id":
		return []string{ml.ID}
	case "name":
		return []string{ml.Name}
	case "comment":
		return []string{ml.Comment}
	case "components.id":
		ids := make([]string, 0, len(ml.Components))
		for _, c := range ml.Components {
			ids = append(ids, c.ID)
		}
		return ids
	}
	return nil
}

func notificationFields(n catalog.Notification, field string) []string {
	switch field {
	case "id":
		return []string{n.ID}
	case "title":
		return []string{n.Title}
	case "monitoringLists.id":
		return n.MonitoringListIDs
	case "vulnerabilities.id":
		return n.VulnerabilityIDs
	}
	return nil
}

func vulnerabilityFields(v catalog.Vulnerability, field string) []string {
	switch field {
	case "id":
		return []string{v.ID}
	case "cve":
		return []string{v.CVE}
	}
	return nil
}
