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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/venslabs/sbomwatch/pkg/api/types"
)

const (
	DefaultAPIURL   = "https://portal.vilocify.com/api/v2"
	DefaultPageSize = 100
	DefaultTimeout  = 60 * time.Second

	mediaType = "application/vnd.api+json"
)

type options struct {
	httpClient *http.Client
	pageSize   int
	userAgent  string
}

type Option func(*options)

// WithHTTPClient replaces the default HTTP client. Its transport is wrapped
// with the token transport; the client itself is not modified.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithPageSize sets page[size] for All. First always asks for a single entry.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// New returns a Client talking JSON:API to the catalog service at apiURL,
// authenticating every request with token.
func New(apiURL, token string, opts ...Option) (*Client, error) {
	o := options{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 {
		return nil, fmt.Errorf("invalid page size %d", o.pageSize)
	}

	base, err := url.Parse(strings.TrimRight(apiURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse API URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("API URL %q must be absolute", apiURL)
	}

	httpClient := &http.Client{Timeout: DefaultTimeout}
	if o.httpClient != nil {
		c := *o.httpClient
		httpClient = &c
	}
	next := httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	httpClient.Transport = &tokenTransport{base: next, token: token, userAgent: o.userAgent}

	hc := &httpCatalog{base: base, client: httpClient, pageSize: o.pageSize}
	return &Client{
		MonitoringLists: &httpRepository[MonitoringList]{c: hc, kind: monitoringListKind},
		Components:      &httpRepository[Component]{c: hc, kind: componentKind},
		Notifications:   &httpRepository[Notification]{c: hc, kind: notificationKind},
		Vulnerabilities: &httpRepository[Vulnerability]{c: hc, kind: vulnerabilityKind},
	}, nil
}

// tokenTransport wraps an http.RoundTripper to add authentication and content negotiation.
type tokenTransport struct {
	base      http.RoundTripper
	token     string
	userAgent string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", mediaType)
	if req.Body != nil {
		req.Header.Set("Content-Type", mediaType)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.base.RoundTrip(req)
}

type httpCatalog struct {
	base     *url.URL
	client   *http.Client
	pageSize int
}

func (c *httpCatalog) collectionURL(typ string, params url.Values) string {
	u := *c.base
	u.Path = u.Path + "/" + typ
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *httpCatalog) resourceURL(typ, id string) string {
	u := *c.base
	u.Path = u.Path + "/" + typ + "/" + url.PathEscape(id)
	return u.String()
}

// resolve turns a pagination link into an absolute URL.
func (c *httpCatalog) resolve(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return c.base.ResolveReference(ref).String(), nil
}

// exchange performs one request. Any failure is reported as a *ServiceError.
func (c *httpCatalog) exchange(ctx context.Context, op, typ, method, target string, in, out any) error {
	fail := func(status int, detail string, err error) error {
		return &ServiceError{Op: op, Resource: typ, StatusCode: status, Detail: detail, Err: err}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fail(0, "", fmt.Errorf("failed to encode request: %w", err))
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fail(0, "", err)
	}

	slog.DebugContext(ctx, "Catalog request", "method", method, "url", target)
	resp, err := c.client.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, errorDetail(respBody), nil)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func errorDetail(body []byte) string {
	var doc types.ErrorDocument
	if err := json.Unmarshal(body, &doc); err != nil || len(doc.Errors) == 0 {
		return strings.TrimSpace(string(body))
	}
	msgs := make([]string, 0, len(doc.Errors))
	for _, e := range doc.Errors {
		switch {
		case e.Detail != "":
			msgs = append(msgs, e.Detail)
		case e.Title != "":
			msgs = append(msgs, e.Title)
		}
	}
	return strings.Join(msgs, "; ")
}

// httpRepository is the JSON:API implementation of Repository, parameterized by resource kind.
type httpRepository[R any] struct {
	c    *httpCatalog
	kind kind[R]
}

func (r *httpRepository[R]) Where(q Query, f Filter) Query {
	return q.With(f)
}

func (r *httpRepository[R]) First(ctx context.Context, q Query) (*R, error) {
	params := q.Params()
	params.Set("page[size]", "1")

	var doc types.CollectionDocument
	if err := r.c.exchange(ctx, "first", r.kind.typ, http.MethodGet, r.c.collectionURL(r.kind.typ, params), nil, &doc); err != nil {
		return nil, err
	}
	if len(doc.Data) == 0 {
		return nil, nil
	}
	v, err := r.kind.decode(doc.Data[0])
	if err != nil {
		return nil, &ServiceError{Op: "first", Resource: r.kind.typ, Err: err}
	}
	return &v, nil
}

func (r *httpRepository[R]) All(ctx context.Context, q Query) ([]R, error) {
	params := q.Params()
	params.Set("page[size]", strconv.Itoa(r.c.pageSize))
	next := r.c.collectionURL(r.kind.typ, params)

	var out []R
	seen := make(map[string]bool)
	for next != "" {
		if seen[next] {
			return nil, &ServiceError{Op: "all", Resource: r.kind.typ, Err: errors.New("pagination loop detected")}
		}
		seen[next] = true

		var doc types.CollectionDocument
		if err := r.c.exchange(ctx, "all", r.kind.typ, http.MethodGet, next, nil, &doc); err != nil {
			return nil, err
		}
		for _, res := range doc.Data {
			v, err := r.kind.decode(res)
			if err != nil {
				return nil, &ServiceError{Op: "all", Resource: r.kind.typ, Err: err}
			}
			out = append(out, v)
		}

		next = ""
		if doc.Links != nil && doc.Links.Next != "" {
			link, err := r.c.resolve(doc.Links.Next)
			if err != nil {
				return nil, &ServiceError{Op: "all", Resource: r.kind.typ, Err: fmt.Errorf("invalid next link: %w", err)}
			}
			next = link
		}
	}
	return out, nil
}

func (r *httpRepository[R]) Create(ctx context.Context, v *R) error {
	res := r.kind.encode(*v)
	res.ID = ""

	var doc types.SingleDocument
	if err := r.c.exchange(ctx, "create", r.kind.typ, http.MethodPost, r.c.collectionURL(r.kind.typ, nil), types.SingleDocument{Data: res}, &doc); err != nil {
		return err
	}
	if doc.Data.ID == "" {
		return &ServiceError{Op: "create", Resource: r.kind.typ, Err: errors.New("response carries no id")}
	}
	r.kind.setID(v, doc.Data.ID)
	return nil
}

func (r *httpRepository[R]) Update(ctx context.Context, v *R) error {
	id := r.kind.id(*v)
	if id == "" {
		return fmt.Errorf("update %s: %w", r.kind.typ, ErrMissingID)
	}
	return r.c.exchange(ctx, "update", r.kind.typ, http.MethodPatch, r.c.resourceURL(r.kind.typ, id), types.SingleDocument{Data: r.kind.encode(*v)}, nil)
}
