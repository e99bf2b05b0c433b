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

// Package export dumps every monitoring list known to the certificate
// authenticated monitoring endpoint into spreadsheet and JSON files.
package export

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultAPIURL     = "https://svm.cert.siemens.com/portal/api/v1/"
	DefaultXLSXOutput = "monitoring_lists.xlsx"
	DefaultJSONOutput = "monitoring_lists.json"
)

type Client struct {
	base       *url.URL
	httpClient *http.Client
}

// NewClient returns a client for apiURL. Relative endpoint paths are
// resolved against it, so a missing trailing slash is added.
func NewClient(apiURL string, httpClient *http.Client) (*Client, error) {
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid export API URL")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, httpClient: httpClient}, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	u := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errors.Errorf("GET %s: unexpected status %d", u, resp.StatusCode)
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(v), "GET %s: invalid response body", u)
}

// ListIDs returns the IDs of all monitoring lists.
func (c *Client) ListIDs(ctx context.Context) ([]ID, error) {
	var ids []ID
	if err := c.get(ctx, "common/monitoring_lists", &ids); err != nil {
		return nil, errors.Wrap(err, "could not list monitoring lists")
	}
	return ids, nil
}

// Details fetches one monitoring list.
func (c *Client) Details(ctx context.Context, id ID) (Record, error) {
	var rec Record
	if err := c.get(ctx, "common/monitoring_lists/"+url.PathEscape(id.String()), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Collect fetches the details of every monitoring list. A failing ID list is
// returned as an error; a failing or empty detail is logged and skipped.
// Details without an "id" field get the list ID added.
func (c *Client) Collect(ctx context.Context) ([]Record, error) {
	ids, err := c.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := c.Details(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "Could not fetch details", "id", id.String(), "error", err)
			continue
		}
		if rec.Len() == 0 {
			continue
		}
		if _, ok := rec.Get("id"); !ok {
			raw, _ := id.MarshalJSON()
			rec.Set("id", raw)
		}
		records = append(records, rec)
	}
	slog.DebugContext(ctx, "Collected monitoring lists", "ids", len(ids), "records", len(records))
	return records, nil
}
