// Package crates is a thin client for the crates.io registry API.
package crates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://crates.io"

// Info describes one crate returned by a registry search.
type Info struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Description   string `json:"description,omitempty"`
	Downloads     uint64 `json:"downloads"`
	Homepage      string `json:"homepage,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	Repository    string `json:"repository,omitempty"`
}

// Version describes one published version of a crate.
type Version struct {
	Num       string `json:"num"`
	CreatedAt string `json:"created_at"`
	Downloads uint64 `json:"downloads"`
	Yanked    bool   `json:"yanked"`
	MSRV      string `json:"msrv,omitempty"`
}

type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
}

func (c *Client) base() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

// Search queries the registry for crates matching the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Info, error) {
	if limit <= 0 {
		limit = 10
	}

	var payload struct {
		Crates []struct {
			Name          string  `json:"name"`
			MaxVersion    string  `json:"max_version"`
			Description   *string `json:"description"`
			Downloads     uint64  `json:"downloads"`
			Homepage      *string `json:"homepage"`
			Documentation *string `json:"documentation"`
			Repository    *string `json:"repository"`
		} `json:"crates"`
	}

	endpoint := fmt.Sprintf("%s/api/v1/crates?q=%s&per_page=%d",
		c.base(), url.QueryEscape(query), limit)
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(payload.Crates))
	for _, cr := range payload.Crates {
		infos = append(infos, Info{
			Name:          cr.Name,
			Version:       cr.MaxVersion,
			Description:   deref(cr.Description),
			Downloads:     cr.Downloads,
			Homepage:      deref(cr.Homepage),
			Documentation: deref(cr.Documentation),
			Repository:    deref(cr.Repository),
		})
	}
	return infos, nil
}

// Versions returns the published versions of a crate, newest first.
func (c *Client) Versions(ctx context.Context, name string) ([]Version, error) {
	var payload struct {
		Versions []struct {
			Num         string  `json:"num"`
			CreatedAt   string  `json:"created_at"`
			Downloads   uint64  `json:"downloads"`
			Yanked      bool    `json:"yanked"`
			RustVersion *string `json:"rust_version"`
		} `json:"versions"`
	}

	endpoint := fmt.Sprintf("%s/api/v1/crates/%s/versions", c.base(), url.PathEscape(name))
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	versions := make([]Version, 0, len(payload.Versions))
	for _, v := range payload.Versions {
		versions = append(versions, Version{
			Num:       v.Num,
			CreatedAt: v.CreatedAt,
			Downloads: v.Downloads,
			Yanked:    v.Yanked,
			MSRV:      deref(v.RustVersion),
		})
	}
	return versions, nil
}

// Readme fetches the rendered readme HTML for a crate version. The registry
// does not resolve "latest"; callers resolve it through Versions first.
func (c *Client) Readme(ctx context.Context, name, version string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/crates/%s/%s/readme",
		c.base(), url.PathEscape(name), url.PathEscape(version))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading readme: %w", err)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("crates.io returned %d for %s: %s", resp.StatusCode, endpoint, string(body))
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
