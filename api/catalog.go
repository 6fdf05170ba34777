package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Categories lists job categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/categories"})
	if err != nil {
		return nil, err
	}
	var out []Category
	if err := decodeData(env, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Jobs lists public job postings.
func (c *Client) Jobs(ctx context.Context, q JobQuery) ([]Job, error) {
	query := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		query.Set("search", s)
	}
	if q.Category != "" {
		query.Set("category", q.Category)
	}
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/jobs", query: query})
	if err != nil {
		return nil, err
	}
	var out []Job
	if err := decodeData(env, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Job fetches one posting anonymously.
func (c *Client) Job(ctx context.Context, id string) (Job, error) {
	return c.job(ctx, id, "")
}

func (c *Client) job(ctx context.Context, id, token string) (Job, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/jobs/" + url.PathEscape(id), token: token})
	if err != nil {
		return Job{}, err
	}
	var out Job
	if err := decodeData(env, &out); err != nil {
		return Job{}, err
	}
	return out, nil
}
