package sensei

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GetTestCases lists test cases, optionally filtered by project, status and
// an explicit id set (joined into one comma-separated query parameter).
func (c *Client) GetTestCases(ctx context.Context, opts ListOptions) ([]TestCase, error) {
	params := url.Values{}
	if opts.Project > 0 {
		params.Set("project", strconv.Itoa(opts.Project))
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if len(opts.IDs) > 0 {
		strs := make([]string, len(opts.IDs))
		for i, id := range opts.IDs {
			strs[i] = strconv.Itoa(id)
		}
		params.Set("ids", strings.Join(strs, ","))
	}

	target := c.url(EndpointTestCases)
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var cases []TestCase
	if err := c.getJSON(ctx, target, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Client) GetTestCase(ctx context.Context, id int) (*TestCase, error) {
	var tc TestCase
	if err := c.getJSON(ctx, c.url(EndpointTestCases, strconv.Itoa(id)), &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

// ExecuteTestCase asks the backend to start a run. The returned test case
// usually comes back PENDING or RUNNING.
func (c *Client) ExecuteTestCase(ctx context.Context, id int) (*TestCase, error) {
	var tc TestCase
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointTestCases, strconv.Itoa(id), "execute"), nil, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

// StopTestCase requests a running execution to stop. The backend replies with
// an empty body on success.
func (c *Client) StopTestCase(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodPost, c.url(EndpointTestCases, strconv.Itoa(id), "stop"), nil, nil)
}

// DeleteTestCase removes a test case. A 204 with empty body is a success and
// is never JSON-parsed.
func (c *Client) DeleteTestCase(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, c.url(EndpointTestCases, strconv.Itoa(id)), nil, nil)
}
