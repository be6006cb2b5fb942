package sensei

import (
	"context"
	"strconv"
)

// GetReport fetches the execution report of a finished test case.
func (c *Client) GetReport(ctx context.Context, testCaseID int) (*Report, error) {
	var report Report
	if err := c.getJSON(ctx, c.url(EndpointReports, strconv.Itoa(testCaseID)), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetGlobalReport aggregates all reports of a project.
func (c *Client) GetGlobalReport(ctx context.Context, projectID int) (*GlobalReport, error) {
	var report GlobalReport
	if err := c.getJSON(ctx, c.url(EndpointGlobalReports, strconv.Itoa(projectID)), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetTestErrors fetches the diagnostic error aggregates of a test case.
func (c *Client) GetTestErrors(ctx context.Context, testCaseID int) ([]TestError, error) {
	var errs []TestError
	if err := c.getJSON(ctx, c.url(EndpointTestErrors)+"?test_case="+strconv.Itoa(testCaseID), &errs); err != nil {
		return nil, err
	}
	return errs, nil
}

// DownloadGraph retrieves the conversation graph artifact of a test case.
// With a format parameter the backend renders a binary artifact (png, svg,
// pdf); without one it returns the graph as JSON. Either way the raw bytes
// are handed to the caller.
func (c *Client) DownloadGraph(ctx context.Context, testCaseID int, format string) ([]byte, error) {
	target := c.url(EndpointReports, strconv.Itoa(testCaseID), "graph")
	if format != "" {
		target += "?format=" + format
	}
	return c.getBytes(ctx, target)
}
