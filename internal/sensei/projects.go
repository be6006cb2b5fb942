package sensei

import (
	"context"
	"net/http"
	"strconv"
)

func (c *Client) GetProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.getJSON(ctx, c.url(EndpointProjects), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetProject(ctx context.Context, id int) (*Project, error) {
	var project Project
	if err := c.getJSON(ctx, c.url(EndpointProjects, strconv.Itoa(id)), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project. A duplicate name surfaces the backend
// validation body (a JSON object with a "name" field) via the returned error.
func (c *Client) CreateProject(ctx context.Context, p Project) (*Project, error) {
	var created Project
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointProjects), p, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProject(ctx context.Context, p Project) (*Project, error) {
	var updated Project
	if err := c.sendJSON(ctx, http.MethodPut, c.url(EndpointProjects, strconv.Itoa(p.ID)), p, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, c.url(EndpointProjects, strconv.Itoa(id)), nil, nil)
}
