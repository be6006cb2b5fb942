package sensei

import (
	"context"
	"net/http"
	"strconv"
)

func (c *Client) GetConnectors(ctx context.Context, projectID int) ([]Connector, error) {
	target := c.url(EndpointConnectors)
	if projectID > 0 {
		target += "?project=" + strconv.Itoa(projectID)
	}
	var connectors []Connector
	if err := c.getJSON(ctx, target, &connectors); err != nil {
		return nil, err
	}
	return connectors, nil
}

func (c *Client) GetConnector(ctx context.Context, id int) (*Connector, error) {
	var connector Connector
	if err := c.getJSON(ctx, c.url(EndpointConnectors, strconv.Itoa(id)), &connector); err != nil {
		return nil, err
	}
	return &connector, nil
}

func (c *Client) CreateConnector(ctx context.Context, conn Connector) (*Connector, error) {
	var created Connector
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointConnectors), conn, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateConnector(ctx context.Context, conn Connector) (*Connector, error) {
	var updated Connector
	if err := c.sendJSON(ctx, http.MethodPut, c.url(EndpointConnectors, strconv.Itoa(conn.ID)), conn, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteConnector(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, c.url(EndpointConnectors, strconv.Itoa(id)), nil, nil)
}

// GetConnectorTechnologies lists the supported connector technologies and
// the parameters a connector of each kind requires.
func (c *Client) GetConnectorTechnologies(ctx context.Context) ([]Technology, error) {
	var techs []Technology
	if err := c.getJSON(ctx, c.url(EndpointTechnologies), &techs); err != nil {
		return nil, err
	}
	return techs, nil
}

// ValidateConnector asks the backend to exercise the connector against the
// chatbot it points at. Connection problems come back as a CONNECTOR_CONNECTION
// error type in the result, not as a request error.
func (c *Client) ValidateConnector(ctx context.Context, id int) (*ValidationResult, error) {
	payload := map[string]int{"connector": id}
	var result ValidationResult
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointValidateConnector), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
