package sensei

import (
	"context"
	"net/http"
	"strconv"
)

func (c *Client) GetAPIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := c.getJSON(ctx, c.url(EndpointAPIKeys), &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateAPIKey creates a named key. The raw key value is only present in this
// response; subsequent listings omit it.
func (c *Client) CreateAPIKey(ctx context.Context, name string) (*APIKey, error) {
	payload := map[string]string{"name": name}
	var key APIKey
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointAPIKeys), payload, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

func (c *Client) DeleteAPIKey(ctx context.Context, id int) error {
	return c.sendJSON(ctx, http.MethodDelete, c.url(EndpointAPIKeys, strconv.Itoa(id)), nil, nil)
}
