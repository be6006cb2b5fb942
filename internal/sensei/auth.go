package sensei

import (
	"context"
	"encoding/json"
	"net/http"
)

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates against the backend and persists the returned token and
// user in the session store.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	payload := map[string]string{
		"username": username,
		"password": password,
	}
	var resp loginResponse
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointLogin), payload, &resp); err != nil {
		return nil, err
	}

	c.sessions.SetToken(resp.Token)
	serialized, err := json.Marshal(resp.User)
	if err != nil {
		return nil, decodeError(err)
	}
	c.sessions.SetUser(string(serialized))

	return &resp.User, nil
}

// Register creates a backend account. The caller still logs in afterwards.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	payload := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	var user User
	if err := c.sendJSON(ctx, http.MethodPost, c.url(EndpointRegister), payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout drops the local session. The token is opaque and server-side state
// is untouched; expiry is the backend's concern.
func (c *Client) Logout() {
	c.sessions.ClearSession()
}
