package client

import "context"

// LoginResponse carries the access token and the analyst profile
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	Analyst     Analyst `json:"analyst"`
}

// Login authenticates and stores the returned token on the client
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp LoginResponse
	if err := c.doRequest(ctx, "POST", "/api/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.AccessToken)
	return &resp, nil
}

// Me returns the authenticated analyst's profile
func (c *Client) Me(ctx context.Context) (*Analyst, error) {
	var a Analyst
	if err := c.doRequest(ctx, "GET", "/api/v1/auth/me", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
