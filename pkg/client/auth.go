package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/siamatlas/siamatlas/pkg/models"
)

// SignInRequest carries editor credentials. Login matches either the
// username or the email address of an admin account.
type SignInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is returned by sign-in and token refresh.
type AuthResponse struct {
	Token string        `json:"token"`
	Admin *models.Admin `json:"admin"`
}

// SignIn authenticates with the given login and password. On success the
// client stores the returned token and sends it with subsequent requests.
func (c *Client) SignIn(ctx context.Context, login, password string) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signin", SignInRequest{
		Login:    login,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	var result AuthResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	c.SetAuthToken(result.Token)
	return &result, nil
}

// SignOut invalidates the current session token.
func (c *Client) SignOut(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signout", nil)
	if err != nil {
		return err
	}
	if err := decodeResponse(resp, nil); err != nil {
		return err
	}
	c.authToken = ""
	return nil
}

// Me returns the admin account bound to the current session.
func (c *Client) Me(ctx context.Context) (*models.Admin, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	var result models.Admin
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Refresh rotates the session token. The old token stops working.
func (c *Client) Refresh(ctx context.Context) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return nil, err
	}
	var result AuthResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	c.SetAuthToken(result.Token)
	return &result, nil
}

// ListRegistrations returns registration requests with the given status.
// Requires an authenticated session.
func (c *Client) ListRegistrations(ctx context.Context, status models.RequestStatus) ([]*models.RegistrationRequest, error) {
	path := "/api/admin/register"
	if status != "" {
		path = fmt.Sprintf("%s?status=%s", path, status)
	}
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result []*models.RegistrationRequest
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// AcceptRegistration approves a pending registration and returns the admin
// account it created.
func (c *Client) AcceptRegistration(ctx context.Context, id models.RegistrationID) (*models.Admin, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/admin/register/%s/accept", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.Admin
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RejectRegistration declines a pending registration.
func (c *Client) RejectRegistration(ctx context.Context, id models.RegistrationID) (*models.RegistrationRequest, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/admin/register/%s/reject", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.RegistrationRequest
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
