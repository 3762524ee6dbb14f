// Package client is a typed Go client for the siamatlas REST API. It mirrors
// the server's endpoint structure, manages the bearer token after sign-in and
// handles JSON serialization for every call. Safe for concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/siamatlas/siamatlas/pkg/editor"
	"github.com/siamatlas/siamatlas/pkg/models"
)

// Client provides typed access to the siamatlas REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewClient creates a client for the API at baseURL, e.g.
// "http://localhost:8080", without a trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetAuthToken sets the bearer token sent with every request.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Health checks the health status of the server.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Province management

func (c *Client) CreateProvince(ctx context.Context, province *models.Province) (*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/provinces", province)
	if err != nil {
		return nil, err
	}
	var result models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetProvince(ctx context.Context, id models.ProvinceID) (*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/provinces/%s", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListProvinces(ctx context.Context) ([]*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/provinces", nil)
	if err != nil {
		return nil, err
	}
	var result []*models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) UpdateProvince(ctx context.Context, province *models.Province) (*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/provinces/%s", province.ID), province)
	if err != nil {
		return nil, err
	}
	var result models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteProvince(ctx context.Context, id models.ProvinceID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/provinces/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

// SaveProvince performs the editor's best-effort save of a full snapshot,
// districts included. The result names any districts that failed to write.
func (c *Client) SaveProvince(ctx context.Context, province *models.Province) (*editor.SaveResult, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/provinces/%s/save", province.ID), province)
	if err != nil {
		return nil, err
	}
	var result editor.SaveResult
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// District management

func (c *Client) CreateDistrict(ctx context.Context, district *models.District) (*models.District, error) {
	resp, err := c.doRequest(ctx, http.MethodPost,
		fmt.Sprintf("/api/provinces/%s/districts", district.ProvinceID), district)
	if err != nil {
		return nil, err
	}
	var result models.District
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetDistrict(ctx context.Context, id models.DistrictID) (*models.District, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/districts/%s", id), nil)
	if err != nil {
		return nil, err
	}
	var result models.District
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateDistrict(ctx context.Context, district *models.District) (*models.District, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/districts/%s", district.ID), district)
	if err != nil {
		return nil, err
	}
	var result models.District
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteDistrict(ctx context.Context, id models.DistrictID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/districts/%s", id), nil)
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}

func (c *Client) ListDistricts(ctx context.Context, provinceID models.ProvinceID) ([]*models.District, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/provinces/%s/districts", provinceID), nil)
	if err != nil {
		return nil, err
	}
	var result []*models.District
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Historical periods

func (c *Client) AddProvincePeriod(ctx context.Context, id models.ProvinceID, period models.HistoricalPeriod) (*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/provinces/%s/periods", id), period)
	if err != nil {
		return nil, err
	}
	var result models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateProvincePeriod(ctx context.Context, id models.ProvinceID, index int, period models.HistoricalPeriod) (*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/provinces/%s/periods/%d", id, index), period)
	if err != nil {
		return nil, err
	}
	var result models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteProvincePeriod(ctx context.Context, id models.ProvinceID, index int) (*models.Province, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/provinces/%s/periods/%d", id, index), nil)
	if err != nil {
		return nil, err
	}
	var result models.Province
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AddDistrictPeriod(ctx context.Context, id models.DistrictID, period models.HistoricalPeriod) (*models.District, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/districts/%s/periods", id), period)
	if err != nil {
		return nil, err
	}
	var result models.District
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Media

// UploadMedia sends a multipart upload and returns the stored Media with its
// durable URL.
func (c *Client) UploadMedia(ctx context.Context, mediaType models.MediaType, filename string, content io.Reader) (*models.Media, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("type", string(mediaType)); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/media", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var result models.Media
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Collaboration

func (c *Client) CreateCollaborationRequest(ctx context.Context, req *models.CollaborationRequest) (*models.CollaborationRequest, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/collaborations", req)
	if err != nil {
		return nil, err
	}
	var result models.CollaborationRequest
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCollaborationRequests(ctx context.Context, kind models.TargetKind, targetID string) ([]*models.CollaborationRequest, error) {
	path := fmt.Sprintf("/api/collaborations?kind=%s&target=%s", kind, targetID)
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result []*models.CollaborationRequest
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AcceptCollaborationRequest(ctx context.Context, id models.CollaborationID) (*models.CollaborationRequest, error) {
	return c.decideCollaboration(ctx, id, "accept")
}

func (c *Client) RejectCollaborationRequest(ctx context.Context, id models.CollaborationID) (*models.CollaborationRequest, error) {
	return c.decideCollaboration(ctx, id, "reject")
}

func (c *Client) decideCollaboration(ctx context.Context, id models.CollaborationID, verb string) (*models.CollaborationRequest, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/collaborations/%s/%s", id, verb), nil)
	if err != nil {
		return nil, err
	}
	var result models.CollaborationRequest
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Updates feed

func (c *Client) ListUpdates(ctx context.Context, limit int) ([]*models.UpdateRecord, error) {
	path := "/api/updates"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var result []*models.UpdateRecord
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}
