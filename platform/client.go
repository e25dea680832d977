// Package platform wraps the hosted backend-as-a-service this dashboard is
// built on: authentication, the BrandAudit/Company record stores, and the
// LLM-backed brandRanker function. Everything stateful lives on the other
// side of these calls; the backend keeps no storage of its own.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/brandrank/audit-backend/shared"
	"github.com/sirupsen/logrus"
)

// Client is the low-level HTTP client for the hosted platform APIs. It does
// not retry; rate-limit and auth policy belong to the callers.
type Client struct {
	baseURL    string
	appID      string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a platform client for one app.
func NewClient(baseURL, appID, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		appID:      appID,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// do issues one platform API call. out may be nil for calls whose body is
// irrelevant. token is the end user's bearer token and may be empty for
// app-level calls.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, token string, out interface{}) error {
	endpoint := fmt.Sprintf("%s/api/apps/%s%s", c.baseURL, c.appID, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return shared.WrapError(err, shared.ErrorCategoryValidation, "ENCODE_FAILED", "PlatformClient", method+" "+path, false)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD_FAILED", "PlatformClient", method+" "+path, false)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("api_key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_FAILED", "PlatformClient", method+" "+path, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, method, path)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return shared.WrapError(err, shared.ErrorCategoryProcessing, "DECODE_FAILED", "PlatformClient", method+" "+path, false)
	}

	return nil
}

func (c *Client) statusError(resp *http.Response, method, path string) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	operation := method + " " + path

	logrus.WithFields(logrus.Fields{
		"component":   "PlatformClient",
		"operation":   operation,
		"status_code": resp.StatusCode,
	}).Debug("Platform call returned non-2xx status")

	message := fmt.Sprintf("platform returned %d: %s", resp.StatusCode, string(payload))

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return shared.NewServiceError(shared.ErrorCategoryRateLimit, "429", message, "PlatformClient", operation, true, nil)
	case http.StatusUnauthorized:
		return shared.NewServiceError(shared.ErrorCategoryAuthentication, "401", message, "PlatformClient", operation, false, nil)
	case http.StatusNotFound:
		return shared.NewServiceError(shared.ErrorCategoryNotFound, "404", message, "PlatformClient", operation, false, nil)
	default:
		return shared.NewServiceError(shared.ErrorCategoryProcessing, fmt.Sprintf("%d", resp.StatusCode), message, "PlatformClient", operation, false, nil)
	}
}
