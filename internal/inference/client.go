package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const requestTimeout = 60 * time.Second

// Client calls a text-to-image inference endpoint.
type Client struct {
	endpoint     string
	apiKey       string
	imageURLPath string
	httpClient   *http.Client
}

func NewClient(endpoint, apiKey, imageURLPath string) *Client {
	return &Client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		imageURLPath: imageURLPath,
		httpClient:   newHTTPClient(requestTimeout),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout * 2 / 3
	transport.TLSHandshakeTimeout = timeout / 3
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// GenerateImage sends keyword as the model input and returns the image URL
// found at the configured path of the response payload. It makes exactly one
// request and never retries.
func (c *Client) GenerateImage(ctx context.Context, keyword string) (string, error) {
	jsonBody, err := json.Marshal(struct {
		Inputs string `json:"inputs"`
	}{Inputs: keyword})
	if err != nil {
		return "", fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("error creating request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("error reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: truncate(body)}
	}

	return c.extractImageURL(body)
}

func (c *Client) extractImageURL(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &ContractError{Path: c.imageURLPath, Reason: "payload is not valid JSON", Body: truncate(body)}
	}

	result := gjson.GetBytes(body, c.imageURLPath)
	switch {
	case !result.Exists():
		return "", &ContractError{Path: c.imageURLPath, Reason: "field missing", Body: truncate(body)}
	case result.Type != gjson.String:
		return "", &ContractError{Path: c.imageURLPath, Reason: "field is not a string", Body: truncate(body)}
	case result.Str == "":
		return "", &ContractError{Path: c.imageURLPath, Reason: "field is empty", Body: truncate(body)}
	}

	return result.Str, nil
}
