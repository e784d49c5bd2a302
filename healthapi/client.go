// Package healthapi fetches metric samples from the third-party health API.
package healthapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joeecarter/respondr-server/request"
)

const DefaultTimeout = 30 * time.Second

type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("health api base url is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid health api base url: %w", err)
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Fetch queries one endpoint for the given range. The API may answer with a
// bare array of samples or with an object holding them under "data";
// 404 and empty bodies mean no data.
func (c *Client) Fetch(ctx context.Context, endpoint string, timeRange request.TimeRange, units string) ([]request.Sample, error) {
	query := url.Values{}
	query.Set("start", timeRange.Start.UTC().Format(time.RFC3339))
	query.Set("end", timeRange.End.UTC().Format(time.RFC3339))
	if units != "" {
		query.Set("units", units)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError{endpoint: endpoint, status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}

	return decodeSamples(b)
}

func decodeSamples(b []byte) ([]request.Sample, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	if b[0] == '[' {
		var samples []request.Sample
		if err := json.Unmarshal(b, &samples); err != nil {
			return nil, fmt.Errorf("failed to decode samples: %w", err)
		}
		return samples, nil
	}

	var envelope struct {
		Data []request.Sample `json:"data"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode samples: %w", err)
	}
	return envelope.Data, nil
}

type apiError struct {
	endpoint string
	status   int
	body     string
}

func (err apiError) Error() string {
	if err.body == "" {
		return fmt.Sprintf("health api %s returned %d", err.endpoint, err.status)
	}
	return fmt.Sprintf("health api %s returned %d: %s", err.endpoint, err.status, err.body)
}
