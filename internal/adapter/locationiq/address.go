package locationiq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-realtime/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-realtime/pkg/metrics"
)

const DefaultBaseURL = "https://us1.locationiq.com"

var ErrAddressNotFound = errors.New("address not found")

// Client reverse-geocodes ride endpoints through the LocationIQ API
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type addressPayload struct {
	Address string `json:"display_name"`
}

// GetAddress returns the display name of the point
func (c *Client) GetAddress(ctx context.Context, longitude, latitude float64) (_ string, err error) {
	const op = "locationiq.GetAddress"

	start := time.Now()
	defer func() { metrics.RecordExternalCall("locationiq", "reverse", time.Since(start), err) }()

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("lat", strconv.FormatFloat(latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', 6, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: request failed: %w", op, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrAddressNotFound
	case resp.StatusCode != http.StatusOK:
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return "", wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, resp.StatusCode))
	}

	var payload addressPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", wrap.Error(ctx, fmt.Errorf("%s: failed to decode response: %w", op, err))
	}
	if payload.Address == "" {
		return "", ErrAddressNotFound
	}

	return payload.Address, nil
}
