// Package clients holds the outbound vendor API clients. They are
// constructed once from config and injected wherever needed; nothing in
// this package is a process-global.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"fitsink/internal/providers"
	"fitsink/internal/structures"

	json "github.com/goccy/go-json"
)

const vitalAPIBase = "https://api.tryvital.io/v2"

type VitalClient struct {
	baseURL     string
	apiKey      string
	environment string
	httpClient  *http.Client
	logger      providers.Logger
}

func NewVitalClient(conf *structures.Config, logger providers.Logger) *VitalClient {
	environment := conf.Vital.Environment
	if environment == "" {
		environment = "sandbox"
	}
	return &VitalClient{
		baseURL:     vitalAPIBase,
		apiKey:      conf.Vital.APIKey,
		environment: environment,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

func (c *VitalClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-vital-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Errorf(providers.TypeApp, "Vital API error: %s %s -> %d: %s", method, path, resp.StatusCode, detail)
		return fmt.Errorf("vital api: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type VitalLinkToken struct {
	LinkToken string `json:"link_token"`
}

// CreateLinkToken starts a device-link session for the user. The returned
// token completes the flow at link.tryvital.io.
func (c *VitalClient) CreateLinkToken(ctx context.Context, userID string) (*VitalLinkToken, error) {
	c.logger.Infof(providers.TypeApp, "Creating Vital link token for user %s", userID)

	var token VitalLinkToken
	err := c.do(ctx, http.MethodPost, "/link/token", map[string]string{"user_id": userID}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// LinkURL builds the user-facing URL for a link token.
func (c *VitalClient) LinkURL(token *VitalLinkToken) string {
	return fmt.Sprintf("https://link.tryvital.io/?token=%s&env=%s", token.LinkToken, c.environment)
}

func (c *VitalClient) DisconnectProvider(ctx context.Context, userID, provider string) error {
	c.logger.Infof(providers.TypeApp, "Disconnecting Vital provider %s for user %s", provider, userID)
	path := fmt.Sprintf("/user/%s/provider/%s", url.PathEscape(userID), url.PathEscape(provider))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func summaryPath(kind, userID, startDate, endDate string) string {
	params := url.Values{}
	if startDate != "" {
		params.Set("start_date", startDate)
	}
	if endDate != "" {
		params.Set("end_date", endDate)
	}
	return fmt.Sprintf("/summary/%s/%s?%s", kind, url.PathEscape(userID), params.Encode())
}

// GetSleepData fetches historical sleep summaries, raw.
func (c *VitalClient) GetSleepData(ctx context.Context, userID, startDate, endDate string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, summaryPath("sleep", userID, startDate, endDate), nil, &out)
	return out, err
}

// GetActivityData fetches historical activity summaries, raw.
func (c *VitalClient) GetActivityData(ctx context.Context, userID, startDate, endDate string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, summaryPath("activity", userID, startDate, endDate), nil, &out)
	return out, err
}

// GetWorkouts fetches historical workouts, raw.
func (c *VitalClient) GetWorkouts(ctx context.Context, userID, startDate, endDate string) (json.RawMessage, error) {
	params := url.Values{}
	if startDate != "" {
		params.Set("start_date", startDate)
	}
	if endDate != "" {
		params.Set("end_date", endDate)
	}
	path := fmt.Sprintf("/timeseries/workouts/%s?%s", url.PathEscape(userID), params.Encode())
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}
