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

const terraAPIBase = "https://api.tryterra.co/v2"

type TerraClient struct {
	baseURL    string
	devID      string
	apiKey     string
	httpClient *http.Client
	logger     providers.Logger
}

func NewTerraClient(conf *structures.Config, logger providers.Logger) *TerraClient {
	return &TerraClient{
		baseURL:    terraAPIBase,
		devID:      conf.Terra.DevID,
		apiKey:     conf.Terra.APIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

func (c *TerraClient) do(ctx context.Context, method, path string, payload, out any) error {
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
	req.Header.Set("dev-id", c.devID)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Errorf(providers.TypeApp, "Terra API error: %s %s -> %d: %s", method, path, resp.StatusCode, detail)
		return fmt.Errorf("terra api: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type TerraWidgetSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// GenerateWidgetSession starts a Terra connect flow for the user. The
// reference id ties webhook deliveries back to our own user id.
func (c *TerraClient) GenerateWidgetSession(ctx context.Context, userID string, wearables []string, redirectBase string) (*TerraWidgetSession, error) {
	c.logger.Infof(providers.TypeApp, "Creating Terra widget session for user %s", userID)

	payload := map[string]any{
		"reference_id": userID,
		"providers":    wearables,
		"language":     "en",
	}
	if redirectBase != "" {
		payload["auth_success_redirect_url"] = redirectBase + "?success=true"
		payload["auth_failure_redirect_url"] = redirectBase + "?error=auth_failed"
	}

	var session TerraWidgetSession
	err := c.do(ctx, http.MethodPost, "/auth/generateWidgetSession", payload, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeauthenticateUser revokes a Terra-side user. Expects Terra's own user
// id, not our reference id.
func (c *TerraClient) DeauthenticateUser(ctx context.Context, terraUserID string) error {
	c.logger.Infof(providers.TypeApp, "Deauthenticating Terra user %s", terraUserID)
	path := "/auth/deauthenticateUser?user_id=" + url.QueryEscape(terraUserID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
