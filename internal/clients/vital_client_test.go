package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitsink/internal/providers"
	"fitsink/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientTestLogger struct{}

func (l *clientTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...any) {}
func (l *clientTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...any)  {}
func (l *clientTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...any) {}
func (l *clientTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...any)  {}
func (l *clientTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...any) {}
func (l *clientTestLogger) Close()                                          {}

func newTestVitalClient(serverURL string) *VitalClient {
	conf := &structures.Config{}
	conf.Vital.APIKey = "sk_test_key"
	c := NewVitalClient(conf, &clientTestLogger{})
	c.baseURL = serverURL
	return c
}

func TestVitalClient_CreateLinkToken(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-vital-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"link_token":"lt_123"}`))
	}))
	defer server.Close()

	c := newTestVitalClient(server.URL)
	token, err := c.CreateLinkToken(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "lt_123", token.LinkToken)
	assert.Equal(t, "/link/token", gotPath)
	assert.Equal(t, "sk_test_key", gotAPIKey)
	assert.Equal(t, "user-1", gotBody["user_id"])
}

func TestVitalClient_LinkURL(t *testing.T) {
	conf := &structures.Config{}
	conf.Vital.Environment = "production"
	c := NewVitalClient(conf, &clientTestLogger{})

	url := c.LinkURL(&VitalLinkToken{LinkToken: "lt_123"})
	assert.Equal(t, "https://link.tryvital.io/?token=lt_123&env=production", url)
}

func TestVitalClient_DefaultEnvironmentSandbox(t *testing.T) {
	c := NewVitalClient(&structures.Config{}, &clientTestLogger{})
	assert.Equal(t, "sandbox", c.environment)
}

func TestVitalClient_DisconnectProvider(t *testing.T) {
	var gotMethod, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestVitalClient(server.URL)
	err := c.DisconnectProvider(context.Background(), "user-1", "oura")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/user/user-1/provider/oura", gotPath)
}

func TestVitalClient_GetSleepData(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"sleep":[]}`))
	}))
	defer server.Close()

	c := newTestVitalClient(server.URL)
	raw, err := c.GetSleepData(context.Background(), "user-1", "2026-03-01", "2026-03-07")
	require.NoError(t, err)

	assert.JSONEq(t, `{"sleep":[]}`, string(raw))
	assert.Contains(t, gotQuery, "start_date=2026-03-01")
	assert.Contains(t, gotQuery, "end_date=2026-03-07")
}

func TestVitalClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer server.Close()

	c := newTestVitalClient(server.URL)
	_, err := c.CreateLinkToken(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
