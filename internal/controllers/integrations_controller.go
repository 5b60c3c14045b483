package controllers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"fitsink/internal/clients"
	"fitsink/internal/models"
	"fitsink/internal/providers"
	"fitsink/internal/repository"
	"fitsink/internal/services"
	"fitsink/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
)

// IntegrationsController exposes the connect/disconnect flows that sit
// in front of the vendor APIs. These routes are for our own frontend,
// not the vendors, so they carry bearer-token auth instead of webhook
// signatures.
type IntegrationsController struct {
	conf         *structures.Config
	logger       providers.Logger
	vital        *clients.VitalClient
	terra        *clients.TerraClient
	integrations repository.IntegrationRepositoryInterface
	ingestion    services.IngestionServiceInterface
}

func NewIntegrationsController(
	conf *structures.Config,
	logger providers.Logger,
	vital *clients.VitalClient,
	terra *clients.TerraClient,
	integrations repository.IntegrationRepositoryInterface,
	ingestion services.IngestionServiceInterface,
) *IntegrationsController {
	return &IntegrationsController{
		conf:         conf,
		logger:       logger,
		vital:        vital,
		terra:        terra,
		integrations: integrations,
		ingestion:    ingestion,
	}
}

func (ic *IntegrationsController) authorized(w http.ResponseWriter, r *http.Request) bool {
	token := ic.conf.API.Token
	if token == "" {
		writeError(w, http.StatusServiceUnavailable, "API token not configured")
		return false
	}
	presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	return true
}

type connectRequest struct {
	UserID      string   `json:"userId" validate:"required"`
	Provider    string   `json:"provider" validate:"required"`
	Wearables   []string `json:"wearables"`
	RedirectURL string   `json:"redirectUrl"`
}

// Connect starts a vendor link flow and returns the URL the user must
// visit. The integration row itself is created later, by the vendor's
// auth/connected webhook.
func (ic *IntegrationsController) Connect(w http.ResponseWriter, r *http.Request) {
	if !ic.authorized(w, r) {
		return
	}

	var req connectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	switch models.Provider(req.Provider) {
	case models.ProviderVital:
		token, err := ic.vital.CreateLinkToken(r.Context(), req.UserID)
		if err != nil {
			ic.logger.Errorf(providers.TypeApp, "Vital connect failed for user %s: %s", req.UserID, err)
			writeError(w, http.StatusBadGateway, "Failed to start Vital link session")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"authUrl":   ic.vital.LinkURL(token),
			"linkToken": token.LinkToken,
		})

	case models.ProviderTerra:
		session, err := ic.terra.GenerateWidgetSession(r.Context(), req.UserID, req.Wearables, req.RedirectURL)
		if err != nil {
			ic.logger.Errorf(providers.TypeApp, "Terra connect failed for user %s: %s", req.UserID, err)
			writeError(w, http.StatusBadGateway, "Failed to start Terra widget session")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"authUrl":   session.URL,
			"sessionId": session.SessionID,
		})

	default:
		writeError(w, http.StatusNotImplemented, "Provider not supported for connect")
	}
}

type disconnectRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Provider string `json:"provider" validate:"required"`
	// Vendor-side provider slug required by Vital's disconnect call,
	// e.g. "fitbit".
	VendorProvider string `json:"vendorProvider"`
}

// Disconnect deauthorizes the user at the vendor, then marks the
// integration DISCONNECTED. The row is kept; nothing silently disappears.
func (ic *IntegrationsController) Disconnect(w http.ResponseWriter, r *http.Request) {
	if !ic.authorized(w, r) {
		return
	}

	var req disconnectRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	provider := models.Provider(req.Provider)
	if !models.IsValidProvider(provider) {
		writeError(w, http.StatusBadRequest, "Unknown provider")
		return
	}

	switch provider {
	case models.ProviderVital:
		if req.VendorProvider != "" {
			if err := ic.vital.DisconnectProvider(r.Context(), req.UserID, req.VendorProvider); err != nil {
				ic.logger.Errorf(providers.TypeApp, "Vital disconnect failed for user %s: %s", req.UserID, err)
				writeError(w, http.StatusBadGateway, "Vendor deauthorization failed")
				return
			}
		}
	case models.ProviderTerra:
		rec, err := ic.integrations.Find(r.Context(), req.UserID, provider)
		if err == nil && rec.ProviderUserID != "" {
			if err := ic.terra.DeauthenticateUser(r.Context(), rec.ProviderUserID); err != nil {
				ic.logger.Errorf(providers.TypeApp, "Terra deauth failed for user %s: %s", req.UserID, err)
				writeError(w, http.StatusBadGateway, "Vendor deauthorization failed")
				return
			}
		}
	}

	if err := ic.ingestion.DisconnectIntegration(r.Context(), req.UserID, provider, ""); err != nil {
		ic.logger.Errorf(providers.TypeApp, "Failed to mark %s integration disconnected for user %s: %s", provider, req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update integration")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return false
	}
	v := validate.Struct(req)
	if !v.Validate() {
		writeError(w, http.StatusBadRequest, v.Errors.OneError().Error())
		return false
	}
	return true
}
