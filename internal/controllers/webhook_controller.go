package controllers

import (
	"errors"
	"io"
	"net/http"

	"fitsink/internal/archive"
	"fitsink/internal/providers"
	"fitsink/internal/services"
	"fitsink/internal/structures"
	"fitsink/internal/webhooks"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// providerEndpoint bundles everything one webhook route needs: the
// signature header, its verifier, the event-type probe and the dispatch
// table.
type providerEndpoint struct {
	name       string
	header     string
	verifier   webhooks.Verifier
	eventType  func(body []byte) (string, error)
	dispatcher *webhooks.Dispatcher
}

type WebhookController struct {
	conf     *structures.Config
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	archiver archive.BufferInterface
	vital    providerEndpoint
	terra    providerEndpoint
	stripe   providerEndpoint
}

func NewWebhookController(
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	archiver archive.BufferInterface,
	ingestion services.IngestionServiceInterface,
) *WebhookController {
	return &WebhookController{
		conf:     conf,
		logger:   logger,
		metrics:  metrics,
		archiver: archiver,
		vital: providerEndpoint{
			name:       "vital",
			header:     "x-vital-signature",
			verifier:   webhooks.NewHMACVerifier(conf.Vital.WebhookSecret),
			eventType:  webhooks.VitalEventType,
			dispatcher: webhooks.NewVitalDispatcher(ingestion, logger),
		},
		terra: providerEndpoint{
			name:       "terra",
			header:     "terra-signature",
			verifier:   webhooks.NewHMACVerifier(conf.Terra.SigningSecret),
			eventType:  webhooks.TerraEventType,
			dispatcher: webhooks.NewTerraDispatcher(ingestion, logger),
		},
		stripe: providerEndpoint{
			name:       "stripe",
			header:     "stripe-signature",
			verifier:   webhooks.NewStripeVerifier(conf.Stripe.WebhookSecret, conf.Stripe.Tolerance),
			eventType:  webhooks.StripeEventType,
			dispatcher: webhooks.NewStripeDispatcher(ingestion, logger),
		},
	}
}

func (wc *WebhookController) VitalWebhook(w http.ResponseWriter, r *http.Request) {
	wc.handle(w, r, &wc.vital)
}

func (wc *WebhookController) TerraWebhook(w http.ResponseWriter, r *http.Request) {
	wc.handle(w, r, &wc.terra)
}

func (wc *WebhookController) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	wc.handle(w, r, &wc.stripe)
}

type ackResponse struct {
	Received bool `json:"received"`
	webhooks.Result
}

func (wc *WebhookController) handle(w http.ResponseWriter, r *http.Request, ep *providerEndpoint) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request")
		return
	}

	// The signature covers the exact bytes received; verify before any
	// parsing touches the body.
	if err := ep.verifier.Verify(body, r.Header.Get(ep.header)); err != nil {
		if errors.Is(err, webhooks.ErrSecretNotConfigured) && !wc.conf.IsProduction() {
			wc.logger.Warnf(providers.TypeWebhook, "No %s webhook secret configured, accepting unverified delivery", ep.name)
		} else {
			wc.metrics.IncSignatureRejections(ep.name)
			wc.logger.Warnf(providers.TypeWebhook, "Rejected %s delivery: %s", ep.name, err)
			writeError(w, http.StatusUnauthorized, signatureErrorMessage(err))
			return
		}
	}

	eventType, err := ep.eventType(body)
	if err != nil {
		wc.logger.Warnf(providers.TypeWebhook, "Malformed %s delivery: %s", ep.name, err)
		writeError(w, http.StatusBadRequest, "Malformed payload")
		return
	}

	wc.metrics.IncWebhooksReceived(ep.name, eventType)
	wc.archiver.Append(ep.name, eventType, body)

	res, handled, err := ep.dispatcher.Dispatch(r.Context(), eventType, body)
	if err != nil {
		if errors.Is(err, webhooks.ErrMalformedPayload) {
			wc.logger.Warnf(providers.TypeWebhook, "Malformed %s %s payload: %s", ep.name, eventType, err)
			writeError(w, http.StatusBadRequest, "Malformed payload")
			return
		}
		wc.logger.Errorf(providers.TypeWebhook, "Failed to process %s %s delivery: %s", ep.name, eventType, err)
		writeError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	if handled {
		wc.logger.Debugf(providers.TypeWebhook, "Processed %s %s: written=%d skipped=%d failed=%d",
			ep.name, eventType, res.Written, res.Skipped, res.Failed)
	}

	writeJSON(w, http.StatusOK, ackResponse{Received: true, Result: res})
}

func signatureErrorMessage(err error) string {
	if errors.Is(err, webhooks.ErrMissingSignature) {
		return "Missing signature"
	}
	return "Invalid signature"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
