package internal

import (
	"net/http"

	"fitsink/internal/controllers"
	"fitsink/internal/providers"
)

func InitRoutes(webhookController *controllers.WebhookController, integrationsController *controllers.IntegrationsController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/webhooks/vital", http.HandlerFunc(webhookController.VitalWebhook))
	routers.Post("/webhooks/terra", http.HandlerFunc(webhookController.TerraWebhook))
	routers.Post("/webhooks/stripe", http.HandlerFunc(webhookController.StripeWebhook))
	routers.Post("/integrations/connect", http.HandlerFunc(integrationsController.Connect))
	routers.Post("/integrations/disconnect", http.HandlerFunc(integrationsController.Disconnect))
	return routers
}
