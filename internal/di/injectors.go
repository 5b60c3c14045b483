//go:build wireinject
// +build wireinject

package di

import (
	"fitsink/internal"
	"fitsink/internal/archive"
	"fitsink/internal/clients"
	"fitsink/internal/controllers"
	"fitsink/internal/providers"
	"fitsink/internal/repository"
	"fitsink/internal/services"
	"fitsink/internal/structures"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewCacheProvider,
		providers.NewDBProvider,

		repository.NewMetricRepository,
		repository.NewWorkoutRepository,
		repository.NewIntegrationRepository,
		repository.NewSubscriptionRepository,
		services.NewIngestionService,

		archive.NewZstdCompressor,
		archive.NewArchiver,
		archive.NewScheduler,
		wire.Bind(new(archive.BufferInterface), new(*archive.Archiver)),

		clients.NewVitalClient,
		clients.NewTerraClient,

		controllers.NewWebhookController,
		controllers.NewIntegrationsController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
