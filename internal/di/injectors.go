//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"pinbot/internal"
	"pinbot/internal/controllers"
	"pinbot/internal/gateway"
	"pinbot/internal/poller"
	"pinbot/internal/providers"
	"pinbot/internal/services"
	"pinbot/internal/store"
	"pinbot/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewDedupProvider,
		providers.NewMetricsProvider,

		store.NewPinStore,
		gateway.NewStorageClient,
		gateway.NewMessagingClient,
		services.NewDownloader,
		services.NewPinManager,
		poller.NewPoller,
		controllers.NewPinsController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
