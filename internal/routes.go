package internal

import (
	"net/http"

	"pinbot/internal/controllers"
	"pinbot/internal/providers"
	"pinbot/internal/structures"
)

func InitRoutes(pinsController *controllers.PinsController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/pins", http.HandlerFunc(pinsController.ListPins))
	routers.Get("/pin", http.HandlerFunc(pinsController.GetPin))
	return routers
}
