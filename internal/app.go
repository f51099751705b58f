package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pinbot/internal/controllers"
	"pinbot/internal/poller"
	"pinbot/internal/providers"
	"pinbot/internal/store"
	"pinbot/internal/structures"
)

type App struct {
	WebServer *http.Server
}

// NewApp wires the status server and the poll loop together and blocks until
// a shutdown signal arrives. The poller's Restore must succeed (the bot is
// useless without an operating account), after which the loop and the HTTP
// server run until SIGINT/SIGTERM.
func NewApp(
	pinsController *controllers.PinsController,
	healthController *controllers.HealthController,
	pollLoop poller.PollerInterface,
	pinStore store.PinStoreInterface,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) (*App, error) {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Pattern, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)
	logger.Infof(providers.TypeApp, "Messaging gateway: %s", conf.Signal.ApiUrl)
	logger.Infof(providers.TypeApp, "Storage gateway: %s", conf.Ipfs.ApiUrl)
	logger.Infof(providers.TypeApp, "Download directory: %s", conf.Ipfs.DownloadDir)
	logger.Infof(providers.TypeApp, "Poll interval: %s, pin duration: %s", conf.Poller.Interval, conf.Pins.Duration)

	if err := pollLoop.Restore(); err != nil {
		return nil, fmt.Errorf("poller restore: %w", err)
	}

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	pollLoop.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return nil, fmt.Errorf("server error: %w", err)
	}

	pollLoop.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}
	if err := pinStore.Close(); err != nil {
		logger.Errorf(providers.TypeApp, "Closing pin store: %s", err)
	}
	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
