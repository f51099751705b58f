package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"pinbot/internal/providers"
	"pinbot/internal/services"
	"pinbot/internal/store"
)

type HealthController struct {
	store      store.PinStoreInterface
	downloader services.DownloaderInterface
	logger     providers.Logger
	startTime  time.Time
}

type healthResponse struct {
	Status            string  `json:"status"`
	Uptime            string  `json:"uptime"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	PinRecords        int     `json:"pin_records"`
	InflightDownloads int     `json:"inflight_downloads"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := hc.store.Count(r.Context())
	if err != nil {
		hc.logger.Errorf(providers.TypeGet, "Counting pin records: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:            "ok",
		Uptime:            formatDuration(uptime),
		UptimeSeconds:     uptime.Seconds(),
		PinRecords:        count,
		InflightDownloads: hc.downloader.Inflight(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(pinStore store.PinStoreInterface, downloader services.DownloaderInterface, logger providers.Logger) *HealthController {
	return &HealthController{
		store:      pinStore,
		downloader: downloader,
		logger:     logger,
		startTime:  time.Now(),
	}
}
