package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"pinbot/internal/gateway"
	"pinbot/internal/models"
	"pinbot/internal/providers"
	"pinbot/internal/store"
	"pinbot/internal/structures"
)

// gatewayTimeout bounds the pin/ls reconciliation call so a wedged storage
// gateway cannot hang status requests.
const gatewayTimeout = 2 * time.Second

type PinsController struct {
	config  *structures.Config
	logger  providers.Logger
	store   store.PinStoreInterface
	storage gateway.StorageClientInterface
}

func NewPinsController(config *structures.Config, logger providers.Logger, pinStore store.PinStoreInterface, storage gateway.StorageClientInterface) *PinsController {
	return &PinsController{
		config:  config,
		logger:  logger,
		store:   pinStore,
		storage: storage,
	}
}

// ListPins reports every tracked record, merged with any pins present on the
// storage gateway but absent from the store (pinned manually, outside the
// bot). The gateway half is best effort.
func (pc *PinsController) ListPins(w http.ResponseWriter, r *http.Request) {
	records, err := pc.store.ListAll(r.Context())
	if err != nil {
		pc.logger.Errorf(providers.TypeGet, "Listing pin records: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	statuses := make([]models.PinStatus, 0, len(records))
	tracked := make(map[string]struct{}, len(records))
	for _, record := range records {
		tracked[record.Cid] = struct{}{}
		statuses = append(statuses, models.PinStatus{
			Cid:        record.Cid,
			PinTime:    &record.PinTime,
			ExpireTime: &record.ExpireTime,
			HoursLeft:  record.HoursLeft(now),
			Downloaded: record.Downloaded || pc.localFileExists(record.Cid),
			Tracked:    true,
		})
	}

	ctx, cancel := context.WithTimeout(r.Context(), gatewayTimeout)
	defer cancel()
	pinned, err := pc.storage.ListPinned(ctx)
	if err != nil {
		pc.logger.Warnf(providers.TypeGet, "Storage gateway unavailable for reconciliation: %s", err)
	}
	for cid := range pinned {
		if _, ok := tracked[cid]; ok {
			continue
		}
		statuses = append(statuses, models.PinStatus{
			Cid:        cid,
			Downloaded: pc.localFileExists(cid),
		})
	}

	writeJSON(w, statuses)
}

// GetPin reports a single record plus its content size: the local file size
// when downloaded, otherwise the gateway's cumulative size.
func (pc *PinsController) GetPin(w http.ResponseWriter, r *http.Request) {
	cid := r.URL.Query().Get("cid")
	if cid == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	record, err := pc.store.Get(r.Context(), cid)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err != nil {
		pc.logger.Errorf(providers.TypeGet, "Reading record for %s: %s", cid, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	response := struct {
		*models.PinRecord
		HoursLeft float64 `json:"hours_left"`
		SizeBytes int64   `json:"size_bytes"`
	}{
		PinRecord: record,
		HoursLeft: record.HoursLeft(time.Now()),
		SizeBytes: pc.contentSize(r.Context(), cid),
	}
	writeJSON(w, response)
}

func (pc *PinsController) localFileExists(cid string) bool {
	_, err := os.Stat(filepath.Join(pc.config.Ipfs.DownloadDir, cid))
	return err == nil
}

func (pc *PinsController) contentSize(ctx context.Context, cid string) int64 {
	if info, err := os.Stat(filepath.Join(pc.config.Ipfs.DownloadDir, cid)); err == nil {
		return info.Size()
	}
	statCtx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	size, err := pc.storage.Stat(statCtx, cid)
	if err != nil {
		pc.logger.Debugf(providers.TypeGet, "Stat of %s failed: %s", cid, err)
		return 0
	}
	return size
}

func writeJSON(w http.ResponseWriter, value any) {
	gson, err := json.Marshal(value)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}
