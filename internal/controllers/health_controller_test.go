package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinbot/internal/store"
	"pinbot/internal/structures"
	"pinbot/internal/testutil"
)

func newHealthController(t *testing.T) (*HealthController, store.PinStoreInterface) {
	t.Helper()
	conf := &structures.Config{
		Pins: structures.PinsConfig{DatabasePath: filepath.Join(t.TempDir(), "pins.db")},
	}
	pinStore, err := store.NewPinStore(conf, &testutil.MockLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pinStore.Close() })

	return NewHealthController(pinStore, &testutil.MockDownloader{}, &testutil.MockLogger{}), pinStore
}

func TestHealth_ReportsState(t *testing.T) {
	hc, pinStore := newHealthController(t)

	now := time.Now()
	require.NoError(t, pinStore.Upsert(context.Background(), "QmFoo", now, now.Add(time.Hour), false))

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp struct {
		Status            string  `json:"status"`
		Uptime            string  `json:"uptime"`
		UptimeSeconds     float64 `json:"uptime_seconds"`
		PinRecords        int     `json:"pin_records"`
		InflightDownloads int     `json:"inflight_downloads"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.PinRecords)
	assert.Equal(t, 0, resp.InflightDownloads)
	assert.GreaterOrEqual(t, resp.UptimeSeconds, 0.0)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealth_RejectsNonGet(t *testing.T) {
	hc, _ := newHealthController(t)

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h0m5s", formatDuration(5*time.Second))
	assert.Equal(t, "1h1m1s", formatDuration(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "25h0m0s", formatDuration(25*time.Hour))
}
