package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type middlewareTestMetrics struct {
	requestEndpoint string
	requestStatus   int
	requestCalls    int
	durationCalls   int
}

func (m *middlewareTestMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}
func (m *middlewareTestMetrics) ObserveRequestDuration(_ string, _ time.Duration) {
	m.durationCalls++
}
func (m *middlewareTestMetrics) IncMessagesTotal()                    {}
func (m *middlewareTestMetrics) IncPinsTotal()                        {}
func (m *middlewareTestMetrics) IncPinFailures()                      {}
func (m *middlewareTestMetrics) IncDownloadsTotal()                   {}
func (m *middlewareTestMetrics) IncDownloadFailures()                 {}
func (m *middlewareTestMetrics) IncInflightDownloads()                {}
func (m *middlewareTestMetrics) DecInflightDownloads()                {}
func (m *middlewareTestMetrics) AddSweepRemoved(_ int)                {}
func (m *middlewareTestMetrics) ObserveSweepDuration(_ time.Duration) {}
func (m *middlewareTestMetrics) SetRecordsTotal(_ int)                {}

func TestMetricsMiddleware_CapturesStatusAndEndpoint(t *testing.T) {
	metrics := &middlewareTestMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := MetricsMiddleware(metrics, &dedupTestLogger{}, handler)

	req := httptest.NewRequest(http.MethodGet, "/pins", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, 1, metrics.requestCalls)
	assert.Equal(t, "/pins", metrics.requestEndpoint)
	assert.Equal(t, http.StatusCreated, metrics.requestStatus)
	assert.Equal(t, 1, metrics.durationCalls)
}

func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	metrics := &middlewareTestMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mw := MetricsMiddleware(metrics, &dedupTestLogger{}, handler)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, metrics.requestStatus)
}

func TestStatusWriter_WriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, sw.status)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
