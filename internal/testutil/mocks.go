package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"pinbot/internal/models"
	"pinbot/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Entries returns a snapshot of the recorded log entries.
func (m *MockLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry(nil), m.Logs...)
}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu               sync.Mutex
	Messages         int
	Pins             int
	PinFailures      int
	Downloads        int
	DownloadFailures int
	SweepRemoved     int
	Records          int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncMessagesTotal()                                { m.mu.Lock(); m.Messages++; m.mu.Unlock() }
func (m *MockMetrics) IncPinsTotal()                                    { m.mu.Lock(); m.Pins++; m.mu.Unlock() }
func (m *MockMetrics) IncPinFailures()                                  { m.mu.Lock(); m.PinFailures++; m.mu.Unlock() }
func (m *MockMetrics) IncDownloadsTotal()                               { m.mu.Lock(); m.Downloads++; m.mu.Unlock() }
func (m *MockMetrics) IncDownloadFailures() {
	m.mu.Lock()
	m.DownloadFailures++
	m.mu.Unlock()
}
func (m *MockMetrics) IncInflightDownloads()                {}
func (m *MockMetrics) DecInflightDownloads()                {}
func (m *MockMetrics) AddSweepRemoved(count int)            { m.mu.Lock(); m.SweepRemoved += count; m.mu.Unlock() }
func (m *MockMetrics) ObserveSweepDuration(_ time.Duration) {}
func (m *MockMetrics) SetRecordsTotal(count int)            { m.mu.Lock(); m.Records = count; m.mu.Unlock() }

// DownloadCounts returns the download success and failure counters. Safe to
// call while downloads are still running.
func (m *MockMetrics) DownloadCounts() (downloads, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Downloads, m.DownloadFailures
}

// MockStorageClient implements gateway.StorageClientInterface with
// scriptable failures and recorded calls.
type MockStorageClient struct {
	mu sync.Mutex

	PinErr     error
	UnpinErr   error
	FetchErr   error
	StatSize   int64
	StatErr    error
	AddCid     string
	AddErr     error
	Content    []byte
	Name       string
	Pinned     map[string]struct{}
	ListErr    error
	PinCalls   []string
	UnpinCalls []string
	FetchCalls []string
}

func (m *MockStorageClient) Pin(_ context.Context, cid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PinCalls = append(m.PinCalls, cid)
	return m.PinErr
}

func (m *MockStorageClient) Unpin(_ context.Context, cid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnpinCalls = append(m.UnpinCalls, cid)
	return m.UnpinErr
}

func (m *MockStorageClient) Fetch(_ context.Context, cid string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls = append(m.FetchCalls, cid)
	if m.FetchErr != nil {
		return nil, "", m.FetchErr
	}
	name := m.Name
	if name == "" {
		name = cid
	}
	return io.NopCloser(bytes.NewReader(m.Content)), name, nil
}

func (m *MockStorageClient) ListPinned(_ context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Pinned, nil
}

func (m *MockStorageClient) Stat(_ context.Context, _ string) (int64, error) {
	return m.StatSize, m.StatErr
}

func (m *MockStorageClient) Add(_ context.Context, _ string, _ io.Reader) (string, error) {
	return m.AddCid, m.AddErr
}

// MockMessagingClient implements gateway.MessagingClientInterface. Queued
// envelopes are returned once per channel; sent messages are recorded.
type MockMessagingClient struct {
	mu sync.Mutex

	Accounts    []string
	AccountsErr error
	Inbox       map[string][]models.ReceiveItem
	ReceiveErr  map[string]error
	SendErr     error
	Sent        []SentMessage
	number      string
}

type SentMessage struct {
	Recipient string
	Text      string
}

func (m *MockMessagingClient) ListAccounts(_ context.Context) ([]string, error) {
	return m.Accounts, m.AccountsErr
}

func (m *MockMessagingClient) Receive(_ context.Context, channel string) ([]models.ReceiveItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.ReceiveErr[channel]; ok {
		return nil, err
	}
	items := m.Inbox[channel]
	delete(m.Inbox, channel)
	return items, nil
}

func (m *MockMessagingClient) Send(_ context.Context, recipient, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentMessage{Recipient: recipient, Text: text})
	return nil
}

func (m *MockMessagingClient) SetNumber(number string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.number = number
}

func (m *MockMessagingClient) Number() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.number
}

// SentMessages returns a snapshot of everything sent so far.
func (m *MockMessagingClient) SentMessages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.Sent...)
}

// MockDedup implements providers.DedupProviderInterface over a plain map.
type MockDedup struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewMockDedup() *MockDedup {
	return &MockDedup{keys: make(map[string]struct{})}
}

func (m *MockDedup) Seen(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok
}

func (m *MockDedup) Record(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
}

// MockDownloader implements services.DownloaderInterface and records
// dispatched CIDs.
type MockDownloader struct {
	mu         sync.Mutex
	Dispatched []string
}

func (m *MockDownloader) Dispatch(cid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dispatched = append(m.Dispatched, cid)
}

func (m *MockDownloader) Inflight() int { return 0 }

// DispatchedCids returns a snapshot of the dispatched CIDs.
func (m *MockDownloader) DispatchedCids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Dispatched...)
}

// MockManager implements services.PinManagerInterface and records calls.
type MockManager struct {
	mu      sync.Mutex
	Handled []models.Envelope
	Sweeps  []time.Time
}

func (m *MockManager) HandleEnvelope(_ context.Context, env *models.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handled = append(m.Handled, *env)
}

func (m *MockManager) SweepExpired(_ context.Context, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sweeps = append(m.Sweeps, now)
}

// HandledCount returns how many envelopes were handled.
func (m *MockManager) HandledCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Handled)
}
