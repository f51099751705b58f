package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pinbot/internal/structures"
)

// local mock logger to avoid import cycle with testutil
type dedupTestLogger struct{}

func (m *dedupTestLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *dedupTestLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *dedupTestLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *dedupTestLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *dedupTestLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *dedupTestLogger) Close()                                        {}

func dedupConfig(sizeMB int, ttl time.Duration) *structures.Config {
	return &structures.Config{
		Dedup: structures.DedupConfig{
			Size: sizeMB,
			TTL:  ttl,
		},
	}
}

func TestDedupProvider_RecordThenSeen(t *testing.T) {
	d := NewDedupProvider(dedupConfig(1, 24*time.Hour), &dedupTestLogger{})

	assert.False(t, d.Seen("+15551234567-1000"))
	d.Record("+15551234567-1000")
	assert.True(t, d.Seen("+15551234567-1000"))
}

func TestDedupProvider_DistinctKeys(t *testing.T) {
	d := NewDedupProvider(dedupConfig(1, 24*time.Hour), &dedupTestLogger{})

	d.Record("+15551234567-1000")
	assert.False(t, d.Seen("+15551234567-1001"))
	assert.False(t, d.Seen("+15559999999-1000"))
}

func TestDedupProvider_RecordIsIdempotent(t *testing.T) {
	d := NewDedupProvider(dedupConfig(1, 24*time.Hour), &dedupTestLogger{})

	d.Record("key")
	d.Record("key")
	assert.True(t, d.Seen("key"))
}

func TestDedupProvider_ZeroSizeFallsBack(t *testing.T) {
	d := NewDedupProvider(dedupConfig(0, 24*time.Hour), &dedupTestLogger{})

	d.Record("key")
	assert.True(t, d.Seen("key"))
}

func TestDedupProvider_TTLEviction(t *testing.T) {
	d := NewDedupProvider(dedupConfig(1, time.Second), &dedupTestLogger{})

	d.Record("short-lived")
	assert.True(t, d.Seen("short-lived"))

	time.Sleep(1100 * time.Millisecond)
	assert.False(t, d.Seen("short-lived"))
}

func TestUnsafeStringToBytes(t *testing.T) {
	assert.Nil(t, unsafeStringToBytes(""))
	assert.Equal(t, []byte("abc"), unsafeStringToBytes("abc"))
}
