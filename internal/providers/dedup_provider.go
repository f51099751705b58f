package providers

import (
	"pinbot/internal/structures"
	"unsafe"

	"github.com/coocood/freecache"
)

// DedupProviderInterface is the process-lifetime set of already-handled
// message identities. The messaging gateway redelivers envelopes, so every
// identity is recorded on first sight and duplicates are dropped before they
// can re-trigger a pin or a notification. Membership is bounded in size and
// evicted by TTL; losing entries on restart is acceptable because duplicate
// pin requests are idempotent at the storage layer.
type DedupProviderInterface interface {
	Seen(key string) bool
	Record(key string)
}

type DedupProvider struct {
	cache *freecache.Cache
	ttl   int
}

var dedupMarker = []byte{1}

func NewDedupProvider(conf *structures.Config, logger Logger) DedupProviderInterface {
	sizeMB := conf.Dedup.Size
	if sizeMB <= 0 {
		sizeMB = 1
	}
	ttl := int(conf.Dedup.TTL.Seconds())
	if ttl < 0 {
		ttl = 0
	}

	logger.Infof(TypeApp, "Dedup filter initialized: %dMB, TTL=%ds", sizeMB, ttl)

	return &DedupProvider{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   ttl,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// Safe when the result is only read (not modified), which is the case
// for freecache — it copies keys internally.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (d *DedupProvider) Seen(key string) bool {
	_, err := d.cache.Get(unsafeStringToBytes(key))
	return err == nil
}

func (d *DedupProvider) Record(key string) {
	_ = d.cache.Set(unsafeStringToBytes(key), dedupMarker, d.ttl)
}
