// Package services holds the pin lifecycle core: the manager that turns
// incoming envelopes into pin records and gateway pins, and the background
// downloader that materializes pinned content locally.
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pinbot/internal/extractor"
	"pinbot/internal/gateway"
	"pinbot/internal/models"
	"pinbot/internal/providers"
	"pinbot/internal/store"
	"pinbot/internal/structures"
)

type PinManagerInterface interface {
	HandleEnvelope(ctx context.Context, env *models.Envelope)
	SweepExpired(ctx context.Context, now time.Time)
}

// PinManager orchestrates extraction, store writes, gateway pins, background
// downloads and the expiry sweep. Both entry points catch every failure at
// their own boundary: a bad message or a failed cleanup never stops the poll
// loop.
type PinManager struct {
	config     *structures.Config
	logger     providers.Logger
	store      store.PinStoreInterface
	storage    gateway.StorageClientInterface
	messenger  gateway.MessagingClientInterface
	dedup      providers.DedupProviderInterface
	downloader DownloaderInterface
	metrics    providers.MetricsProviderInterface
}

func NewPinManager(
	config *structures.Config,
	logger providers.Logger,
	pinStore store.PinStoreInterface,
	storage gateway.StorageClientInterface,
	messenger gateway.MessagingClientInterface,
	dedup providers.DedupProviderInterface,
	downloader DownloaderInterface,
	metrics providers.MetricsProviderInterface,
) PinManagerInterface {
	return &PinManager{
		config:     config,
		logger:     logger,
		store:      pinStore,
		storage:    storage,
		messenger:  messenger,
		dedup:      dedup,
		downloader: downloader,
		metrics:    metrics,
	}
}

func (m *PinManager) HandleEnvelope(ctx context.Context, env *models.Envelope) {
	msg, ok := env.Normalize()
	if !ok {
		return
	}
	m.metrics.IncMessagesTotal()

	key := msg.DedupKey()
	if m.dedup.Seen(key) {
		m.logger.Debugf(providers.TypePoll, "Duplicate delivery ignored: %s", key)
		return
	}
	// Recorded unconditionally so redelivery of content-free messages is
	// suppressed too.
	m.dedup.Record(key)

	cid := extractor.Extract(msg.Text)
	if cid == "" {
		m.logger.Debugf(providers.TypePoll, "No CID in message from %s", msg.Source)
		return
	}
	m.logger.Infof(providers.TypePoll, "Found CID %s in message from %s", cid, msg.Source)

	now := time.Now()
	expireTime := now.Add(m.config.Pins.Duration)

	// The record lands before the gateway call. A crash between the two
	// leaves a durable row to reconcile later rather than a silent pin.
	if err := m.store.Upsert(ctx, cid, now, expireTime, false); err != nil {
		m.logger.Errorf(providers.TypePoll, "Recording pin for %s: %s", cid, err)
		return
	}

	if err := m.storage.Pin(ctx, cid); err != nil {
		m.metrics.IncPinFailures()
		m.logger.Errorf(providers.TypePoll, "Pinning %s: %s", cid, err)
		// The record stays; there is no automatic retry of failed pins.
		m.notify(ctx, msg.Source, fmt.Sprintf("Failed to pin file %s", cid))
		return
	}
	m.metrics.IncPinsTotal()
	m.logger.Infof(providers.TypePoll, "Pinned %s, expires %s", cid, expireTime.Format(time.RFC3339))

	m.notify(ctx, msg.Source, fmt.Sprintf("Successfully pinned file %s.\nPin will expire on %s",
		cid, expireTime.Format("2006-01-02 15:04:05")))

	m.downloader.Dispatch(cid)
}

// SweepExpired unpins, deletes and unlinks every expired record. Each CID's
// cleanup is independent; a failure on one never blocks the rest, and a
// repeated sweep over the same state is a no-op.
func (m *PinManager) SweepExpired(ctx context.Context, now time.Time) {
	start := time.Now()

	cids, err := m.store.ListExpired(ctx, now)
	if err != nil {
		m.logger.Errorf(providers.TypePoll, "Listing expired pins: %s", err)
		return
	}

	removed := 0
	for _, cid := range cids {
		if err := m.storage.Unpin(ctx, cid); err != nil {
			m.logger.Errorf(providers.TypePoll, "Unpinning expired %s: %s", cid, err)
		}
		if err := m.store.Remove(ctx, cid); err != nil {
			m.logger.Errorf(providers.TypePoll, "Removing record for %s: %s", cid, err)
		}
		path := filepath.Join(m.config.Ipfs.DownloadDir, cid)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Errorf(providers.TypePoll, "Deleting local file for %s: %s", cid, err)
		}
		removed++
		m.logger.Infof(providers.TypePoll, "Removed expired pin %s", cid)
	}

	if removed > 0 {
		m.metrics.AddSweepRemoved(removed)
	}
	m.metrics.ObserveSweepDuration(time.Since(start))

	if count, err := m.store.Count(ctx); err == nil {
		m.metrics.SetRecordsTotal(count)
	}
}

func (m *PinManager) notify(ctx context.Context, recipient, text string) {
	if !m.config.Signal.Notify {
		return
	}
	if err := m.messenger.Send(ctx, recipient, text); err != nil {
		m.logger.Warnf(providers.TypePoll, "Notifying %s: %s", recipient, err)
	}
}
