package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"pinbot/internal/gateway"
	"pinbot/internal/providers"
	"pinbot/internal/store"
	"pinbot/internal/structures"
)

type DownloaderInterface interface {
	// Dispatch hands off a download as a detached unit of work. It never
	// blocks the caller; the task's outcome surfaces only in logs, metrics
	// and the record's downloaded flag.
	Dispatch(cid string)
	Inflight() int
}

// Downloader materializes pinned content under <downloadDir>/<cid>. The
// weighted semaphore caps concurrent transfers; singleflight collapses
// repeat sightings of a CID whose download is already in flight. Once
// dispatched a download runs to completion or failure — there is no
// cancellation, the next sweep simply deletes what an expired record wrote.
type Downloader struct {
	config   *structures.Config
	logger   providers.Logger
	store    store.PinStoreInterface
	storage  gateway.StorageClientInterface
	metrics  providers.MetricsProviderInterface
	sem      *semaphore.Weighted
	group    singleflight.Group
	inflight atomic.Int64
}

func NewDownloader(
	config *structures.Config,
	logger providers.Logger,
	pinStore store.PinStoreInterface,
	storage gateway.StorageClientInterface,
	metrics providers.MetricsProviderInterface,
) DownloaderInterface {
	workers := config.Poller.MaxDownloads
	if workers <= 0 {
		workers = 4
	}
	return &Downloader{
		config:  config,
		logger:  logger,
		store:   pinStore,
		storage: storage,
		metrics: metrics,
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

func (d *Downloader) Dispatch(cid string) {
	go func() {
		_, _, _ = d.group.Do(cid, func() (interface{}, error) {
			ctx := context.Background()
			if err := d.sem.Acquire(ctx, 1); err != nil {
				return nil, err
			}
			defer d.sem.Release(1)

			d.inflight.Add(1)
			d.metrics.IncInflightDownloads()
			defer func() {
				d.inflight.Add(-1)
				d.metrics.DecInflightDownloads()
			}()

			if err := d.download(ctx, cid); err != nil {
				d.metrics.IncDownloadFailures()
				d.logger.Errorf(providers.TypeDownload, "Download of %s failed: %s", cid, err)
				return nil, err
			}
			d.metrics.IncDownloadsTotal()
			return nil, nil
		})
	}()
}

func (d *Downloader) Inflight() int {
	return int(d.inflight.Load())
}

func (d *Downloader) download(ctx context.Context, cid string) error {
	content, name, err := d.storage.Fetch(ctx, cid)
	if err != nil {
		return err
	}
	defer content.Close()

	dir := d.config.Ipfs.DownloadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	// Content lands under the CID, not the display name, so the sweep's
	// file removal always finds it.
	finalPath := filepath.Join(dir, cid)
	tmpPath := finalPath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}

	if _, err := io.Copy(file, content); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}

	// No-op if the record was swept while the transfer ran; the sweep will
	// collect the file on its next pass.
	if err := d.store.MarkDownloaded(ctx, cid); err != nil {
		return fmt.Errorf("marking %s downloaded: %w", cid, err)
	}

	d.logger.Infof(providers.TypeDownload, "Downloaded %s (%s) to %s", cid, name, finalPath)
	return nil
}
