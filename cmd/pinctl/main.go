// pinctl is the operator tool for the pin database: inspect status, pin a
// local file, unpin a CID, or extend a pin's lifetime. It shares the pin
// store and the storage gateway client with the bot; the bot does not need
// to be running.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	flag "github.com/spf13/pflag"

	"pinbot/internal/gateway"
	"pinbot/internal/providers"
	"pinbot/internal/store"
	"pinbot/internal/structures"
)

const usage = `Usage: pinctl [--config FILE] COMMAND

Commands:
  status                  show all pins with size, download state and expiry
  pin <file>              add a local file to the storage gateway and track it
  unpin <cid>             unpin a CID and delete its record and local file
  extend <cid> <hours>    extend a pin's lifetime
`

type env struct {
	conf    *structures.Config
	logger  providers.Logger
	store   store.PinStoreInterface
	storage gateway.StorageClientInterface
}

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(flags, args); err != nil {
		fmt.Fprintf(os.Stderr, "pinctl: %s\n", err)
		os.Exit(1)
	}
}

func run(flags *structures.CliFlags, args []string) error {
	conf, err := providers.NewConfigProvider(flags)
	if err != nil {
		return err
	}
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return err
	}
	defer logger.Close()

	pinStore, err := store.NewPinStore(conf, logger)
	if err != nil {
		return err
	}
	defer pinStore.Close()

	e := &env{
		conf:    conf,
		logger:  logger,
		store:   pinStore,
		storage: gateway.NewStorageClient(conf, logger),
	}

	ctx := context.Background()
	switch args[0] {
	case "status":
		return e.status(ctx)
	case "pin":
		if len(args) != 2 {
			return errors.New("pin requires a file path")
		}
		return e.pin(ctx, args[1])
	case "unpin":
		if len(args) != 2 {
			return errors.New("unpin requires a CID")
		}
		return e.unpin(ctx, args[1])
	case "extend":
		if len(args) != 3 {
			return errors.New("extend requires a CID and a number of hours")
		}
		hours, err := strconv.Atoi(args[2])
		if err != nil || hours <= 0 {
			return errors.New("hours must be a positive number")
		}
		return e.extend(ctx, args[1], hours)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (e *env) status(ctx context.Context) error {
	records, err := e.store.ListAll(ctx)
	if err != nil {
		return err
	}

	type row struct {
		cid        string
		size       string
		downloaded bool
		expiry     string
	}

	now := time.Now()
	rows := make([]row, 0, len(records))
	tracked := make(map[string]struct{}, len(records))
	for _, record := range records {
		tracked[record.Cid] = struct{}{}
		expiry := "expired"
		if left := record.HoursLeft(now); left > 0 {
			expiry = fmt.Sprintf("%.1fh left", left)
		}
		rows = append(rows, row{
			cid:        record.Cid,
			size:       e.contentSize(ctx, record.Cid),
			downloaded: record.Downloaded || e.localFileExists(record.Cid),
			expiry:     expiry,
		})
	}

	// Pins made on the gateway outside the bot have no record and no expiry.
	gwCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	pinned, err := e.storage.ListPinned(gwCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: storage gateway unavailable: %s\n", err)
	}
	for cid := range pinned {
		if _, ok := tracked[cid]; ok {
			continue
		}
		rows = append(rows, row{
			cid:        cid,
			size:       e.contentSize(ctx, cid),
			downloaded: e.localFileExists(cid),
			expiry:     "-",
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CID\tSIZE\tSTATUS\tEXPIRY")
	for _, r := range rows {
		status := "pending"
		if r.downloaded {
			status = "downloaded"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.cid, r.size, status, r.expiry)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nTotal pins: %d\nDownload directory: %s\n", len(rows), e.conf.Ipfs.DownloadDir)
	return nil
}

func (e *env) pin(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	cid, err := e.storage.Add(ctx, filepath.Base(path), file)
	if err != nil {
		return fmt.Errorf("adding %s to storage gateway: %w", path, err)
	}

	// The content came from disk, so the record starts out downloaded.
	now := time.Now()
	if err := e.store.Upsert(ctx, cid, now, now.Add(e.conf.Pins.Duration), true); err != nil {
		return err
	}

	e.logger.Infof(providers.TypeCli, "Pinned local file %s as %s", path, cid)
	fmt.Printf("Pinned %s\nCID: %s\nExpires: %s\n", path, cid, now.Add(e.conf.Pins.Duration).Format("2006-01-02 15:04:05"))
	return nil
}

func (e *env) unpin(ctx context.Context, cid string) error {
	if err := e.storage.Unpin(ctx, cid); err != nil {
		fmt.Fprintf(os.Stderr, "warning: gateway unpin failed: %s\n", err)
		e.logger.Warnf(providers.TypeCli, "Gateway unpin of %s failed: %s", cid, err)
	}

	// The record and the local file go regardless of the gateway's answer.
	if err := e.store.Remove(ctx, cid); err != nil {
		return err
	}
	path := filepath.Join(e.conf.Ipfs.DownloadDir, cid)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	e.logger.Infof(providers.TypeCli, "Unpinned %s", cid)
	fmt.Printf("Unpinned %s\n", cid)
	return nil
}

func (e *env) extend(ctx context.Context, cid string, hours int) error {
	newExpire, err := e.store.Extend(ctx, cid, time.Duration(hours)*time.Hour)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("CID %s is not tracked", cid)
	}
	if err != nil {
		return err
	}

	e.logger.Infof(providers.TypeCli, "Extended %s by %dh", cid, hours)
	fmt.Printf("Extended %s by %dh\nNew expiry: %s\n", cid, hours, newExpire.Format("2006-01-02 15:04:05"))
	return nil
}

func (e *env) localFileExists(cid string) bool {
	_, err := os.Stat(filepath.Join(e.conf.Ipfs.DownloadDir, cid))
	return err == nil
}

func (e *env) contentSize(ctx context.Context, cid string) string {
	if info, err := os.Stat(filepath.Join(e.conf.Ipfs.DownloadDir, cid)); err == nil {
		return humanize.Bytes(uint64(info.Size()))
	}
	statCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	size, err := e.storage.Stat(statCtx, cid)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(size))
}
