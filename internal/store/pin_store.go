// Package store holds the durable pin lifecycle table. It is the single
// arbiter of truth for pin state; the manager, the downloader and the
// operator CLI all read and write through it.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"pinbot/internal/models"
	"pinbot/internal/providers"
	"pinbot/internal/structures"
)

var ErrNotFound = errors.New("pin record not found")

const schema = `
CREATE TABLE IF NOT EXISTS pins (
	cid TEXT PRIMARY KEY,
	pin_time INTEGER NOT NULL,
	expire_time INTEGER NOT NULL,
	downloaded INTEGER NOT NULL DEFAULT 0
);
`

type PinStoreInterface interface {
	Upsert(ctx context.Context, cid string, pinTime, expireTime time.Time, downloaded bool) error
	MarkDownloaded(ctx context.Context, cid string) error
	Extend(ctx context.Context, cid string, d time.Duration) (time.Time, error)
	ListExpired(ctx context.Context, now time.Time) ([]string, error)
	Remove(ctx context.Context, cid string) error
	Get(ctx context.Context, cid string) (*models.PinRecord, error)
	ListAll(ctx context.Context) ([]*models.PinRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// PinStore is a SQLite-backed implementation. Every operation takes its own
// connection and runs as a single implicit transaction; Extend wraps its
// read-modify-write in a savepoint. Timestamps are stored as unix seconds.
type PinStore struct {
	pool *sqlitex.Pool
}

func NewPinStore(conf *structures.Config, logger providers.Logger) (PinStoreInterface, error) {
	pool, err := sqlitex.NewPool(conf.Pins.DatabasePath, sqlitex.PoolOptions{
		PoolSize: 4,
		PrepareConn: func(conn *sqlite.Conn) error {
			pragmas := []string{
				"PRAGMA journal_mode=WAL",
				"PRAGMA synchronous=NORMAL",
				"PRAGMA busy_timeout=5000",
			}
			for _, pragma := range pragmas {
				if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
					return fmt.Errorf("%s: %w", pragma, err)
				}
			}
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening pin database %s: %w", conf.Pins.DatabasePath, err)
	}

	logger.Infof(providers.TypeApp, "Pin store opened: %s", conf.Pins.DatabasePath)

	return &PinStore{pool: pool}, nil
}

func (s *PinStore) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("taking connection: %w", err)
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

// Upsert creates or fully replaces the record for cid. A repeat sighting of
// a CID resets its TTL window; it is never an error.
func (s *PinStore) Upsert(ctx context.Context, cid string, pinTime, expireTime time.Time, downloaded bool) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO pins (cid, pin_time, expire_time, downloaded) VALUES (?, ?, ?, ?)
			 ON CONFLICT(cid) DO UPDATE SET
				pin_time = excluded.pin_time,
				expire_time = excluded.expire_time,
				downloaded = excluded.downloaded`,
			&sqlitex.ExecOptions{Args: []any{cid, pinTime.Unix(), expireTime.Unix(), boolToInt(downloaded)}})
	})
}

// MarkDownloaded flips downloaded to true. A missing record is a no-op: the
// record may have been swept while the download was in flight.
func (s *PinStore) MarkDownloaded(ctx context.Context, cid string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`UPDATE pins SET downloaded = 1 WHERE cid = ?`,
			&sqlitex.ExecOptions{Args: []any{cid}})
	})
}

// Extend moves expire_time forward by d and returns the new expiry. Returns
// ErrNotFound when no record exists; the store is left unchanged. Negative
// or zero extensions are rejected so that expire_time never decreases.
func (s *PinStore) Extend(ctx context.Context, cid string, d time.Duration) (time.Time, error) {
	if d <= 0 {
		return time.Time{}, fmt.Errorf("extension must be positive, got %s", d)
	}

	var newExpire time.Time
	err := s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		defer sqlitex.Save(conn)(&err)

		var current int64
		found := false
		err = sqlitex.Execute(conn, `SELECT expire_time FROM pins WHERE cid = ?`, &sqlitex.ExecOptions{
			Args: []any{cid},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				current = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		newExpire = time.Unix(current, 0).Add(d)
		return sqlitex.Execute(conn, `UPDATE pins SET expire_time = ? WHERE cid = ?`,
			&sqlitex.ExecOptions{Args: []any{newExpire.Unix(), cid}})
	})
	if err != nil {
		return time.Time{}, err
	}
	return newExpire, nil
}

func (s *PinStore) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	var cids []string
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT cid FROM pins WHERE expire_time < ? ORDER BY expire_time`, &sqlitex.ExecOptions{
			Args: []any{now.Unix()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				cids = append(cids, stmt.ColumnText(0))
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return cids, nil
}

// Remove deletes the record. Removing an absent record is not an error.
func (s *PinStore) Remove(ctx context.Context, cid string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `DELETE FROM pins WHERE cid = ?`,
			&sqlitex.ExecOptions{Args: []any{cid}})
	})
}

func (s *PinStore) Get(ctx context.Context, cid string) (*models.PinRecord, error) {
	var record *models.PinRecord
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT cid, pin_time, expire_time, downloaded FROM pins WHERE cid = ?`,
			&sqlitex.ExecOptions{
				Args: []any{cid},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					record = recordFromRow(stmt)
					return nil
				},
			})
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *PinStore) ListAll(ctx context.Context) ([]*models.PinRecord, error) {
	var records []*models.PinRecord
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT cid, pin_time, expire_time, downloaded FROM pins ORDER BY pin_time`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					records = append(records, recordFromRow(stmt))
					return nil
				},
			})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PinStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `SELECT COUNT(*) FROM pins`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	return count, err
}

func (s *PinStore) Close() error {
	return s.pool.Close()
}

func recordFromRow(stmt *sqlite.Stmt) *models.PinRecord {
	return &models.PinRecord{
		Cid:        stmt.ColumnText(0),
		PinTime:    time.Unix(stmt.ColumnInt64(1), 0),
		ExpireTime: time.Unix(stmt.ColumnInt64(2), 0),
		Downloaded: stmt.ColumnInt(3) != 0,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
