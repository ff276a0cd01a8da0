package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/golang/snappy"
	"github.com/rs/xid"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// DiskStore persists cache entries across process restarts: a SQLite
// table indexes keys to metadata, and a leveldb database holds the
// (snappy-compressed) response bodies, addressed by content digest so
// identical bodies stored under different keys share disk space.
//
// Grounded on the teacher's core.SQLiteCache (core/cache-provider.go)
// for the index half, and devforth-wait0's diskCache
// (internal/wait0/service.go) for the leveldb batch-write half.
type DiskStore struct {
	db  *sql.DB
	kv  *leveldb.DB
	mu  sync.Mutex
	dir string
}

func OpenDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "index.db"))
	if err != nil {
		return nil, err
	}
	for _, stmt := range []string{
		"CREATE TABLE IF NOT EXISTS entries (key TEXT PRIMARY KEY, meta BLOB NOT NULL)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	kv, err := leveldb.OpenFile(filepath.Join(dir, "blobs"), nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DiskStore{db: db, kv: kv, dir: dir}, nil
}

func blobKey(algorithm, digest string) string {
	return "blob:" + algorithm + ":" + digest
}

func (d *DiskStore) Match(ctx context.Context, key string) (*Entry, io.ReadCloser, error) {
	var metaJSON []byte
	err := d.db.QueryRowContext(ctx, "SELECT meta FROM entries WHERE key = ?", key).Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var entry Entry
	if err := json.Unmarshal(metaJSON, &entry); err != nil {
		return nil, nil, err
	}
	compressed, err := d.kv.Get([]byte(blobKey(entry.Algorithm, entry.Digest)), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	body, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, nil, err
	}
	return &entry, io.NopCloser(bytes.NewReader(body)), nil
}

// Put stores body under a content-addressed leveldb key and the entry
// metadata under key in the SQLite index. The blob write is staged
// under a unique xid-tagged key first, then promoted into place with a
// single leveldb batch, so a crash mid-write never leaves a partially
// written blob visible at its final address.
func (d *DiskStore) Put(ctx context.Context, key string, entry *Entry, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, raw)

	staging := "staging:" + xid.New().String()
	if err := d.kv.Put([]byte(staging), compressed, nil); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Put([]byte(blobKey(entry.Algorithm, entry.Digest)), compressed)
	batch.Delete([]byte(staging))
	if err := d.kv.Write(batch, nil); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err = d.db.ExecContext(ctx, "INSERT OR REPLACE INTO entries (key, meta) VALUES (?, ?)", key, metaJSON)
	return err
}

func (d *DiskStore) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.ExecContext(ctx, "DELETE FROM entries WHERE key = ?", key)
	return err
}

func (d *DiskStore) Keys(ctx context.Context, prefix string, cb func(string)) error {
	rows, err := d.db.QueryContext(ctx, "SELECT key FROM entries WHERE key LIKE ?", prefix+"%")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return err
		}
		cb(key)
	}
	return rows.Err()
}

// GCOrphanBlobs removes blobs no longer referenced by any index entry.
// Intended to be run periodically (see cmd/gofetch's cron-scheduled
// maintenance), not on the request hot path.
func (d *DiskStore) GCOrphanBlobs(ctx context.Context) error {
	referenced := make(map[string]bool)
	rows, err := d.db.QueryContext(ctx, "SELECT meta FROM entries")
	if err != nil {
		return err
	}
	for rows.Next() {
		var metaJSON []byte
		if err := rows.Scan(&metaJSON); err != nil {
			rows.Close()
			return err
		}
		var entry Entry
		if err := json.Unmarshal(metaJSON, &entry); err == nil {
			referenced[blobKey(entry.Algorithm, entry.Digest)] = true
		}
	}
	rows.Close()

	it := d.kv.NewIterator(util.BytesPrefix([]byte("blob:")), nil)
	defer it.Release()
	batch := new(leveldb.Batch)
	for it.Next() {
		k := string(it.Key())
		if !referenced[k] {
			batch.Delete(it.Key())
		}
	}
	if err := it.Error(); err != nil {
		return err
	}
	return d.kv.Write(batch, nil)
}

func (d *DiskStore) Close() error {
	kvErr := d.kv.Close()
	dbErr := d.db.Close()
	if kvErr != nil {
		return kvErr
	}
	return dbErr
}
