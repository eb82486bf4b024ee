// Package cache stores finished renders in a badger key-value store so that a
// scene rendered again with the same fixed seed can be served without tracing.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
	"golang.org/x/xerrors"
)

const renderKeyPrefix = "render/"

// Cache is a persistent map from render keys to encoded images
type Cache struct {
	DB *badger.DB
}

// Open opens (creating if needed) the cache database in dir
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(glogLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir: %w", err)
	}
	return &Cache{DB: db}, nil
}

// Close releases the database
func (c *Cache) Close() error {
	if err := c.DB.Close(); err != nil {
		return xerrors.Errorf("while closing database: %w", err)
	}
	return nil
}

// Key identifies a render by its encoded scene and seed. Renders with seed 0
// are time-seeded and should not be cached.
func Key(sceneJSON []byte, seed int64) string {
	h := sha256.New()
	h.Write(sceneJSON)
	var seedBytes [8]byte
	binary.BigEndian.PutUint64(seedBytes[:], uint64(seed))
	h.Write(seedBytes[:])
	return hex.EncodeToString(h.Sum(nil))
}

func dbKey(key string) []byte {
	return []byte(renderKeyPrefix + key)
}

// Get returns the stored image for key. ok is false on a miss.
func (c *Cache) Get(key string) (data []byte, ok bool, err error) {
	err = c.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if xerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, xerrors.Errorf("while reading render %s: %w", key, err)
	}
	return data, true, nil
}

// Put stores data under key, replacing any previous value
func (c *Cache) Put(key string, data []byte) error {
CommitRetry:
	err := c.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(dbKey(key), data)
	})
	if xerrors.Is(err, badger.ErrConflict) {
		goto CommitRetry
	} else if err != nil {
		return xerrors.Errorf("while writing render %s: %w", key, err)
	}
	return nil
}

// glogLogger routes badger's internal logging to glog
type glogLogger struct{}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, fmt.Sprintf(format, args...))
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(1, fmt.Sprintf(format, args...))
}

func (glogLogger) Infof(format string, args ...interface{}) {
	if glog.V(1) {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	if glog.V(2) {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}
