// Package cache keeps per-file front-end results in a badger key-value
// store, keyed by a blake3 digest of everything the result depends on.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

// Cache is a persistent or in-memory byte cache.
type Cache struct {
	db *badger.DB
}

// zapLogger adapts zap to badger's logger interface.
type zapLogger struct {
	l *zap.SugaredLogger
}

func (z zapLogger) Errorf(format string, args ...any)   { z.l.Errorf(format, args...) }
func (z zapLogger) Warningf(format string, args ...any) { z.l.Warnf(format, args...) }
func (z zapLogger) Infof(format string, args ...any)    { z.l.Debugf(format, args...) }
func (z zapLogger) Debugf(format string, args ...any)   { z.l.Debugf(format, args...) }

// Open opens the cache stored in dir, creating it when needed. An empty dir
// gives an in-memory cache that vanishes on Close. logger may be nil.
func Open(dir string, logger *zap.Logger) (*Cache, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("cache: create %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	if logger != nil {
		opts = opts.WithLogger(zapLogger{l: logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the value stored under key.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return out, true, nil
}

// Put stores value under key, replacing any previous value.
func (c *Cache) Put(key string, value []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", key, err)
	}
	return nil
}

// Drop removes every entry.
func (c *Cache) Drop() error {
	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("cache: drop: %w", err)
	}
	return nil
}

// Close flushes and closes the store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Digest hashes parts into a hex key. Each part is length-prefixed so
// ("ab","c") and ("a","bc") differ.
func Digest(parts ...[]byte) string {
	h := blake3.New(32, nil)
	var n [8]byte
	for _, p := range parts {
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
