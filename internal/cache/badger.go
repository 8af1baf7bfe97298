package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// Every stored value carries a one byte tag so list and single-value keys can
// share the keyspace the way Redis types do.
const (
	tagValue byte = 'v'
	tagList  byte = 'l'
)

const (
	maxConflictRetries = 10
	conflictBackoff    = 2 * time.Millisecond
)

// Badger is the embedded cache backend. An empty path keeps everything in memory.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger cache at path.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if len(raw) == 0 || raw[0] != tagValue {
			return ErrWrongType
		}
		out = raw[1:]
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	raw := make([]byte, 0, len(value)+1)
	raw = append(raw, tagValue)
	raw = append(raw, value...)
	return b.update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), raw)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *Badger) Del(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return b.update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) ListRange(_ context.Context, key string) ([][]byte, error) {
	var out [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		items, _, err := readList(txn, key)
		out = items
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = [][]byte{}
	}
	return out, nil
}

func (b *Badger) ListAppend(_ context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	return b.update(func(txn *badger.Txn) error {
		items, expiresAt, err := readList(txn, key)
		if err != nil {
			return err
		}
		items = append(items, values...)
		raw, err := encodeList(items)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key), raw)
		e.ExpiresAt = expiresAt
		return txn.SetEntry(e)
	})
}

// ListReplace is a blind write; concurrent replacements of key do not conflict.
func (b *Badger) ListReplace(_ context.Context, key string, ttl time.Duration, values ...[]byte) error {
	if len(values) == 0 {
		return b.update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
	}
	raw, err := encodeList(values)
	if err != nil {
		return err
	}
	return b.update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), raw)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *Badger) Expire(_ context.Context, key string, ttl time.Duration) error {
	return b.update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key), raw)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *Badger) TTL(_ context.Context, key string) (time.Duration, error) {
	var ttl time.Duration
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if exp := item.ExpiresAt(); exp > 0 {
			ttl = time.Until(time.Unix(int64(exp), 0))
			if ttl < 0 {
				ttl = 0
			}
		}
		return nil
	})
	return ttl, err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// update runs fn in a read-write transaction, retrying write conflicts after a
// jittered, doubling pause.
func (b *Badger) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if i == maxConflictRetries-1 {
			break
		}
		pause := conflictBackoff << i
		time.Sleep(pause/2 + time.Duration(rand.Int63n(int64(pause))))
	}
	return err
}

func readList(txn *badger.Txn, key string) ([][]byte, uint64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, 0, err
	}
	if len(raw) == 0 || raw[0] != tagList {
		return nil, 0, ErrWrongType
	}
	var items [][]byte
	if err := json.Unmarshal(raw[1:], &items); err != nil {
		return nil, 0, fmt.Errorf("decode cached list %s: %w", key, err)
	}
	return items, item.ExpiresAt(), nil
}

func encodeList(items [][]byte) ([]byte, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return append([]byte{tagList}, body...), nil
}
