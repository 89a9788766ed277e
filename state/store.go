package state

import (
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
)

// KVStore is the view of state handed to callees and to the state machine itself.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

type kvReader interface {
	Get(key []byte) ([]byte, error)
}

type kvWriter interface {
	Set(key, value []byte) (bool, error)
}

type journalEntry struct {
	key     string
	prev    []byte
	present bool
}

// cacheStore buffers the writes of one block over the tree. Every write is
// journaled so that a failing operation can be unwound to a snapshot.
type cacheStore struct {
	parent  kvReader
	dirty   map[string][]byte
	journal []journalEntry
}

func newCacheStore(parent kvReader) *cacheStore {
	return &cacheStore{
		parent: parent,
		dirty:  make(map[string][]byte),
	}
}

func (c *cacheStore) Get(key []byte) ([]byte, error) {
	if v, ok := c.dirty[string(key)]; ok {
		return v, nil
	}
	val, err := c.parent.Get(key)
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (c *cacheStore) Set(key, value []byte) error {
	k := string(key)
	prev, ok := c.dirty[k]
	c.journal = append(c.journal, journalEntry{key: k, prev: prev, present: ok})
	if value == nil {
		value = []byte{}
	}
	c.dirty[k] = append([]byte{}, value...)
	return nil
}

func (c *cacheStore) Snapshot() int {
	return len(c.journal)
}

func (c *cacheStore) RevertToSnapshot(snap int) {
	for i := len(c.journal) - 1; i >= snap; i-- {
		e := c.journal[i]
		if e.present {
			c.dirty[e.key] = e.prev
		} else {
			delete(c.dirty, e.key)
		}
	}
	c.journal = c.journal[:snap]
}

// Flush writes the buffered values into w in key order and clears the cache.
func (c *cacheStore) Flush(w kvWriter) error {
	keys := make([]string, 0, len(c.dirty))
	for k := range c.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := w.Set([]byte(k), c.dirty[k]); err != nil {
			return err
		}
	}
	c.dirty = make(map[string][]byte)
	c.journal = nil
	return nil
}

// prefixStore namespaces a KVStore.
type prefixStore struct {
	parent KVStore
	prefix []byte
}

func NewPrefixStore(parent KVStore, prefix []byte) KVStore {
	return &prefixStore{parent: parent, prefix: append([]byte{}, prefix...)}
}

func (p *prefixStore) key(key []byte) []byte {
	k := make([]byte, 0, len(p.prefix)+len(key))
	k = append(k, p.prefix...)
	return append(k, key...)
}

func (p *prefixStore) Get(key []byte) ([]byte, error) {
	return p.parent.Get(p.key(key))
}

func (p *prefixStore) Set(key, value []byte) error {
	return p.parent.Set(p.key(key), value)
}
