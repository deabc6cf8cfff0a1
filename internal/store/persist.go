package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble/v2"

	"ourspace/internal/domain"
)

// keySep joins collection and document key in persisted keys. It may not
// appear in either.
const keySep = '\x00'

// Persister durably records the contents of a Memory store.
type Persister interface {
	// Load calls fn once per stored document.
	Load(fn func(collection string, d domain.Document)) error
	Put(collection string, d domain.Document) error
	Remove(collection, id string) error
	Close() error
}

var _ Persister = (*Pebble)(nil)

// Pebble persists documents in a Pebble key-value store. Keys are
// collection NUL id; values are the JSON document.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens or creates a database in dir.
func OpenPebble(dir string) (*Pebble, error) {
	if dir == "" {
		return nil, errors.New("pebble: empty data path")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble db: %w", err)
	}
	return &Pebble{db: db}, nil
}

func docKey(collection, id string) []byte {
	return []byte(collection + string(keySep) + id)
}

// Load walks the whole keyspace. Entries that fail to decode are skipped.
func (p *Pebble) Load(fn func(collection string, d domain.Document)) error {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer func() { _ = it.Close() }()

	for it.First(); it.Valid(); it.Next() {
		collection, id, ok := strings.Cut(string(it.Key()), string(keySep))
		if !ok {
			continue
		}
		var d domain.Document
		if err := json.Unmarshal(it.Value(), &d); err != nil {
			continue
		}
		d.ID = id
		fn(collection, d)
	}
	return it.Error()
}

func (p *Pebble) Put(collection string, d domain.Document) error {
	val, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return p.db.Set(docKey(collection, d.ID), val, pebble.Sync)
}

func (p *Pebble) Remove(collection, id string) error {
	return p.db.Delete(docKey(collection, id), pebble.Sync)
}

func (p *Pebble) Close() error { return p.db.Close() }
