package types

import (
	"errors"
	"time"
)

// ErrDocumentExists is returned when a create names a key already in use.
var ErrDocumentExists = errors.New("document already exists")

// Document is one keyed entry of a backend collection.
//
// Stamps holds the fields whose values were assigned by the backend's clock
// at write time. A field named in Write.ServerStamps is absent from Stamps
// until the backend has acknowledged the write.
type Document struct {
	ID     string               `json:"id"`
	Fields map[string]string    `json:"fields"`
	Stamps map[string]time.Time `json:"stamps,omitempty"`
}

// Field returns the named string field, or "" if absent.
func (d Document) Field(name string) string { return d.Fields[name] }

// Stamp returns the named server timestamp and whether it has been assigned.
func (d Document) Stamp(name string) (time.Time, bool) {
	t, ok := d.Stamps[name]
	return t, ok
}

// Write is the payload of a create or upsert.
type Write struct {
	Fields map[string]string `json:"fields"`
	// ServerStamps names fields the backend fills with its own write time.
	ServerStamps []string `json:"server_stamps,omitempty"`
}

// SnapshotHandler receives the full contents of a collection on every change.
// A non-nil err ends the subscription; docs is nil in that case.
type SnapshotHandler func(docs []Document, err error)
