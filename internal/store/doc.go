// Package store provides the document backend used by the relay server and
// by tests.
//
// Memory is an in-process implementation of domain.DocumentStore: keyed
// collections, backend-generated document keys, server timestamps and live
// snapshot subscriptions. It can be backed by a Persister so contents
// survive restarts; Pebble is the durable one shipped here.
//
// The package also holds the atomic file helpers used for local
// configuration files.
package store
