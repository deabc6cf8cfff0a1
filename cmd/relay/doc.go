// Package main runs the document relay that ourspace clients use as their
// backend. It keeps room collections in memory, optionally persisted to
// Pebble, and pushes live snapshots to watchers over websockets.
//
// HTTP API
//
//	POST /v1/auth/anonymous
//	    Mint an opaque bearer token. It authorises backend access only.
//
//	GET /v1/collections/{collection}/docs
//	    Return every document of the collection.
//
//	POST /v1/collections/{collection}/docs[?id=key]
//	    Create a document. Fields named in server_stamps get the relay's
//	    clock. The key is generated unless the client proposes one.
//
//	PUT /v1/collections/{collection}/docs/{id}
//	    Create or replace a document.
//
//	DELETE /v1/collections/{collection}/docs/{id}
//	    Remove a document. Removing a missing one succeeds.
//
//	GET /v1/collections/{collection}/watch
//	    Websocket. Sends the full collection now and after every change.
//
// Behaviour
//
//   - Without --data-path all state is lost on exit.
//   - An access log records method, path, status, bytes and duration for
//     each request.
//   - The default listen address is :8080.
//
// The relay never sees plaintext or keys. It stores base64 envelopes under
// hashed room addresses, plus participant names and timestamps.
package main
