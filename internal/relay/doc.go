// Package relay is the network backend for rooms.
//
// Server exposes a document store over HTTP with chi and streams live
// snapshots over gorilla websockets. Client is the matching implementation
// of domain.DocumentStore and domain.IdentityProvider.
//
// Routes
//
//	POST   /v1/auth/anonymous                    -> {"token": "..."}
//	GET    /v1/collections/{collection}/docs      -> []Document
//	POST   /v1/collections/{collection}/docs      Write -> {"id": "..."} (?id= proposes a key)
//	PUT    /v1/collections/{collection}/docs/{id} Write
//	DELETE /v1/collections/{collection}/docs/{id}
//	GET    /v1/collections/{collection}/watch     websocket of {"docs": [...]} or {"error": "..."}
//	GET    /healthz
//
// The collection segment is path-escaped since collection names contain
// slashes. Document routes need "Authorization: Bearer <token>"; the watch
// route also accepts ?token=. Non-2xx replies come back as errors carrying
// the method, path and status.
package relay
