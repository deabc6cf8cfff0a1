package interfaces

import (
	"context"

	domaintypes "ourspace/internal/domain/types"
)

// DocumentStore is the real-time document backend: keyed collections with
// create/upsert/delete, server-assigned timestamps and live snapshots.
type DocumentStore interface {
	// Add creates a document under a backend-generated key and returns it.
	Add(ctx context.Context, collection string, w domaintypes.Write) (string, error)
	// Create stores w under a caller-chosen key. It fails with
	// ErrDocumentExists when the key is taken, which makes a retried create
	// idempotent.
	Create(ctx context.Context, collection, id string, w domaintypes.Write) error
	// Set creates or replaces the document with the given key.
	Set(ctx context.Context, collection, id string, w domaintypes.Write) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Subscribe streams the full contents of collection on every change,
	// starting with the current contents. The returned func stops the stream;
	// once it returns no new call to h begins. A call already running may
	// still finish.
	Subscribe(
		ctx context.Context,
		collection string,
		h domaintypes.SnapshotHandler,
	) (unsubscribe func(), err error)
}
