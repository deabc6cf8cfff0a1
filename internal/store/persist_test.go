package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ourspace/internal/domain"
	"ourspace/internal/store"
)

func TestPebble_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	p, err := store.OpenPebble(dir)
	require.NoError(t, err)
	m, err := store.NewMemory(store.WithPersister(p))
	require.NoError(t, err)

	id, err := m.Add(ctx, "ns/rooms/abc", domain.Write{
		Fields:       map[string]string{"sender": "alice"},
		ServerStamps: []string{"createdAt"},
	})
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, "ns/rooms/abc_presence", "bob", domain.Write{}))
	require.NoError(t, m.Delete(ctx, "ns/rooms/abc_presence", "bob"))
	require.NoError(t, m.Close())

	p, err = store.OpenPebble(dir)
	require.NoError(t, err)
	m, err = store.NewMemory(store.WithPersister(p))
	require.NoError(t, err)
	defer m.Close()

	docs, err := m.List(ctx, "ns/rooms/abc")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, id, docs[0].ID)
	require.Equal(t, "alice", docs[0].Field("sender"))
	_, ok := docs[0].Stamp("createdAt")
	require.True(t, ok)

	presence, err := m.List(ctx, "ns/rooms/abc_presence")
	require.NoError(t, err)
	require.Empty(t, presence)
}
