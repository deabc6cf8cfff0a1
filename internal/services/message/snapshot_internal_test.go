package message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
)

func TestSubscription_WipeZeroesSecrets(t *testing.T) {
	key := crypto.DeriveKey([]byte("river-42"), []byte(crypto.LegacySalt))
	sub := &subscription{
		key:       key,
		now:       time.Now,
		limit:     2,
		live:      true,
		memo:      make(map[string]opened),
		firstSeen: make(map[string]time.Time),
	}

	env, err := crypto.Encrypt(&key, []byte("hello"))
	require.NoError(t, err)
	docs := []domain.Document{{ID: "m1", Fields: map[string]string{
		domain.FieldEncryptedContent: env,
		domain.FieldSender:           "alice",
		domain.FieldType:             "text",
	}}}

	out, err := sub.process(context.Background(), docs)
	require.NoError(t, err)
	require.Equal(t, "hello", string(out[0].Plaintext))
	cached := sub.memo["m1"].plaintext
	require.Equal(t, "hello", string(cached))

	sub.kill()
	sub.wipe()

	require.Equal(t, domain.SymmetricKey{}, sub.key)
	require.Empty(t, sub.memo)
	require.Empty(t, sub.firstSeen)
	require.Equal(t, make([]byte, len(cached)), cached)
	require.Equal(t, "hello", string(out[0].Plaintext))

	_, err = sub.process(context.Background(), docs)
	require.ErrorIs(t, err, errDead)
}
