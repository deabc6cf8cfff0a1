package crypto_test

import (
	"testing"

	"ourspace/internal/crypto"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte(crypto.LegacySalt)
	a := crypto.DeriveKey([]byte("river-42"), salt)
	b := crypto.DeriveKey([]byte("river-42"), salt)
	if a != b {
		t.Fatal("same passphrase gave different keys")
	}
	if c := crypto.DeriveKey([]byte("river-42"), []byte("other-salt")); c == a {
		t.Fatal("salt had no effect")
	}
	if d := crypto.DeriveKey([]byte("river-43"), salt); d == a {
		t.Fatal("different passphrases gave the same key")
	}
}

func TestKDF_MemoizesAndForgets(t *testing.T) {
	kdf := crypto.NewKDF("")
	want := crypto.DeriveKey([]byte("river-42"), []byte(crypto.LegacySalt))

	if got := kdf.Derive([]byte("river-42")); got != want {
		t.Fatal("KDF with empty salt should use the legacy salt")
	}
	if got := kdf.Derive([]byte("river-42")); got != want {
		t.Fatal("memoized key differs")
	}

	kdf.Forget()
	if got := kdf.Derive([]byte("river-42")); got != want {
		t.Fatal("key differs after Forget")
	}
}

func TestKDF_CacheHoldsNoCallerMemory(t *testing.T) {
	kdf := crypto.NewKDF("")
	want := crypto.DeriveKey([]byte("river-42"), []byte(crypto.LegacySalt))

	pass := []byte("river-42")
	got := kdf.Derive(pass)
	clear(pass)
	got[0] ^= 0xff

	if again := kdf.Derive([]byte("river-42")); again != want {
		t.Fatal("cached key changed after the caller wiped its copies")
	}
	if zeroed := kdf.Derive(pass); zeroed == want {
		t.Fatal("wiped passphrase still maps to the old key")
	}
}
