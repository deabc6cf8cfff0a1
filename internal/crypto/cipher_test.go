package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"ourspace/internal/crypto"
	"ourspace/internal/domain"
)

func testKey(t *testing.T, pass string) domain.SymmetricKey {
	t.Helper()
	return crypto.DeriveKey([]byte(pass), []byte(crypto.LegacySalt))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(t, "river-42")

	for _, pt := range [][]byte{[]byte("hello"), {}, bytes.Repeat([]byte{0xAB}, 1<<16)} {
		env, err := crypto.Encrypt(&key, pt)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := crypto.Decrypt(&key, env)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(got, pt) {
			t.Fatalf("round trip mismatch for %d bytes", len(pt))
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	k1 := testKey(t, "river-42")
	k2 := testKey(t, "river-43")

	env, err := crypto.Encrypt(&k1, []byte("hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := crypto.Decrypt(&k2, env); !errors.Is(err, crypto.ErrAuthentication) {
		t.Fatalf("got %v, want ErrAuthentication", err)
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	key := testKey(t, "river-42")

	sealed, err := crypto.Seal(&key, []byte("hello"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed[len(sealed)-1] ^= 0x01
	if _, err := crypto.Open(&key, sealed); !errors.Is(err, crypto.ErrAuthentication) {
		t.Fatalf("got %v, want ErrAuthentication", err)
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	key := testKey(t, "river-42")

	cases := map[string]string{
		"not base64": "%%%not-base64%%%",
		"too short":  crypto.B64(make([]byte, crypto.NonceBytes+crypto.TagBytes-1)),
		"empty":      "",
	}
	for name, env := range cases {
		if _, err := crypto.Decrypt(&key, env); !errors.Is(err, crypto.ErrMalformedEnvelope) {
			t.Fatalf("%s: got %v, want ErrMalformedEnvelope", name, err)
		}
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key := testKey(t, "river-42")
	seen := make(map[string]bool)

	for i := 0; i < 64; i++ {
		sealed, err := crypto.Seal(&key, []byte("same"))
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		nonce := string(sealed[:crypto.NonceBytes])
		if seen[nonce] {
			t.Fatalf("nonce repeated after %d encryptions", i)
		}
		seen[nonce] = true
	}
}

func TestScenario_HelloEnvelopeLength(t *testing.T) {
	key := testKey(t, "river-42")

	env, err := crypto.Encrypt(&key, []byte("hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw, err := crypto.UnB64(env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != 33 {
		t.Fatalf("got %d bytes, want 33", len(raw))
	}
}
