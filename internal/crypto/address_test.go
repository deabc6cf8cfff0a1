package crypto_test

import (
	"regexp"
	"testing"

	"ourspace/internal/crypto"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestAddressOf_Deterministic(t *testing.T) {
	a := crypto.AddressOf("room-8f92a1")
	if !hex64.MatchString(a.String()) {
		t.Fatalf("got %q, want 64 lowercase hex chars", a)
	}
	if b := crypto.AddressOf("room-8f92a1"); a != b {
		t.Fatalf("got %q, want %q", b, a)
	}
	if c := crypto.AddressOf("room-8f92a2"); c == a {
		t.Fatal("distinct labels share an address")
	}
}

func TestAddressOf_KnownVector(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := crypto.AddressOf("abc").String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCollections(t *testing.T) {
	addr := crypto.AddressOf("room-8f92a1")
	msgs := crypto.MessagesCollection("ourspace-v1", addr)
	if msgs != "ourspace-v1/rooms/"+addr.String() {
		t.Fatalf("got %q", msgs)
	}
	if got := crypto.PresenceCollection("ourspace-v1", addr); got != msgs+"_presence" {
		t.Fatalf("got %q", got)
	}
}
