package message_test

import (
	"math/rand"
	"testing"
	"time"

	"ourspace/internal/domain"
	"ourspace/internal/services/message"
)

func TestOrder_IndependentOfArrival(t *testing.T) {
	base := []domain.DecryptedMessage{
		{Message: domain.Message{ID: "a"}, DisplayTime: t0},
		{Message: domain.Message{ID: "b"}, DisplayTime: t0},
		{Message: domain.Message{ID: "c"}, DisplayTime: t0.Add(time.Second)},
		{Message: domain.Message{ID: "d"}, DisplayTime: t0.Add(2 * time.Second)},
		{Message: domain.Message{ID: "e"}, DisplayTime: t0.Add(-time.Minute)},
	}
	want := []string{"e", "a", "b", "c", "d"}

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		msgs := append([]domain.DecryptedMessage(nil), base...)
		r.Shuffle(len(msgs), func(i, j int) { msgs[i], msgs[j] = msgs[j], msgs[i] })

		message.Order(msgs)
		for k, m := range msgs {
			if m.ID != want[k] {
				t.Fatalf("position %d: got %q, want %q", k, m.ID, want[k])
			}
		}
	}
}
