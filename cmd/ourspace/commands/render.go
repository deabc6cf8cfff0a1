package commands

import (
	"fmt"
	"io"

	"ourspace/internal/domain"
	"ourspace/internal/imaging"
)

const lockedPlaceholder = "🔒 Encrypted Data"

// printer writes each message once, in display order.
type printer struct {
	out  io.Writer
	self domain.Username
	seen map[string]bool
}

func newPrinter(out io.Writer, self domain.Username) *printer {
	return &printer{out: out, self: self, seen: make(map[string]bool)}
}

func (p *printer) print(msgs []domain.DecryptedMessage) {
	for _, m := range msgs {
		if p.seen[m.ID] {
			continue
		}
		p.seen[m.ID] = true
		fmt.Fprintf(p.out, "%s %s: %s\n", m.DisplayTime.Local().Format("15:04:05"), p.who(m.Sender), body(m))
	}
}

func (p *printer) who(u domain.Username) string {
	if u == p.self {
		return u.String() + " (you)"
	}
	return u.String()
}

func body(m domain.DecryptedMessage) string {
	if !m.Decrypted() {
		return lockedPlaceholder
	}
	switch m.Kind {
	case domain.KindImage:
		jpg, mediaType, err := imaging.ParseDataURL(string(m.Plaintext))
		if err != nil {
			return "[image: unreadable]"
		}
		return fmt.Sprintf("[image: %s, %d bytes]", mediaType, len(jpg))
	default:
		return string(m.Plaintext)
	}
}
