package relay

import "ourspace/internal/domain"

// maxBody caps request bodies. A compressed 800px JPEG as a base64 data URL
// inside an envelope stays well below it.
const maxBody = 8 << 20

type tokenResponse struct {
	Token string `json:"token"`
}

type idResponse struct {
	ID string `json:"id"`
}

// frame is one websocket message on a watch stream: a full snapshot or a
// terminal error.
type frame struct {
	Docs  []domain.Document `json:"docs,omitempty"`
	Error string            `json:"error,omitempty"`
}
