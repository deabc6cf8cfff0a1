package types

import "time"

// Field names of a presence document.
const (
	FieldName     = "name"
	FieldLastSeen = "lastSeen"
	FieldStatus   = "status"
)

// StatusOnline is the only status a participant ever publishes.
const StatusOnline = "online"

// PresenceRecord is one participant's liveness lease in a room.
type PresenceRecord struct {
	Name     Username   `json:"name"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
	Status   string     `json:"status"`
}

// PresenceFromDocument maps a backend document onto a PresenceRecord.
func PresenceFromDocument(d Document) PresenceRecord {
	r := PresenceRecord{
		Name:   Username(d.Field(FieldName)),
		Status: d.Field(FieldStatus),
	}
	if r.Name == "" {
		r.Name = Username(d.ID)
	}
	if t, ok := d.Stamp(FieldLastSeen); ok {
		r.LastSeen = &t
	}
	return r
}
