// Package domain defines the data models and contracts shared across the app:
// backend documents, room messages, presence leases and the session.
// It contains plain types and interfaces only.
package domain
