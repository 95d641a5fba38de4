package models

// RemoteRecord is the canonical representation returned by the remote store
// after a successful create or update.
type RemoteRecord struct {
	// RemoteID is the server-assigned identifier.
	RemoteID string `json:"remote_id"`

	// Canonical carries the authoritative field values as stored remotely.
	Canonical map[string]any `json:"canonical"`
}
