// Package models defines persisted notification records and the lifecycle
// event kinds that drive fan-out.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Type is the lifecycle event kind a notification reports. String values are
// stored and must round-trip exactly.
type Type string

const (
	TypeUploaded    Type = "document_uploaded"
	TypeUpdated     Type = "document_updated"
	TypeAssigned    Type = "document_assigned"
	TypeForwarded   Type = "document_forwarded"
	TypeApproved    Type = "document_approved"
	TypeRejected    Type = "document_rejected"
	TypeFileUpdated Type = "file_updated"
)

// Notification is one persisted fan-out record. Append-only: nothing after
// creation ever changes except the Read flag.
type Notification struct {
	ID         uuid.UUID         `json:"id"`
	Recipient  uuid.UUID         `json:"recipient"`
	Type       Type              `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	DocumentID uuid.UUID         `json:"documentId"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"createdAt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
