package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRecordIngested is emitted after an embedding record is stored.
	EventTypeRecordIngested = "driftlens.record.ingested"
)

// RecordIngestedEvent is a transport-neutral event payload for a stored
// embedding record. It carries the record's metadata, not its vector.
type RecordIngestedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	RecordID      string    `json:"record_id"`
	Label         string    `json:"label"`
	Source        string    `json:"source"`
	Dimension     int       `json:"dimension"`
	Indexed       bool      `json:"indexed"`
}

// NewRecordIngestedEvent builds the event for rec.
func NewRecordIngestedEvent(rec vector.Record, indexed bool) *RecordIngestedEvent {
	return &RecordIngestedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeRecordIngested,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		RecordID:      rec.ID,
		Label:         rec.Label,
		Source:        rec.Source,
		Dimension:     len(rec.Vector),
		Indexed:       indexed,
	}
}
