package eventstream

import "context"

// Publisher publishes ingestion events to an event stream backend.
type Publisher interface {
	PublishIngested(ctx context.Context, event *RecordIngestedEvent) error
	Close() error
}
