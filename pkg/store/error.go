package store

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

// ErrInvalidRecord is returned when a record cannot be stored.
var ErrInvalidRecord = errors.New("invalid record")

// Validate checks that rec can be upserted.
func Validate(rec vector.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if len(rec.Vector) == 0 {
		return fmt.Errorf("%w: record %s has an empty vector", ErrInvalidRecord, rec.ID)
	}
	return nil
}
