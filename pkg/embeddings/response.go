package embeddings

import (
	"encoding/json"
	"fmt"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

// ParseResponse extracts the feature vector for m from a response body. The
// body must be a JSON array whose first element is an object carrying
// image_features or text_features; singleton wrapping dimensions around the
// vector are removed.
func ParseResponse(body []byte, m Modality) (vector.Vector, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array: %v", ErrMalformedResponse, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty response array", ErrMalformedResponse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rows[0], &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: element 0 is not an object", ErrMalformedResponse)
	}

	key := m.featureKey()
	raw, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: element 0 has no %q", ErrMalformedResponse, key)
	}

	v, err := vector.Squeeze(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedResponse, key, err)
	}

	return v, nil
}
