package vector

import (
	"encoding/json"
	"fmt"
)

// Squeeze reduces a nested numeric JSON array to a flat vector by stripping
// singleton wrapping dimensions, so [[[1,2,3]]], [[1,2,3]] and [1,2,3] all
// yield [1,2,3]. A wrapping dimension larger than one is rejected rather than
// silently truncated.
func Squeeze(raw json.RawMessage) (Vector, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrMalformedVector)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVector, err)
	}

	return squeeze(v, 0)
}

func squeeze(v any, depth int) (Vector, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array at depth %d, got %T", ErrMalformedVector, depth, v)
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("%w: empty array at depth %d", ErrMalformedVector, depth)
	}

	if _, nested := arr[0].([]any); nested {
		if len(arr) != 1 {
			return nil, fmt.Errorf("%w: dimension %d has size %d, only singleton dimensions can be squeezed",
				ErrMalformedVector, depth, len(arr))
		}
		return squeeze(arr[0], depth+1)
	}

	out := make(Vector, len(arr))
	for i, x := range arr {
		f, ok := x.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: element %d at depth %d is %T, expected number", ErrMalformedVector, i, depth, x)
		}
		out[i] = f
	}

	return out, nil
}
