package testutils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
)

// MockInvoker is a test inference transport that answers in the endpoint's
// response format with predictable vectors.
type MockInvoker struct {
	mu sync.Mutex

	// Vectors maps an input key to the vector returned for it. The key is the
	// decoded image bytes for image requests and the text for text requests.
	Vectors map[string][]float64

	// Default is returned for keys missing from Vectors.
	Default []float64

	// FailFirst makes the first N calls fail.
	FailFirst int

	// FailOn makes every call for this key fail.
	FailOn string

	// Malformed makes every successful call return a body without features.
	Malformed bool

	// Calls counts Invoke calls.
	Calls int

	// Bodies records every request body received.
	Bodies [][]byte

	Closed bool
}

func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		Vectors: make(map[string][]float64),
		Default: []float64{0.1, 0.2, 0.3},
	}
}

func (m *MockInvoker) Invoke(ctx context.Context, body []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.Bodies = append(m.Bodies, body)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrInvoke, err)
	}

	if m.Calls <= m.FailFirst {
		return nil, fmt.Errorf("%w: mock failure %d", embeddings.ErrInvoke, m.Calls)
	}

	var req embeddings.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: mock could not decode request: %v", embeddings.ErrInvoke, err)
	}
	if len(req.InputData.Data) != 1 || len(req.InputData.Data[0]) != 2 {
		return nil, fmt.Errorf("%w: mock expects exactly one (image, text) row", embeddings.ErrInvoke)
	}

	row := req.InputData.Data[0]
	key := row[1]
	feature := "text_features"
	if row[0] != "" {
		img, err := base64.StdEncoding.DecodeString(row[0])
		if err != nil {
			return nil, fmt.Errorf("%w: mock could not decode image: %v", embeddings.ErrInvoke, err)
		}
		key = string(img)
		feature = "image_features"
	}

	if m.FailOn != "" && key == m.FailOn {
		return nil, fmt.Errorf("%w: mock failure for %s", embeddings.ErrInvoke, key)
	}

	if m.Malformed {
		return []byte(`[{"unexpected": []}]`), nil
	}

	v, ok := m.Vectors[key]
	if !ok {
		v = m.Default
	}

	return json.Marshal([]map[string][][]float64{{feature: {v}}})
}

func (m *MockInvoker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// CallCount returns the number of Invoke calls so far.
func (m *MockInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
