// Package embeddings acquires embedding vectors for images and text from a
// remote inference endpoint, with bounded retry and position-preserving
// partial failure.
package embeddings

import "context"

// Modality selects which feature vector the endpoint is asked for.
type Modality int

const (
	ModalityImage Modality = iota
	ModalityText
)

func (m Modality) String() string {
	switch m {
	case ModalityImage:
		return "image"
	case ModalityText:
		return "text"
	default:
		return "unknown"
	}
}

// featureKey is the response member carrying the vector for this modality.
func (m Modality) featureKey() string {
	if m == ModalityText {
		return "text_features"
	}
	return "image_features"
}

// Item is a single input to embed.
type Item struct {
	// Image is the raw encoded image. An empty Image makes this a text item.
	Image []byte

	// Label is the semantic category sent alongside an image.
	Label string

	// Text is the query text for a text item. Label is used when Text is empty.
	Text string

	// Source references where the item came from, e.g. a file path.
	Source string
}

// Modality reports whether the item is an image or a text input.
func (i Item) Modality() Modality {
	if len(i.Image) > 0 {
		return ModalityImage
	}
	return ModalityText
}

// Invoker is the transport to a remote inference endpoint. It receives a
// serialized request and returns the raw response body.
type Invoker interface {
	// Invoke sends body and returns the response. Transport failures and
	// non-success responses are returned as errors wrapping ErrInvoke.
	Invoke(ctx context.Context, body []byte) ([]byte, error)

	// Close releases any resources held by the invoker.
	Close() error
}
