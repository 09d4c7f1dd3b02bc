package embeddings

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Params are the image standardization parameters sent with image requests.
type Params struct {
	JPEGCompressionRatio int  `json:"image_standardization_jpeg_compression_ratio"`
	ImageSize            int  `json:"image_standardization_image_size"`
	GetScalingFactor     bool `json:"get_scaling_factor"`
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		JPEGCompressionRatio: 75,
		ImageSize:            512,
		GetScalingFactor:     true,
	}
}

// InputData is the tabular payload of a request: one row of (image, text).
type InputData struct {
	Columns []string   `json:"columns"`
	Index   []int      `json:"index"`
	Data    [][]string `json:"data"`
}

// Request is a single-row inference request. It is built in memory for each
// item and never shared between concurrent calls.
type Request struct {
	InputData InputData `json:"input_data"`
	Params    *Params   `json:"params,omitempty"`
}

// NewRequest builds the request for item. Image items carry the
// base64-encoded image, the label and params; text items send an empty image
// and no params.
func NewRequest(item Item, params Params) (*Request, error) {
	req := &Request{
		InputData: InputData{
			Columns: []string{"image", "text"},
			Index:   []int{0},
		},
	}

	switch item.Modality() {
	case ModalityImage:
		req.InputData.Data = [][]string{{base64.StdEncoding.EncodeToString(item.Image), item.Label}}
		p := params
		req.Params = &p
	default:
		text := item.Text
		if text == "" {
			text = item.Label
		}
		if text == "" {
			return nil, fmt.Errorf("%w: item %q has neither image nor text", ErrInvalidItem, item.Source)
		}
		req.InputData.Data = [][]string{{"", text}}
	}

	return req, nil
}

// Marshal serializes the request body.
func (r *Request) Marshal() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return b, nil
}
