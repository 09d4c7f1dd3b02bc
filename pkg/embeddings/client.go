package embeddings

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/retry"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// DefaultRequestTimeout bounds a single attempt.
const DefaultRequestTimeout = 60 * time.Second

// ClientConfig holds configuration for the embedding client.
type ClientConfig struct {
	// Invoker is the transport to the inference endpoint. Required.
	Invoker Invoker

	// Params are sent with image requests. Defaults to DefaultParams if nil.
	Params *Params

	// MaxAttempts is the total attempt budget per item.
	// Defaults to retry.DefaultMaxAttempts if zero.
	MaxAttempts int

	// Policy decides delays between attempts.
	// Defaults to exponential backoff if nil.
	Policy retry.Policy

	// RequestTimeout bounds each attempt. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration

	Logger *zap.Logger
}

// Client embeds items through an Invoker. It is safe for concurrent use.
type Client struct {
	invoker     Invoker
	params      Params
	maxAttempts int
	policy      retry.Policy
	timeout     time.Duration
	logger      *zap.Logger
}

// NewClient creates a new embedding client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Invoker == nil {
		return nil, ErrNoInvoker
	}

	params := DefaultParams()
	if cfg.Params != nil {
		params = *cfg.Params
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = retry.DefaultMaxAttempts
	}

	policy := cfg.Policy
	if policy == nil {
		policy = retry.NewBackoff(retry.DefaultBackoffConfig())
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		invoker:     cfg.Invoker,
		params:      params,
		maxAttempts: maxAttempts,
		policy:      policy,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

// Embed returns the embedding for item. After MaxAttempts failed attempts it
// returns an *AttemptsExhaustedError wrapping the last cause. A done context
// stops retrying and its error is returned as is.
func (c *Client) Embed(ctx context.Context, item Item) (vector.Vector, error) {
	v, _, err := c.embed(ctx, item)
	return v, err
}

func (c *Client) embed(ctx context.Context, item Item) (vector.Vector, int, error) {
	req, err := NewRequest(item, c.params)
	if err != nil {
		return nil, 0, err
	}
	body, err := req.Marshal()
	if err != nil {
		return nil, 0, err
	}

	modality := item.Modality()

	var v vector.Vector
	attempts, err := retry.Do(ctx, c.policy, c.maxAttempts, func(ctx context.Context, attempt int) error {
		actx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.invoker.Invoke(actx, body)
		if err == nil {
			v, err = ParseResponse(resp, modality)
		}
		if err != nil {
			c.logger.Warn("embedding attempt failed",
				zap.String("source", item.Source),
				zap.String("modality", modality.String()),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.Error(err),
			)
			return err
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, attempts, err
		}
		return nil, attempts, &AttemptsExhaustedError{Attempts: attempts, Err: err}
	}

	c.logger.Debug("embedded item",
		zap.String("source", item.Source),
		zap.Int("attempts", attempts),
		zap.Int("dimension", len(v)),
	)

	return v, attempts, nil
}

// Outcome is the result of embedding one item of a batch.
type Outcome struct {
	// Index is the position of the item in the input batch.
	Index    int
	Item     Item
	Vector   vector.Vector
	Attempts int
	Err      error
}

// Missing reports whether the item failed to produce a vector.
func (o Outcome) Missing() bool {
	return o.Err != nil || len(o.Vector) == 0
}

// EmbedAll embeds items sequentially and returns one Outcome per input, in
// input order. Failed items are marked missing instead of aborting the batch.
func (c *Client) EmbedAll(ctx context.Context, items []Item) []Outcome {
	out := make([]Outcome, len(items))
	for i, item := range items {
		out[i] = Outcome{Index: i, Item: item}

		if err := ctx.Err(); err != nil {
			out[i].Err = err
			continue
		}

		v, attempts, err := c.embed(ctx, item)
		out[i].Vector = v
		out[i].Attempts = attempts
		out[i].Err = err
		if err != nil {
			c.logger.Error("item missing after retries",
				zap.Int("index", i),
				zap.String("source", item.Source),
				zap.Error(err),
			)
		}
	}
	return out
}

// Vectors splits outcomes into the vectors that succeeded and the input
// indices that are missing.
func Vectors(outcomes []Outcome) ([]vector.Vector, []int) {
	vecs := make([]vector.Vector, 0, len(outcomes))
	var missing []int
	for _, o := range outcomes {
		if o.Missing() {
			missing = append(missing, o.Index)
			continue
		}
		vecs = append(vecs, o.Vector)
	}
	return vecs, missing
}
