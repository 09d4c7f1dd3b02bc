// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
	"github.com/papercomputeco/driftlens/pkg/embeddings/azureml"
	"github.com/papercomputeco/driftlens/pkg/embeddings/bedrock"
)

type NewInvokerOpts struct {
	ProviderType string
	Endpoint     string
	APIKey       string
	Deployment   string
	Region       string
	Model        string
	Timeout      time.Duration

	// CircuitBreaker wraps the invoker with embeddings.NewBreakerInvoker.
	CircuitBreaker bool
	Logger         *zap.Logger
}

func NewInvoker(ctx context.Context, o *NewInvokerOpts) (embeddings.Invoker, error) {
	var (
		inv embeddings.Invoker
		err error
	)

	switch o.ProviderType {
	case "azureml":
		inv, err = azureml.NewInvoker(azureml.InvokerConfig{
			Endpoint:   o.Endpoint,
			APIKey:     o.APIKey,
			Deployment: o.Deployment,
			Timeout:    o.Timeout,
		})
	case "bedrock":
		model := o.Model
		if model == "" {
			model = o.Endpoint
		}
		inv, err = bedrock.NewInvoker(ctx, bedrock.InvokerConfig{
			ModelID: model,
			Region:  o.Region,
		})
	default:
		return nil, fmt.Errorf("unsupported inference provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	if o.CircuitBreaker {
		inv = embeddings.NewBreakerInvoker(inv, o.ProviderType, o.Logger)
	}

	return inv, nil
}
