// Package bedrock implements pkg/embeddings' Invoker over the AWS Bedrock
// runtime InvokeModel API.
package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
)

// RuntimeClient is the subset of the Bedrock runtime client used here.
type RuntimeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// InvokerConfig holds configuration for the Bedrock invoker.
type InvokerConfig struct {
	// ModelID is the Bedrock model or inference profile to invoke.
	ModelID string

	// Region is the AWS region. Credentials come from the default chain.
	Region string

	// Client overrides the runtime client, mainly for tests.
	Client RuntimeClient
}

// Invoker sends requests to a Bedrock model.
type Invoker struct {
	modelID string
	client  RuntimeClient
}

// NewInvoker creates a Bedrock invoker. The AWS configuration is loaded once
// here, not per request.
func NewInvoker(ctx context.Context, cfg InvokerConfig) (*Invoker, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("bedrock: model id is required")
	}

	client := cfg.Client
	if client == nil {
		var optFns []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS configuration: %w", err)
		}
		client = bedrockruntime.NewFromConfig(awsCfg)
	}

	return &Invoker{
		modelID: cfg.ModelID,
		client:  client,
	}, nil
}

// Invoke passes body through to the model and returns the raw response body.
func (i *Invoker) Invoke(ctx context.Context, body []byte) ([]byte, error) {
	out, err := i.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(i.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invoking %s: %v", embeddings.ErrInvoke, i.modelID, err)
	}
	return out.Body, nil
}

// Close is a no-op; the AWS client holds no resources that need releasing.
func (i *Invoker) Close() error {
	return nil
}

var _ embeddings.Invoker = (*Invoker)(nil)
