package bedrock_test

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
	"github.com/papercomputeco/driftlens/pkg/embeddings/bedrock"
)

type fakeRuntime struct {
	input *bedrockruntime.InvokeModelInput
	body  []byte
	err   error
}

func (f *fakeRuntime) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

var _ = Describe("Invoker", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("requires a model id", func() {
		_, err := bedrock.NewInvoker(ctx, bedrock.InvokerConfig{Client: &fakeRuntime{}})
		Expect(err).To(HaveOccurred())
	})

	It("passes the body through to InvokeModel", func() {
		fake := &fakeRuntime{body: []byte(`[{"text_features":[1]}]`)}
		inv, err := bedrock.NewInvoker(ctx, bedrock.InvokerConfig{ModelID: "clip-embed", Client: fake})
		Expect(err).NotTo(HaveOccurred())

		resp, err := inv.Invoke(ctx, []byte(`{"input_data":{}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(fake.body))
		Expect(aws.ToString(fake.input.ModelId)).To(Equal("clip-embed"))
		Expect(aws.ToString(fake.input.ContentType)).To(Equal("application/json"))
		Expect(fake.input.Body).To(Equal([]byte(`{"input_data":{}}`)))
		Expect(inv.Close()).To(Succeed())
	})

	It("wraps runtime failures in ErrInvoke", func() {
		fake := &fakeRuntime{err: errors.New("throttled")}
		inv, err := bedrock.NewInvoker(ctx, bedrock.InvokerConfig{ModelID: "clip-embed", Client: fake})
		Expect(err).NotTo(HaveOccurred())

		_, err = inv.Invoke(ctx, []byte(`{}`))
		Expect(err).To(MatchError(embeddings.ErrInvoke))
		Expect(err.Error()).To(ContainSubstring("throttled"))
	})
})
