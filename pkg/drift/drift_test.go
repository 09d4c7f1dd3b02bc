package drift_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/driftlens/pkg/drift"
	"github.com/papercomputeco/driftlens/pkg/embeddings"
	"github.com/papercomputeco/driftlens/pkg/retry"
	testutils "github.com/papercomputeco/driftlens/pkg/utils/test"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

func items(keys ...string) []embeddings.Item {
	out := make([]embeddings.Item, len(keys))
	for i, k := range keys {
		out[i] = embeddings.Item{Image: []byte(k), Label: "drusen", Source: k + ".jpeg"}
	}
	return out
}

var _ = Describe("Comparer", func() {
	var (
		ctx      context.Context
		invoker  *testutils.MockInvoker
		comparer *drift.Comparer
	)

	BeforeEach(func() {
		ctx = context.Background()
		invoker = testutils.NewMockInvoker()
		invoker.Vectors["x"] = []float64{1, 0}
		invoker.Vectors["y"] = []float64{0, 1}

		client, err := embeddings.NewClient(embeddings.ClientConfig{
			Invoker: invoker,
			Policy:  retry.Immediate(),
		})
		Expect(err).NotTo(HaveOccurred())
		comparer = &drift.Comparer{Client: client}
	})

	It("computes the divergence between two sets", func() {
		report, err := comparer.Compare(ctx, items("x"), items("y"), drift.AbortOnMissing)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Divergence).To(BeNumerically("~", 2-2*math.Exp(-1), 1e-12))
		Expect(report.SizeA).To(Equal(1))
		Expect(report.UsedB).To(Equal(1))
		Expect(report.MissingA).To(BeEmpty())
	})

	It("reports zero divergence for identical sets", func() {
		report, err := comparer.Compare(ctx, items("x", "y"), items("x", "y"), drift.AbortOnMissing)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Divergence).To(BeNumerically("~", 0, 1e-12))
	})

	It("aborts with the missing positions by default", func() {
		invoker.FailOn = "bad"

		report, err := comparer.Compare(ctx, items("x", "bad", "y"), items("y"), drift.AbortOnMissing)
		Expect(report).To(BeNil())
		Expect(err).To(MatchError(drift.ErrMissingEmbeddings))

		var missing *drift.MissingError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.MissingA).To(Equal([]int{1}))
		Expect(missing.MissingB).To(BeEmpty())
	})

	It("drops missing items and lists them when asked to", func() {
		invoker.FailOn = "bad"

		report, err := comparer.Compare(ctx, items("x", "bad"), items("bad", "y"), drift.DropMissing)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.UsedA).To(Equal(1))
		Expect(report.UsedB).To(Equal(1))
		Expect(report.MissingA).To(Equal([]int{1}))
		Expect(report.MissingB).To(Equal([]int{0}))
		Expect(report.Divergence).To(BeNumerically("~", 2-2*math.Exp(-1), 1e-12))
	})

	It("fails when a whole set is missing even when dropping", func() {
		invoker.FailOn = "bad"

		_, err := comparer.Compare(ctx, items("bad"), items("y"), drift.DropMissing)
		Expect(err).To(MatchError(vector.ErrEmptySet))
	})

	It("rejects sets of different dimensionality", func() {
		invoker.Vectors["z"] = []float64{1, 0, 0}

		_, err := comparer.Compare(ctx, items("x"), items("z"), drift.AbortOnMissing)
		Expect(err).To(MatchError(vector.ErrDimensionMismatch))
	})

	It("stops when the context is done", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := comparer.Compare(cctx, items("x"), items("y"), drift.AbortOnMissing)
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("MissingPolicy", func() {
	DescribeTable("parses",
		func(in string, want drift.MissingPolicy) {
			got, err := drift.ParseMissingPolicy(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(got.String()).To(Equal(want.String()))
		},
		Entry("abort", "abort", drift.AbortOnMissing),
		Entry("drop", "drop", drift.DropMissing),
		Entry("mixed case", " Drop ", drift.DropMissing),
	)

	It("rejects anything else", func() {
		_, err := drift.ParseMissingPolicy("ignore")
		Expect(err).To(HaveOccurred())
	})

	It("defaults to aborting", func() {
		var p drift.MissingPolicy
		Expect(p).To(Equal(drift.AbortOnMissing))
	})
})

var _ = Describe("Report", func() {
	It("renders a markdown summary", func() {
		r := &drift.Report{
			Policy:     drift.DropMissing,
			Divergence: 1.2642411,
			SizeA:      3,
			UsedA:      2,
			MissingA:   []int{1},
			SizeB:      2,
			UsedB:      2,
		}

		md := r.Markdown()
		Expect(md).To(ContainSubstring("`1.264241`"))
		Expect(md).To(ContainSubstring("| A | 3 | 2 | 1 |"))
		Expect(md).To(ContainSubstring("| B | 2 | 2 | 0 |"))
		Expect(md).To(ContainSubstring("set A positions: 1"))
		Expect(md).NotTo(ContainSubstring("set B positions"))
	})
})
