package search_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/search"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

func ids(results []search.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.ID
	}
	return out
}

var _ = Describe("TopK", func() {
	var candidates []vector.Record

	BeforeEach(func() {
		candidates = []vector.Record{
			{ID: "a", Vector: vector.Vector{1, 0, 0}, Label: "cat", Source: "a.jpeg"},
			{ID: "b", Vector: vector.Vector{0, 1, 0}, Label: "dog", Source: "b.jpeg"},
			{ID: "c", Vector: vector.Vector{0.5, 0.5, 0}, Label: "fox", Source: "c.jpeg"},
		}
	})

	It("ranks the record whose vector is the query first with score 1", func() {
		results, err := search.TopK(vector.Vector{0, 1, 0}, candidates, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Record.ID).To(Equal("b"))
		Expect(results[0].Record.Label).To(Equal("dog"))
		Expect(results[0].Record.Source).To(Equal("b.jpeg"))
		Expect(results[0].Score).To(BeNumerically("~", 1, 1e-12))
	})

	It("returns all candidates sorted when k exceeds the candidate count", func() {
		results, err := search.TopK(vector.Vector{0, 1, 0}, candidates, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(results)).To(Equal([]string{"b", "c", "a"}))
		for i := 1; i < len(results); i++ {
			Expect(results[i-1].Score).To(BeNumerically(">=", results[i].Score))
		}
	})

	It("returns exactly k results when k equals the candidate count", func() {
		results, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
	})

	It("breaks ties by candidate order and is deterministic", func() {
		tied := []vector.Record{
			{ID: "first", Vector: vector.Vector{1, 0}},
			{ID: "second", Vector: vector.Vector{2, 0}},
			{ID: "third", Vector: vector.Vector{0, 1}},
			{ID: "fourth", Vector: vector.Vector{3, 0}},
		}

		for range 5 {
			results, err := search.TopK(vector.Vector{1, 0}, tied, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(results)).To(Equal([]string{"first", "second", "fourth"}))
		}
	})

	It("returns an empty result for no candidates", func() {
		results, err := search.TopK(vector.Vector{1, 0}, nil, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	Describe("input contract", func() {
		It("rejects a non-positive k", func() {
			_, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 0)
			Expect(err).To(MatchError(search.ErrInvalidK))

			_, err = search.TopK(vector.Vector{1, 0, 0}, candidates, -1)
			Expect(err).To(MatchError(search.ErrInvalidK))
		})

		It("rejects a candidate with a different dimension", func() {
			candidates = append(candidates, vector.Record{ID: "d", Vector: vector.Vector{1, 0}})

			results, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 2)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(results).To(BeNil())
		})

		It("rejects an empty query", func() {
			_, err := search.TopK(vector.Vector{}, candidates, 2)
			Expect(err).To(MatchError(vector.ErrEmptyVector))
		})

		It("rejects a zero-norm query", func() {
			_, err := search.TopK(vector.Vector{0, 0, 0}, candidates, 2)
			Expect(err).To(MatchError(vector.ErrZeroNorm))
		})
	})

	Describe("non-finite vectors", func() {
		It("rejects a NaN candidate instead of ranking it", func() {
			nan := []vector.Record{{ID: "z", Vector: vector.Vector{math.NaN(), 1}}}

			results, err := search.TopK(vector.Vector{1, 0}, nan, 1)
			Expect(err).To(MatchError(vector.ErrMalformedVector))
			Expect(err.Error()).To(ContainSubstring("(z)"))
			Expect(results).To(BeNil())
		})

		It("rejects an infinite candidate among valid ones", func() {
			candidates = append(candidates, vector.Record{ID: "inf", Vector: vector.Vector{math.Inf(1), 0, 0}})

			_, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 4)
			Expect(err).To(MatchError(vector.ErrMalformedVector))
		})

		It("is not skipped by the zero-norm option", func() {
			candidates = append(candidates, vector.Record{ID: "nan", Vector: vector.Vector{0, math.NaN(), 0}})

			_, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 4, search.WithSkipZeroNorm(nil))
			Expect(err).To(MatchError(vector.ErrMalformedVector))
		})

		It("rejects a NaN query even with no candidates", func() {
			_, err := search.TopK(vector.Vector{math.NaN(), 0}, nil, 1)
			Expect(err).To(MatchError(vector.ErrMalformedVector))
		})
	})

	Describe("zero-norm candidates", func() {
		BeforeEach(func() {
			candidates = append(candidates, vector.Record{ID: "zero", Vector: vector.Vector{0, 0, 0}})
		})

		It("fails by default", func() {
			_, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 4)
			Expect(err).To(MatchError(vector.ErrZeroNorm))
		})

		It("skips them when asked to", func() {
			results, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 4, search.WithSkipZeroNorm(zap.NewNop()))
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(results)).To(Equal([]string{"a", "c", "b"}))
		})

		It("tolerates a nil logger", func() {
			results, err := search.TopK(vector.Vector{1, 0, 0}, candidates, 1, search.WithSkipZeroNorm(nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(results)).To(Equal([]string{"a"}))
		})
	})
})
