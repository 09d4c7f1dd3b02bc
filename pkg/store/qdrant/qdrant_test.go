package qdrant_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/store/qdrant"
	testutils "github.com/papercomputeco/driftlens/pkg/utils/test"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// host returns the Qdrant host from environment or skips the test.
func host() string {
	h := os.Getenv("DRIFTLENS_TEST_QDRANT_HOST")
	if h == "" {
		Skip("DRIFTLENS_TEST_QDRANT_HOST not set, skipping Qdrant tests")
	}
	return h
}

var _ = Describe("Store", func() {
	Context("against a live server", func() {
		testutils.ItBehavesLikeAStore(func(ctx context.Context) store.Store {
			// A fresh collection per test keeps tests isolated.
			s, err := qdrant.NewStore(ctx, qdrant.Config{
				Host:       host(),
				Collection: "driftlens_test_" + uuid.NewString(),
				Dimensions: 3,
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			return s
		})
	})

	It("rejects non-UUID ids before calling the server", func() {
		ctx := context.Background()
		s, err := qdrant.NewStore(ctx, qdrant.Config{
			Host:       host(),
			Collection: "driftlens_test_" + uuid.NewString(),
			Dimensions: 1,
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		err = s.Upsert(ctx, vector.Record{ID: "not-a-uuid", Vector: vector.Vector{1}})
		Expect(err).To(MatchError(store.ErrInvalidRecord))
	})

	It("creates collections with a distance that keeps vectors as written", func() {
		params := qdrant.VectorParams(3)
		Expect(params.GetSize()).To(Equal(uint64(3)))
		Expect(params.GetDistance()).To(Equal(qdrantclient.Distance_Dot))
		Expect(params.GetDistance()).NotTo(Equal(qdrantclient.Distance_Cosine))
	})

	It("reads back a non-unit vector unchanged", func() {
		ctx := context.Background()
		s, err := qdrant.NewStore(ctx, qdrant.Config{
			Host:       host(),
			Collection: "driftlens_test_" + uuid.NewString(),
			Dimensions: 3,
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		rec := vector.NewRecord(vector.Vector{4, -2.5, 0.125}, "cats", "cat.jpeg")
		Expect(s.Upsert(ctx, rec)).To(Succeed())

		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Vector).To(Equal(rec.Vector))
	})

	It("requires a host", func() {
		_, err := qdrant.NewStore(context.Background(), qdrant.Config{}, nil)
		Expect(err).To(HaveOccurred())
	})
})
