package testutils

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// ItBehavesLikeAStore registers the behaviors every store backend shares.
// newStore is called before each test and must return an empty store.
func ItBehavesLikeAStore(newStore func(ctx context.Context) store.Store) {
	var (
		ctx context.Context
		s   store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = newStore(ctx)
	})

	AfterEach(func() {
		if s != nil {
			Expect(s.Close()).To(Succeed())
		}
	})

	It("reads back an upserted record", func() {
		rec := vector.NewRecord(vector.Vector{0.25, -1.5, 3}, "cat", "data/cat/1.jpeg")
		Expect(s.Upsert(ctx, rec)).To(Succeed())

		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].ID).To(Equal(rec.ID))
		Expect(all[0].Vector).To(Equal(rec.Vector))
		Expect(all[0].Label).To(Equal("cat"))
		Expect(all[0].Source).To(Equal("data/cat/1.jpeg"))
	})

	It("is idempotent for the same record", func() {
		rec := vector.NewRecord(vector.Vector{1, 0, 0}, "cat", "a.jpeg")
		Expect(s.Upsert(ctx, rec)).To(Succeed())
		Expect(s.Upsert(ctx, rec)).To(Succeed())

		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
	})

	It("replaces a record with the same id", func() {
		rec := vector.NewRecord(vector.Vector{1, 0, 0}, "cat", "a.jpeg")
		Expect(s.Upsert(ctx, rec)).To(Succeed())

		rec.Vector = vector.Vector{0, 1, 0}
		rec.Label = "dog"
		Expect(s.Upsert(ctx, rec)).To(Succeed())

		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Vector).To(Equal(vector.Vector{0, 1, 0}))
		Expect(all[0].Label).To(Equal("dog"))
	})

	It("keeps records with distinct ids", func() {
		for i := range 3 {
			rec := vector.NewRecord(vector.Vector{float64(i), 1, 0}, "cat", "same.jpeg")
			Expect(s.Upsert(ctx, rec)).To(Succeed())
		}

		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
	})

	It("returns nothing for an empty store", func() {
		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(BeEmpty())
	})

	It("rejects a record without an id", func() {
		err := s.Upsert(ctx, vector.Record{Vector: vector.Vector{1}})
		Expect(err).To(MatchError(store.ErrInvalidRecord))
	})

	It("rejects a record without a vector", func() {
		err := s.Upsert(ctx, vector.Record{ID: uuid.NewString()})
		Expect(err).To(MatchError(store.ErrInvalidRecord))
	})
}
