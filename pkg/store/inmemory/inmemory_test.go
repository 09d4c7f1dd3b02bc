package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/store/inmemory"
	testutils "github.com/papercomputeco/driftlens/pkg/utils/test"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

var _ = Describe("Store", func() {
	testutils.ItBehavesLikeAStore(func(_ context.Context) store.Store {
		return inmemory.NewStore()
	})

	It("does not alias the caller's vector", func() {
		ctx := context.Background()
		s := inmemory.NewStore()
		rec := vector.NewRecord(vector.Vector{1, 2}, "cat", "a.jpeg")
		Expect(s.Upsert(ctx, rec)).To(Succeed())

		rec.Vector[0] = 99

		all, err := s.ReadAll(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all[0].Vector).To(Equal(vector.Vector{1, 2}))
		Expect(s.Len()).To(Equal(1))
	})
})
