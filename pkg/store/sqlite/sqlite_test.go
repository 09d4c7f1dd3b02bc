package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/store/sqlite"
	testutils "github.com/papercomputeco/driftlens/pkg/utils/test"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

var _ = Describe("Store", func() {
	Context("in memory", func() {
		testutils.ItBehavesLikeAStore(func(_ context.Context) store.Store {
			s, err := sqlite.NewStore(":memory:", nil)
			Expect(err).NotTo(HaveOccurred())
			return s
		})
	})

	Describe("NewStore", func() {
		It("requires a path", func() {
			_, err := sqlite.NewStore("", nil)
			Expect(err).To(HaveOccurred())
		})

		It("persists records across reopen of a file database", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "embeddings.db")

			s, err := sqlite.NewStore(dbPath, nil)
			Expect(err).NotTo(HaveOccurred())

			rec := vector.NewRecord(vector.Vector{0.1, 0.2, 0.3}, "cat", "a.jpeg")
			Expect(s.Upsert(ctx, rec)).To(Succeed())
			Expect(s.Close()).To(Succeed())

			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())

			reopened, err := sqlite.NewStore(dbPath, nil)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			all, err := reopened.ReadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(all[0].Vector).To(Equal(vector.Vector{0.1, 0.2, 0.3}))
		})
	})
})
