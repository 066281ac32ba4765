package memory

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliostack/folio/pkg/vector"
)

var _ = Describe("Store", func() {
	var (
		store *Store
		ctx   context.Context
	)

	BeforeEach(func() {
		store = NewStore()
		ctx = context.Background()
	})

	Describe("Insert", func() {
		It("establishes the dimension on first insert", func() {
			Expect(store.Insert(ctx, "a", []float32{1, 0, 0})).To(Succeed())
			Expect(store.Dimension()).To(Equal(3))
			Expect(store.Len()).To(Equal(1))
		})

		It("rejects a mismatched dimension and leaves the count unchanged", func() {
			Expect(store.Insert(ctx, "a", []float32{1, 0, 0})).To(Succeed())

			err := store.Insert(ctx, "b", []float32{1, 0})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(store.Len()).To(Equal(1))
		})

		It("rejects an empty embedding", func() {
			Expect(store.Insert(ctx, "a", nil)).To(MatchError(vector.ErrDimensionMismatch))
			Expect(store.Len()).To(Equal(0))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(store.Insert(ctx, "east", []float32{1, 0})).To(Succeed())
			Expect(store.Insert(ctx, "north", []float32{0, 1})).To(Succeed())
			Expect(store.Insert(ctx, "northeast", []float32{1, 1})).To(Succeed())
		})

		It("returns min(k, n) results", func() {
			results, err := store.Search(ctx, []float32{1, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			results, err = store.Search(ctx, []float32{1, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})

		It("sorts by strictly non-increasing score with increasing rank", func() {
			results, err := store.Search(ctx, []float32{1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())

			for i, r := range results {
				Expect(r.Rank).To(Equal(i))
				if i > 0 {
					Expect(r.Score).To(BeNumerically("<=", results[i-1].Score))
				}
			}
		})

		It("scores a stored vector against itself as 1.0", func() {
			results, err := store.Search(ctx, []float32{1, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Text).To(Equal("east"))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
		})

		It("breaks score ties by insertion order", func() {
			// east and north are both orthogonal-adjacent to the diagonal
			// query, so their scores tie exactly.
			results, err := store.Search(ctx, []float32{1, 1}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Text).To(Equal("northeast"))
			Expect(results[1].Text).To(Equal("east"))
			Expect(results[2].Text).To(Equal("north"))
		})

		It("returns empty results for k = 0", func() {
			results, err := store.Search(ctx, []float32{1, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("returns empty results for an empty store regardless of k", func() {
			empty := NewStore()
			results, err := empty.Search(ctx, []float32{1, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("rejects a query vector of the wrong dimension", func() {
			_, err := store.Search(ctx, []float32{1, 0, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("scores a zero-norm query as 0 instead of NaN", func() {
			results, err := store.Search(ctx, []float32{0, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.Score).To(BeZero())
			}
		})
	})
})
