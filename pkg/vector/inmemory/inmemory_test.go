package inmemory_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recaplabs/recap/pkg/vector"
	"github.com/recaplabs/recap/pkg/vector/inmemory"
)

func TestInMemoryIndex(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "InMemory Index Suite")
}

var _ = Describe("Index", func() {
	var (
		ctx context.Context
		idx *inmemory.Index
	)

	BeforeEach(func() {
		ctx = context.Background()
		idx = inmemory.NewIndex(vector.Config{Dimensions: 3})
		Expect(idx.EnsureCollection(ctx)).To(Succeed())
	})

	point := func(id string, vec []float32) vector.Point {
		return vector.Point{ID: id, Vector: vec, Content: "chunk " + id}
	}

	Describe("EnsureCollection", func() {
		It("is idempotent", func() {
			for range 5 {
				Expect(idx.EnsureCollection(ctx)).To(Succeed())
			}
		})
	})

	Describe("Upsert", func() {
		It("rejects vectors with the wrong dimensionality and writes nothing", func() {
			err := idx.Upsert(ctx, "t1", []vector.Point{point("a", []float32{1, 0})})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(idx.Len()).To(Equal(0))
		})

		It("overwrites points with the same id", func() {
			Expect(idx.Upsert(ctx, "t1", []vector.Point{point("a", []float32{1, 0, 0})})).To(Succeed())
			Expect(idx.Upsert(ctx, "t1", []vector.Point{point("a", []float32{0, 1, 0})})).To(Succeed())
			Expect(idx.Len()).To(Equal(1))

			results, err := idx.Search(ctx, []float32{0, 1, 0}, 1, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-6))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			Expect(idx.Upsert(ctx, "t1", []vector.Point{
				point("a", []float32{1, 0, 0}),
				point("b", []float32{0.9, 0.1, 0}),
				point("c", []float32{0, 0, 1}),
			})).To(Succeed())
			Expect(idx.Upsert(ctx, "t2", []vector.Point{
				point("d", []float32{1, 0, 0}),
			})).To(Succeed())
		})

		It("returns results in non-increasing score order", func() {
			results, err := idx.Search(ctx, []float32{1, 0, 0}, 10, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			for i := 1; i < len(results); i++ {
				Expect(results[i].Score).To(BeNumerically("<=", results[i-1].Score))
			}
			Expect(results[0].ID).To(Equal("a"))
		})

		It("filters by transcript id", func() {
			results, err := idx.Search(ctx, []float32{1, 0, 0}, 10, "t2")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("d"))
			Expect(results[0].TranscriptID).To(Equal("t2"))
		})

		It("searches all transcripts when unscoped", func() {
			results, err := idx.Search(ctx, []float32{1, 0, 0}, 10, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
		})

		It("caps results at the limit", func() {
			results, err := idx.Search(ctx, []float32{1, 0, 0}, 2, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("rejects query vectors with the wrong dimensionality", func() {
			_, err := idx.Search(ctx, []float32{1, 0}, 5, "t1")
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("carries the metadata through", func() {
			Expect(idx.Upsert(ctx, "t3", []vector.Point{{
				ID:     "m",
				Vector: []float32{0, 1, 0},
				Metadata: vector.ChunkMetadata{
					Timestamp: "00:01:30",
					Speaker:   "Speaker 1",
				},
			}})).To(Succeed())

			results, err := idx.Search(ctx, []float32{0, 1, 0}, 1, "t3")
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Metadata.Timestamp).To(Equal("00:01:30"))
			Expect(results[0].Metadata.Speaker).To(Equal("Speaker 1"))
		})
	})

	Describe("DeleteByTranscript", func() {
		It("removes exactly the transcript's points", func() {
			Expect(idx.Upsert(ctx, "t1", []vector.Point{point("a", []float32{1, 0, 0})})).To(Succeed())
			Expect(idx.Upsert(ctx, "t2", []vector.Point{point("b", []float32{1, 0, 0})})).To(Succeed())

			Expect(idx.DeleteByTranscript(ctx, "t1")).To(Succeed())

			results, err := idx.Search(ctx, []float32{1, 0, 0}, 10, "")
			Expect(err).NotTo(HaveOccurred())
			for _, r := range results {
				Expect(r.TranscriptID).NotTo(Equal("t1"))
			}
		})

		It("is a no-op for an unknown transcript", func() {
			Expect(idx.DeleteByTranscript(ctx, "missing")).To(Succeed())
			Expect(idx.DeleteByTranscript(ctx, "missing")).To(Succeed())
		})
	})
})
