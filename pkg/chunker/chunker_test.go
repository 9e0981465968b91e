package chunker_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recaplabs/recap/pkg/chunker"
)

func TestChunker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chunker Suite")
}

var _ = Describe("Splitter", func() {
	Describe("degenerate inputs", func() {
		It("returns a single empty chunk for empty text", func() {
			s := chunker.NewSplitter(chunker.Config{})
			Expect(s.Split("")).To(Equal([]string{""}))
		})

		It("returns the input unchanged when shorter than the chunk size", func() {
			s := chunker.NewSplitter(chunker.Config{})
			text := "a short transcript"
			Expect(s.Split(text)).To(Equal([]string{text}))
		})

		It("returns the input unchanged when exactly the chunk size", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 10, ChunkOverlap: 2})
			text := strings.Repeat("x", 10)
			Expect(s.Split(text)).To(Equal([]string{text}))
		})
	})

	Describe("splitting", func() {
		It("never produces a chunk larger than the configured size", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 100, ChunkOverlap: 20})
			text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50)

			for _, chunk := range s.Split(text) {
				Expect(len(chunk)).To(BeNumerically("<=", 100))
			}
		})

		It("covers the full input text", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 100, ChunkOverlap: 20})
			text := strings.Repeat("one two three four five six seven eight nine ten. ", 40)

			chunks := s.Split(text)
			Expect(len(chunks)).To(BeNumerically(">", 1))

			// Every chunk is a substring of the original, and stripping the
			// overlap prefix from successors reassembles the input.
			var rebuilt strings.Builder
			rebuilt.WriteString(chunks[0])
			for i := 1; i < len(chunks); i++ {
				Expect(text).To(ContainSubstring(chunks[i]))
				rebuilt.WriteString(chunks[i][20:])
			}
			Expect(rebuilt.String()).To(Equal(text))
		})

		It("shares exactly the configured overlap between neighbors", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 100, ChunkOverlap: 20})
			text := strings.Repeat("abcdefghij", 100)

			chunks := s.Split(text)
			Expect(len(chunks)).To(BeNumerically(">", 1))

			for i := 1; i < len(chunks); i++ {
				prev := chunks[i-1]
				tail := prev[len(prev)-20:]
				Expect(strings.HasPrefix(chunks[i], tail)).To(BeTrue())
			}
		})

		It("is deterministic", func() {
			s := chunker.NewSplitter(chunker.Config{})
			text := strings.Repeat("Deterministic chunking matters for stable point identity. ", 60)

			first := s.Split(text)
			second := s.Split(text)
			Expect(second).To(Equal(first))
		})

		It("prefers paragraph boundaries over mid-sentence cuts", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 60, ChunkOverlap: 10})
			text := "First paragraph with some content here.\n\nSecond paragraph with more content after it."

			chunks := s.Split(text)
			Expect(chunks[0]).To(ContainSubstring("First paragraph"))
			Expect(chunks[len(chunks)-1]).To(ContainSubstring("Second paragraph"))
		})

		It("falls back to character splitting for separator-free text", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 50, ChunkOverlap: 10})
			text := strings.Repeat("z", 500)

			for _, chunk := range s.Split(text) {
				Expect(len(chunk)).To(BeNumerically("<=", 50))
			}
		})
	})

	Describe("defaults", func() {
		It("applies the 1000/200 defaults", func() {
			s := chunker.NewSplitter(chunker.Config{})
			text := strings.Repeat("a sentence of reasonable length for testing. ", 100)

			chunks := s.Split(text)
			Expect(len(chunks)).To(BeNumerically(">", 1))
			for _, chunk := range chunks {
				Expect(len(chunk)).To(BeNumerically("<=", 1000))
			}
		})

		It("clamps an overlap larger than the chunk size", func() {
			s := chunker.NewSplitter(chunker.Config{ChunkSize: 50, ChunkOverlap: 500})
			text := strings.Repeat("b", 200)

			// Must terminate and stay within budget.
			for _, chunk := range s.Split(text) {
				Expect(len(chunk)).To(BeNumerically("<=", 50))
			}
		})
	})
})
