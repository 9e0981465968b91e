package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/chunker"
	"github.com/recaplabs/recap/pkg/rag"
	testutils "github.com/recaplabs/recap/pkg/utils/test"
	"github.com/recaplabs/recap/pkg/vector"
	"github.com/recaplabs/recap/pkg/vector/inmemory"
)

func TestEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RAG Engine Suite")
}

const dims = 64

var _ = Describe("Engine", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		idx      *inmemory.Index
		mockLLM  *testutils.MockLLM
		engine   *rag.Engine
	)

	newEngine := func(index vector.Index) *rag.Engine {
		e, err := rag.NewEngine(rag.Config{
			Splitter: chunker.NewSplitter(chunker.Config{ChunkSize: 200, ChunkOverlap: 40}),
			Embedder: embedder,
			Index:    index,
			LLM:      mockLLM.Call(),
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder(dims)
		idx = inmemory.NewIndex(vector.Config{Dimensions: dims})
		Expect(idx.EnsureCollection(ctx)).To(Succeed())
		mockLLM = &testutils.MockLLM{Response: "  The answer.  "}
		engine = newEngine(idx)
	})

	Describe("IngestTranscript", func() {
		It("indexes every chunk under a fresh transcript id", func() {
			id, err := engine.IngestTranscript(ctx, strings.Repeat("some transcript content. ", 40))
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())
			Expect(idx.Len()).To(BeNumerically(">", 1))
		})

		It("indexes a short transcript as a single chunk", func() {
			_, err := engine.IngestTranscript(ctx, "short")
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Len()).To(Equal(1))
		})

		It("extracts speaker and timestamp tags into point metadata", func() {
			id, err := engine.IngestTranscript(ctx, "[00:00:32] [Speaker:1] Sarah: our metrics improved a lot this quarter.")
			Expect(err).NotTo(HaveOccurred())

			q, qerr := embedder.Embed(ctx, "metrics")
			Expect(qerr).NotTo(HaveOccurred())
			results, serr := idx.Search(ctx, q, 1, id)
			Expect(serr).NotTo(HaveOccurred())
			Expect(results[0].Metadata.Timestamp).To(Equal("00:00:32"))
			Expect(results[0].Metadata.Speaker).To(Equal("Speaker 1"))
		})

		It("leaves metadata unset for untagged chunks", func() {
			id, err := engine.IngestTranscript(ctx, "no tags in this text at all")
			Expect(err).NotTo(HaveOccurred())

			q, _ := embedder.Embed(ctx, "tags")
			results, serr := idx.Search(ctx, q, 1, id)
			Expect(serr).NotTo(HaveOccurred())
			Expect(results[0].Metadata.Timestamp).To(BeEmpty())
			Expect(results[0].Metadata.Speaker).To(BeEmpty())
		})

		It("propagates embedding failures", func() {
			embedder.FailOn = "poison pill"
			_, err := engine.IngestTranscript(ctx, "poison pill")
			Expect(err).To(HaveOccurred())
			Expect(idx.Len()).To(Equal(0))
		})

		It("cleans up after a failed upsert", func() {
			failing := &testutils.FailingIndex{Index: idx, FailUpsert: true}
			e := newEngine(failing)

			_, err := e.IngestTranscript(ctx, "some content")
			Expect(err).To(MatchError(vector.ErrWriteFailed))
			Expect(failing.Deletes).To(HaveLen(1))
			Expect(idx.Len()).To(Equal(0))
		})
	})

	Describe("AnswerQuestion", func() {
		It("round-trips a verbatim chunk substring above the similarity threshold", func() {
			// Three paragraphs with deliberately distinct character content
			// so the histogram embedder can tell them apart.
			transcript := strings.Join([]string{
				strings.Repeat("alpha beta gamma delta feedback meeting. ", 5),
				strings.Repeat("budget 1000 4000 9000 2026 numbers 42 17. ", 5),
				strings.Repeat("DEPLOY ROLLBACK INCIDENT SEVERITY REVIEW. ", 5),
			}, "\n\n")

			id, err := engine.IngestTranscript(ctx, transcript)
			Expect(err).NotTo(HaveOccurred())

			answer, err := engine.AnswerQuestion(ctx, "budget 1000 4000 9000 2026 numbers", id, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Citations).NotTo(BeEmpty())
			Expect(answer.Citations[0].Chunk).To(ContainSubstring("budget 1000"))
			Expect(answer.Citations[0].Confidence).To(BeNumerically(">", 0.8))
		})

		It("orders citations by similarity descending", func() {
			id, err := engine.IngestTranscript(ctx, strings.Repeat("content about various project topics here. ", 30))
			Expect(err).NotTo(HaveOccurred())

			answer, err := engine.AnswerQuestion(ctx, "project topics", id, nil)
			Expect(err).NotTo(HaveOccurred())
			for i := 1; i < len(answer.Citations); i++ {
				Expect(answer.Citations[i].Confidence).To(BeNumerically("<=", answer.Citations[i-1].Confidence))
			}
		})

		It("scopes retrieval to the session's transcript", func() {
			first, err := engine.IngestTranscript(ctx, "first transcript about kubernetes clusters")
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.IngestTranscript(ctx, "second transcript about kubernetes clusters")
			Expect(err).NotTo(HaveOccurred())

			answer, err := engine.AnswerQuestion(ctx, "kubernetes clusters", first, nil)
			Expect(err).NotTo(HaveOccurred())
			for _, c := range answer.Citations {
				Expect(c.Source).To(Equal(first))
			}
		})

		It("applies citation defaults for missing metadata", func() {
			id, err := engine.IngestTranscript(ctx, "untagged chunk text")
			Expect(err).NotTo(HaveOccurred())

			answer, err := engine.AnswerQuestion(ctx, "untagged", id, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Citations[0].Timestamp).To(Equal("00:00:00"))
			Expect(answer.Citations[0].Speaker).To(Equal("Unknown"))
		})

		It("returns tagged metadata in citations", func() {
			id, err := engine.IngestTranscript(ctx, "[00:00:32] [Speaker:2] Sarah: metrics are up fifteen percent.")
			Expect(err).NotTo(HaveOccurred())

			answer, err := engine.AnswerQuestion(ctx, "What did Sarah say about metrics?", id, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Citations[0].Timestamp).To(Equal("00:00:32"))
			Expect(answer.Citations[0].Speaker).To(Equal("Speaker 2"))
		})

		It("trims the completion and includes context plus history in the prompt", func() {
			id, err := engine.IngestTranscript(ctx, "the quarterly report was discussed")
			Expect(err).NotTo(HaveOccurred())

			history := []rag.Turn{
				{Role: "user", Content: "earlier question"},
				{Role: "assistant", Content: "earlier answer"},
			}
			answer, err := engine.AnswerQuestion(ctx, "what was discussed?", id, history)
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Answer).To(Equal("The answer."))

			prompt := mockLLM.Prompts[len(mockLLM.Prompts)-1]
			Expect(prompt).To(ContainSubstring("[1] the quarterly report"))
			Expect(prompt).To(ContainSubstring("user: earlier question"))
			Expect(prompt).To(ContainSubstring("assistant: earlier answer"))
			Expect(prompt).To(ContainSubstring("Question: what was discussed?"))
		})

		It("wraps embedding failures as answer generation errors", func() {
			embedder.FailOn = "bad question"
			_, err := engine.AnswerQuestion(ctx, "bad question", "t1", nil)
			Expect(err).To(MatchError(rag.ErrAnswerGeneration))
		})

		It("wraps search failures as answer generation errors", func() {
			failing := &testutils.FailingIndex{Index: idx, FailSearch: true}
			e := newEngine(failing)

			_, err := e.AnswerQuestion(ctx, "anything", "t1", nil)
			Expect(err).To(MatchError(rag.ErrAnswerGeneration))
		})

		It("wraps model failures as answer generation errors", func() {
			mockLLM.Err = errors.New("model unavailable")
			id, err := engine.IngestTranscript(ctx, "content")
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.AnswerQuestion(ctx, "question", id, nil)
			Expect(err).To(MatchError(rag.ErrAnswerGeneration))
		})
	})

	Describe("GenerateTitle", func() {
		It("returns the trimmed completion", func() {
			mockLLM.Response = "  Quarterly Planning Recap  \n"
			title, err := engine.GenerateTitle(ctx, "a transcript about quarterly planning")
			Expect(err).NotTo(HaveOccurred())
			Expect(title).To(Equal("Quarterly Planning Recap"))
		})

		It("does not retrieve from the index", func() {
			_, err := engine.GenerateTitle(ctx, "some transcript")
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Len()).To(Equal(0))
		})

		It("truncates very long transcripts to the prompt budget", func() {
			_, err := engine.GenerateTitle(ctx, strings.Repeat("x", 100_000))
			Expect(err).NotTo(HaveOccurred())

			prompt := mockLLM.Prompts[len(mockLLM.Prompts)-1]
			Expect(len(prompt)).To(BeNumerically("<", 10_000))
		})

		It("wraps model failures", func() {
			mockLLM.Err = errors.New("model unavailable")
			_, err := engine.GenerateTitle(ctx, "content")
			Expect(err).To(MatchError(rag.ErrAnswerGeneration))
		})
	})

	Describe("DeleteTranscript", func() {
		It("removes the transcript's points", func() {
			id, err := engine.IngestTranscript(ctx, "to be removed")
			Expect(err).NotTo(HaveOccurred())
			Expect(idx.Len()).To(BeNumerically(">", 0))

			Expect(engine.DeleteTranscript(ctx, id)).To(Succeed())
			Expect(idx.Len()).To(Equal(0))
		})

		It("is a no-op for unknown transcripts", func() {
			Expect(engine.DeleteTranscript(ctx, "missing")).To(Succeed())
		})
	})
})
