package ollama_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recaplabs/recap/pkg/embeddings"
	"github.com/recaplabs/recap/pkg/embeddings/ollama"
)

func TestOllamaEmbedder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Embedder Suite")
}

// fakeOllama returns a test server that echoes one fixed-size embedding per
// input, recording the inputs it saw.
func fakeOllama(dims int, inputs *[][]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
			Input any    `json:"input"`
		}
		Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())

		var texts []string
		switch in := req.Input.(type) {
		case string:
			texts = []string{in}
		case []any:
			for _, t := range in {
				texts = append(texts, t.(string))
			}
		}
		*inputs = append(*inputs, texts)

		embs := make([][]float32, len(texts))
		for i := range texts {
			v := make([]float32, dims)
			// Distinct, non-normalized values so the client's normalization
			// is observable.
			for j := range v {
				v[j] = float32(i + 1)
			}
			embs[i] = v
		}

		json.NewEncoder(w).Encode(map[string]any{"embeddings": embs})
	}))
}

var _ = Describe("Embedder", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		inputs [][]string
	)

	BeforeEach(func() {
		ctx = context.Background()
		inputs = nil
		server = fakeOllama(4, &inputs)
		DeferCleanup(server.Close)
	})

	newEmbedder := func() *ollama.Embedder {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    server.URL,
			Model:      "all-minilm",
			Dimensions: 4,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("lifecycle", func() {
		It("fails Embed before Init", func() {
			e := newEmbedder()
			_, err := e.Embed(ctx, "hello")
			Expect(err).To(MatchError(embeddings.ErrUninitialized))
		})

		It("embeds after Init", func() {
			e := newEmbedder()
			Expect(e.Init(ctx)).To(Succeed())

			vec, err := e.Embed(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(4))
		})

		It("treats repeat Init calls as no-ops", func() {
			e := newEmbedder()
			Expect(e.Init(ctx)).To(Succeed())
			Expect(e.Init(ctx)).To(Succeed())

			// One probe request only.
			Expect(inputs).To(HaveLen(1))
		})

		It("rejects a model with the wrong dimensionality", func() {
			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
				BaseURL:    server.URL,
				Dimensions: 384,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Init(ctx)).NotTo(Succeed())
		})
	})

	Describe("Embed", func() {
		It("L2-normalizes vectors", func() {
			e := newEmbedder()
			Expect(e.Init(ctx)).To(Succeed())

			vec, err := e.Embed(ctx, "hello")
			Expect(err).NotTo(HaveOccurred())

			var sum float64
			for _, x := range vec {
				sum += float64(x) * float64(x)
			}
			Expect(math.Sqrt(sum)).To(BeNumerically("~", 1.0, 1e-5))
		})
	})

	Describe("EmbedBatch", func() {
		It("sends one request and preserves input order", func() {
			e := newEmbedder()
			Expect(e.Init(ctx)).To(Succeed())
			inputs = nil

			vecs, err := e.EmbedBatch(ctx, []string{"first", "second", "third"})
			Expect(err).NotTo(HaveOccurred())
			Expect(vecs).To(HaveLen(3))
			Expect(inputs).To(HaveLen(1))
			Expect(inputs[0]).To(Equal([]string{"first", "second", "third"}))
		})

		It("returns nil for an empty batch without calling the API", func() {
			e := newEmbedder()
			Expect(e.Init(ctx)).To(Succeed())
			inputs = nil

			vecs, err := e.EmbedBatch(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(vecs).To(BeNil())
			Expect(inputs).To(BeEmpty())
		})
	})

	Describe("errors", func() {
		It("wraps upstream failures in ErrEmbedding", func() {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "model exploded", http.StatusInternalServerError)
			}))
			DeferCleanup(failing.Close)

			e, err := ollama.NewEmbedder(ollama.EmbedderConfig{BaseURL: failing.URL, Dimensions: 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Init(ctx)).To(MatchError(embeddings.ErrEmbedding))
		})
	})
})
