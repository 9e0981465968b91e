package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/chunker"
	"github.com/recaplabs/recap/pkg/rag"
	"github.com/recaplabs/recap/pkg/store"
	storeinmemory "github.com/recaplabs/recap/pkg/store/inmemory"
	"github.com/recaplabs/recap/pkg/transcripts"
	testutils "github.com/recaplabs/recap/pkg/utils/test"
	"github.com/recaplabs/recap/pkg/vector"
	vecinmemory "github.com/recaplabs/recap/pkg/vector/inmemory"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	var (
		server  *Server
		storer  *storeinmemory.Store
		idx     *vecinmemory.Index
		mockLLM *testutils.MockLLM
	)

	doJSON := func(method, path string, body any) (*http.Response, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}

		req, err := http.NewRequest(method, path, &buf)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())

		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		var decoded map[string]any
		if len(data) > 0 && data[0] == '{' {
			Expect(json.Unmarshal(data, &decoded)).To(Succeed())
		}

		return resp, decoded
	}

	uploadTranscript := func(text string) string {
		resp, body := doJSON(http.MethodPost, "/ai/transcript", UploadTranscriptRequest{Transcript: text})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(body["id"]).NotTo(BeEmpty())
		return body["id"].(string)
	}

	createSession := func(transcriptID string) string {
		resp, body := doJSON(http.MethodPost, "/ai/chat/session", CreateSessionRequest{TranscriptID: transcriptID})
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		return body["id"].(string)
	}

	BeforeEach(func() {
		embedder := testutils.NewMockEmbedder(32)
		idx = vecinmemory.NewIndex(vector.Config{Dimensions: 32})
		Expect(idx.EnsureCollection(context.Background())).To(Succeed())
		mockLLM = &testutils.MockLLM{Response: "Generated text"}

		engine, err := rag.NewEngine(rag.Config{
			Splitter: chunker.NewSplitter(chunker.Config{ChunkSize: 200, ChunkOverlap: 40}),
			Embedder: embedder,
			Index:    idx,
			LLM:      mockLLM.Call(),
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		storer = storeinmemory.NewStore()

		files, err := transcripts.NewFileStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, engine, storer, files, zap.NewNop())
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp, _ := doJSON(http.MethodGet, "/ping", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("POST /ai/transcript", func() {
		It("ingests a transcript and returns id and title", func() {
			resp, body := doJSON(http.MethodPost, "/ai/transcript", UploadTranscriptRequest{Transcript: "the team discussed roadmap priorities"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["id"]).NotTo(BeEmpty())
			Expect(body["title"]).To(Equal("Generated text"))
			Expect(idx.Len()).To(BeNumerically(">", 0))
		})

		It("rejects an empty transcript", func() {
			resp, _ := doJSON(http.MethodPost, "/ai/transcript", UploadTranscriptRequest{})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("falls back to a default title when generation fails", func() {
			mockLLM.Err = fmt.Errorf("model down")

			resp, body := doJSON(http.MethodPost, "/ai/transcript", UploadTranscriptRequest{Transcript: "content"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["title"]).To(Equal("Untitled Transcript"))
		})
	})

	Describe("GET /ai/transcript/:id", func() {
		It("returns the stored record and raw text", func() {
			id := uploadTranscript("full transcript body")

			resp, body := doJSON(http.MethodGet, "/ai/transcript/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body["content"]).To(Equal("full transcript body"))
			Expect(body["title"]).To(Equal("Generated text"))
		})

		It("returns 404 for an unknown id", func() {
			resp, _ := doJSON(http.MethodGet, "/ai/transcript/nope", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("DELETE /ai/transcript/:id", func() {
		It("removes the record, file, and vector points", func() {
			id := uploadTranscript("to be deleted")

			resp, _ := doJSON(http.MethodDelete, "/ai/transcript/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(idx.Len()).To(Equal(0))

			resp, _ = doJSON(http.MethodGet, "/ai/transcript/"+id, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("returns 404 for an unknown id", func() {
			resp, _ := doJSON(http.MethodDelete, "/ai/transcript/nope", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /ai/chat/session", func() {
		It("creates a session titled after the transcript by default", func() {
			id := uploadTranscript("session bound content")

			resp, body := doJSON(http.MethodPost, "/ai/chat/session", CreateSessionRequest{TranscriptID: id})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["transcriptId"]).To(Equal(id))
			Expect(body["title"]).To(Equal("Generated text"))
		})

		It("honors an explicit title", func() {
			id := uploadTranscript("content")

			resp, body := doJSON(http.MethodPost, "/ai/chat/session", CreateSessionRequest{TranscriptID: id, Title: "My Session"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["title"]).To(Equal("My Session"))
		})

		It("returns 404 for an unknown transcript", func() {
			resp, _ := doJSON(http.MethodPost, "/ai/chat/session", CreateSessionRequest{TranscriptID: "nope"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /ai/chat/message", func() {
		It("persists both turns and returns the answer with citations", func() {
			id := uploadTranscript("the quarterly numbers were strong")
			sessionID := createSession(id)

			resp, body := doJSON(http.MethodPost, "/ai/chat/message", SendMessageRequest{SessionID: sessionID, Content: "How were the numbers?"})
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			Expect(body["role"]).To(Equal("assistant"))
			Expect(body["content"]).To(Equal("Generated text"))
			Expect(body["citations"]).NotTo(BeEmpty())

			resp, _ = doJSON(http.MethodGet, "/ai/chat/session/"+sessionID+"/messages", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			messages, err := storer.ListMessages(context.Background(), sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].Role).To(Equal(store.RoleUser))
			Expect(messages[1].Role).To(Equal(store.RoleAssistant))
		})

		It("keeps the user message when answering fails", func() {
			id := uploadTranscript("content")
			sessionID := createSession(id)

			mockLLM.Err = fmt.Errorf("model down")

			resp, _ := doJSON(http.MethodPost, "/ai/chat/message", SendMessageRequest{SessionID: sessionID, Content: "question"})
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))

			messages, err := storer.ListMessages(context.Background(), sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Role).To(Equal(store.RoleUser))
		})

		It("returns 404 for an unknown session", func() {
			resp, _ := doJSON(http.MethodPost, "/ai/chat/message", SendMessageRequest{SessionID: "nope", Content: "question"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("PUT /ai/chat/message/:id/feedback", func() {
		It("records feedback on an assistant message", func() {
			id := uploadTranscript("content")
			sessionID := createSession(id)

			_, body := doJSON(http.MethodPost, "/ai/chat/message", SendMessageRequest{SessionID: sessionID, Content: "question"})
			messageID := body["id"].(string)

			resp, _ := doJSON(http.MethodPut, "/ai/chat/message/"+messageID+"/feedback", FeedbackRequest{Feedback: "positive"})
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			messages, err := storer.ListMessages(context.Background(), sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(messages[1].Feedback).To(Equal(store.FeedbackPositive))
		})

		It("rejects unknown feedback values", func() {
			resp, _ := doJSON(http.MethodPut, "/ai/chat/message/m1/feedback", FeedbackRequest{Feedback: "meh"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown message", func() {
			resp, _ := doJSON(http.MethodPut, "/ai/chat/message/nope/feedback", FeedbackRequest{Feedback: "negative"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /ai/chat/sessions", func() {
		It("lists created sessions", func() {
			id := uploadTranscript("content")
			createSession(id)
			createSession(id)

			resp, _ := doJSON(http.MethodGet, "/ai/chat/sessions", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
