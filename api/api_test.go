package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliostack/folio/pkg/eventstream"
	"github.com/foliostack/folio/pkg/ingest"
	"github.com/foliostack/folio/pkg/llm"
	"github.com/foliostack/folio/pkg/rag"
	sessionmemory "github.com/foliostack/folio/pkg/session/memory"
	testutils "github.com/foliostack/folio/pkg/utils/test"
	"github.com/foliostack/folio/pkg/vector"
	vecmemory "github.com/foliostack/folio/pkg/vector/memory"
)

var _ = Describe("Server", func() {
	var (
		server    *Server
		registry  *sessionmemory.Registry
		embedder  *testutils.MockEmbedder
		generator *testutils.MockGenerator
		publisher *testutils.MockPublisher
	)

	BeforeEach(func() {
		registry = sessionmemory.NewRegistry(sessionmemory.Config{}, nil)
		embedder = testutils.NewMockEmbedder()
		generator = testutils.NewMockGenerator("Hel", "lo")
		publisher = testutils.NewMockPublisher()

		memoryFactory := func(string) (vector.Store, error) {
			return vecmemory.NewStore(), nil
		}

		ingestor, err := ingest.NewIngestor(ingest.Config{ChunkSize: 100, ChunkOverlap: 10}, embedder, memoryFactory, registry, publisher, nil)
		Expect(err).NotTo(HaveOccurred())
		pool, err := ingest.NewPool(ingest.PoolConfig{NumWorkers: 2}, ingestor, nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		augmentor := rag.NewAugmentor(rag.AugmentorConfig{TopK: 3}, registry, embedder, nil)
		streamer := rag.NewStreamer(generator, nil)

		server = NewServer(
			Config{ListenAddr: ":0", DefaultModel: "gpt-4.1-mini"},
			pool, augmentor, streamer, registry, publisher, nil,
		)
	})

	uploadRequest := func(filename, content, apiKey string) *http.Request {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)

		part, err := writer.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = io.WriteString(part, content)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.WriteField("api_key", apiKey)).To(Succeed())
		Expect(writer.Close()).To(Succeed())

		httpReq, err := http.NewRequest(http.MethodPost, "/api/upload", &body)
		Expect(err).NotTo(HaveOccurred())
		httpReq.Header.Set("Content-Type", writer.FormDataContentType())
		return httpReq
	}

	chatRequest := func(body any) *http.Request {
		payload, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		req, err := http.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	decodeError := func(resp *http.Response) llm.ErrorResponse {
		var body llm.ErrorResponse
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		return body
	}

	Describe("GET /api/health", func() {
		It("returns ok", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/health", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(MatchJSON(`{"status":"ok"}`))
		})
	})

	Describe("POST /api/upload", func() {
		It("ingests a document and returns its session id", func() {
			resp, err := server.app.Test(uploadRequest("doc.txt", "some document text", "sk-test"), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body UploadResponse
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body.Status).To(Equal("ok"))
			Expect(body.SessionID).NotTo(BeEmpty())

			_, err = registry.Get(body.SessionID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a request without a file part", func() {
			req, err := http.NewRequest(http.MethodPost, "/api/upload", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Kind).To(Equal("parse"))
		})

		It("maps credential failures to a structured 401", func() {
			embedder.FailOn = "secret doc"
			embedder.Err = fmt.Errorf("%w: bad key", llm.ErrAuthentication)

			resp, err := server.app.Test(uploadRequest("doc.txt", "secret doc", "bad-key"), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(decodeError(resp).Kind).To(Equal("authentication"))
		})
	})

	Describe("POST /api/chat", func() {
		It("streams the generation as markdown text", func() {
			resp, err := server.app.Test(chatRequest(ChatRequest{
				DeveloperMessage: "be helpful",
				UserMessage:      "hello",
				APIKey:           "sk-test",
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/markdown"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("Hello"))
		})

		It("rejects an empty user message", func() {
			resp, err := server.app.Test(chatRequest(ChatRequest{DeveloperMessage: "hi"}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Kind).To(Equal("parse"))
		})

		It("falls back to the default model", func() {
			resp, err := server.app.Test(chatRequest(ChatRequest{UserMessage: "hello"}), -1)
			Expect(err).NotTo(HaveOccurred())

			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(generator.Requests).To(HaveLen(1))
			Expect(generator.Requests[0].Model).To(Equal("gpt-4.1-mini"))
		})

		It("generates context-free for an unknown session id", func() {
			resp, err := server.app.Test(chatRequest(ChatRequest{
				UserMessage: "hello",
				SessionID:   "no-such-session",
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(Equal("Hello"))

			messages := generator.Requests[0].Messages
			Expect(messages).To(HaveLen(2))
			Expect(messages[0].Role).To(Equal(llm.RoleDeveloper))
		})

		It("augments the prompt with retrieved context from an ingested document", func() {
			resp, err := server.app.Test(uploadRequest("doc.txt", "folio is a retrieval service", "sk-test"), -1)
			Expect(err).NotTo(HaveOccurred())
			var upload UploadResponse
			Expect(json.NewDecoder(resp.Body).Decode(&upload)).To(Succeed())

			resp, err = server.app.Test(chatRequest(ChatRequest{
				UserMessage: "what is folio?",
				SessionID:   upload.SessionID,
			}), -1)
			Expect(err).NotTo(HaveOccurred())

			_, err = io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			messages := generator.Requests[0].Messages
			Expect(messages).To(HaveLen(3))
			Expect(messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(messages[0].Content).To(ContainSubstring("folio is a retrieval service"))
		})

		It("converts mid-stream provider failures into an in-band error fragment", func() {
			generator.StreamErr = fmt.Errorf("%w: upstream exploded", llm.ErrProvider)

			resp, err := server.app.Test(chatRequest(ChatRequest{UserMessage: "hello"}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(HavePrefix("Hello\n[ERROR] "))
		})
	})

	Describe("DELETE /api/session/:id", func() {
		It("removes the session and publishes a deletion event", func() {
			resp, err := server.app.Test(uploadRequest("doc.txt", "text", "sk-test"), -1)
			Expect(err).NotTo(HaveOccurred())
			var upload UploadResponse
			Expect(json.NewDecoder(resp.Body).Decode(&upload)).To(Succeed())

			req, err := http.NewRequest(http.MethodDelete, "/api/session/"+upload.SessionID, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err = server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			_, err = registry.Get(upload.SessionID)
			Expect(err).To(HaveOccurred())

			var deleted bool
			for _, ev := range publisher.Events() {
				if ev.Type == eventstream.TypeSessionDeleted && ev.SessionID == upload.SessionID {
					deleted = true
				}
			}
			Expect(deleted).To(BeTrue())
		})

		It("is idempotent for absent sessions", func() {
			req, err := http.NewRequest(http.MethodDelete, "/api/session/absent", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
