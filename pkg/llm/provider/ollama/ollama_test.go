package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliostack/folio/pkg/llm"
)

// ndjsonLine formats one chat fragment as Ollama's NDJSON wire format.
func ndjsonLine(content string, done bool) string {
	payload, _ := json.Marshal(map[string]any{
		"message": map[string]any{"role": "assistant", "content": content},
		"done":    done,
	})
	return fmt.Sprintf("%s\n", payload)
}

func drain(s llm.Stream) ([]string, error) {
	defer s.Close()

	var fragments []string
	for {
		fragment, err := s.Next()
		if err == io.EOF {
			return fragments, nil
		}
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, fragment)
	}
}

var _ = Describe("Generator", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	newGenerator := func() *Generator {
		g, err := NewGenerator(Config{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		return g
	}

	request := func(messages ...llm.Message) *llm.GenerateRequest {
		if len(messages) == 0 {
			messages = []llm.Message{llm.NewMessage(llm.RoleUser, "hello")}
		}
		return &llm.GenerateRequest{Model: "llama3.2", Messages: messages}
	}

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	Context("with a healthy upstream", func() {
		var gotBody chatRequest

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())

				w.Header().Set("Content-Type", "application/x-ndjson")
				io.WriteString(w, ndjsonLine("Hel", false))
				io.WriteString(w, ndjsonLine("lo", false))
				io.WriteString(w, ndjsonLine("", true))
			}))
		})

		It("yields fragments in order and ends at the done line", func() {
			stream, err := newGenerator().Generate(ctx, request())
			Expect(err).NotTo(HaveOccurred())

			fragments, err := drain(stream)
			Expect(err).NotTo(HaveOccurred())
			Expect(fragments).To(Equal([]string{"Hel", "lo"}))
		})

		It("downgrades the developer role to system", func() {
			stream, err := newGenerator().Generate(ctx, request(
				llm.NewMessage(llm.RoleDeveloper, "be terse"),
				llm.NewMessage(llm.RoleUser, "hello"),
			))
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			Expect(gotBody.Messages[0].Role).To(Equal(llm.RoleSystem))
			Expect(gotBody.Messages[1].Role).To(Equal(llm.RoleUser))
		})
	})

	Context("with provider failures", func() {
		It("maps a non-200 status to ErrProvider", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"error":"model not found"}`)
			}))

			_, err := newGenerator().Generate(ctx, request())
			Expect(err).To(MatchError(llm.ErrProvider))
			Expect(err.Error()).To(ContainSubstring("model not found"))
		})

		It("fails the stream on malformed NDJSON", func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				io.WriteString(w, ndjsonLine("ok", false))
				io.WriteString(w, "not json\n")
			}))

			stream, err := newGenerator().Generate(ctx, request())
			Expect(err).NotTo(HaveOccurred())

			fragments, err := drain(stream)
			Expect(fragments).To(Equal([]string{"ok"}))
			Expect(err).To(MatchError(llm.ErrProvider))
		})
	})
})
