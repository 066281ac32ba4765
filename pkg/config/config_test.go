package config

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "folio-config-test")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
	})

	It("falls back to defaults when no config file exists", func() {
		v, err := InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg := FromViper(v)
		Expect(cfg.API.Listen).To(Equal(":8080"))
		Expect(cfg.API.DefaultModel).To(Equal("gpt-4.1-mini"))
		Expect(cfg.Chunking.Size).To(Equal(1000))
		Expect(cfg.Chunking.Overlap).To(Equal(200))
		Expect(cfg.Retrieval.TopK).To(Equal(3))
		Expect(cfg.Embedding.Provider).To(Equal("openai"))
		Expect(cfg.Generation.Provider).To(Equal("openai"))
		Expect(cfg.VectorStore.Provider).To(Equal("memory"))
		Expect(cfg.Ingest.Workers).To(Equal(uint(3)))
		Expect(cfg.Events.Brokers).To(BeEmpty())
		Expect(cfg.Events.Topic).To(Equal("folio.sessions"))
	})

	It("applies config file values over defaults", func() {
		toml := `
[api]
listen = ":9090"

[chunking]
size = 500
overlap = 50

[sessions]
ttl = "30m"
max_sessions = 100

[events]
brokers = ["localhost:9092"]
`
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644)).To(Succeed())

		v, err := InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg := FromViper(v)
		Expect(cfg.API.Listen).To(Equal(":9090"))
		Expect(cfg.Chunking.Size).To(Equal(500))
		Expect(cfg.Chunking.Overlap).To(Equal(50))
		Expect(cfg.Sessions.TTL).To(Equal(30 * time.Minute))
		Expect(cfg.Sessions.MaxSessions).To(Equal(100))
		Expect(cfg.Events.Brokers).To(Equal([]string{"localhost:9092"}))

		// Untouched sections keep their defaults.
		Expect(cfg.API.DefaultModel).To(Equal("gpt-4.1-mini"))
		Expect(cfg.Retrieval.TopK).To(Equal(3))
	})

	It("applies environment variables over the config file", func() {
		toml := "[api]\nlisten = \":9090\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644)).To(Succeed())

		os.Setenv("FOLIO_API_LISTEN", ":7070")
		os.Setenv("FOLIO_VECTOR_STORE_PROVIDER", "sqlitevec")
		DeferCleanup(os.Unsetenv, "FOLIO_API_LISTEN")
		DeferCleanup(os.Unsetenv, "FOLIO_VECTOR_STORE_PROVIDER")

		v, err := InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg := FromViper(v)
		Expect(cfg.API.Listen).To(Equal(":7070"))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
	})

	It("rejects a malformed config file", func() {
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid toml"), 0o644)).To(Succeed())

		_, err := InitViper(dir)
		Expect(err).To(HaveOccurred())
	})
})
