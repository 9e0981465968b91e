package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recaplabs/recap/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("InitViper", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("applies defaults when no config file exists", func() {
		v, err := config.InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.LoadConfig(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":8082"))
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
		Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
		Expect(cfg.VectorStore.Collection).To(Equal("transcript_chunks"))
		Expect(cfg.Embedding.Model).To(Equal("all-minilm"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(384)))
		Expect(cfg.EventStream.Provider).To(Equal("nop"))
	})

	It("reads values from config.toml", func() {
		toml := `
[api]
listen = ":9999"

[vector_store]
provider = "qdrant"
target = "qdrant.internal"

[embedding]
model = "nomic-embed-text"
dimensions = 768
`
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600)).To(Succeed())

		v, err := config.InitViper(dir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.LoadConfig(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.Listen).To(Equal(":9999"))
		Expect(cfg.VectorStore.Provider).To(Equal("qdrant"))
		Expect(cfg.VectorStore.Target).To(Equal("qdrant.internal"))
		Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))

		// Untouched sections keep their defaults.
		Expect(cfg.Storage.Provider).To(Equal("sqlite"))
	})

	It("lets environment variables override the config file", func() {
		toml := "[api]\nlisten = \":9999\"\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o600)).To(Succeed())

		GinkgoT().Setenv("RECAP_API_LISTEN", ":7777")
		GinkgoT().Setenv("RECAP_VECTOR_STORE_PROVIDER", "memory")

		v, err := config.InitViper(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
		Expect(v.GetString("vector_store.provider")).To(Equal("memory"))
	})

	It("rejects malformed TOML", func() {
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0o600)).To(Succeed())

		_, err := config.InitViper(dir)
		Expect(err).To(HaveOccurred())
	})
})
