package logger_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recaplabs/recap/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("NewLoggerWithWriters", func() {
	It("writes formatted entries to the given writer", func() {
		var buf bytes.Buffer

		log := logger.NewLoggerWithWriters(false, &buf)
		log.Info("hello from recap")
		log.Sync()

		Expect(buf.String()).To(ContainSubstring("hello from recap"))
		Expect(buf.String()).To(ContainSubstring("INFO"))
	})

	It("suppresses debug entries unless debug is enabled", func() {
		var buf bytes.Buffer

		log := logger.NewLoggerWithWriters(false, &buf)
		log.Debug("hidden")
		log.Sync()
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))

		log = logger.NewLoggerWithWriters(true, &buf)
		log.Debug("visible")
		log.Sync()
		Expect(buf.String()).To(ContainSubstring("visible"))
	})
})
