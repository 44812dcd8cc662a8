package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/merchantiq/docverify/internal/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Load", func() {
	var (
		dir      string
		confPath string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "docverify-config-test")
		Expect(err).NotTo(HaveOccurred())
		confPath = filepath.Join(dir, "config.yaml")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	writeConfig := func(contents string) {
		Expect(os.WriteFile(confPath, []byte(contents), 0o644)).To(Succeed())
	}

	Context("when the config file does not exist", func() {
		It("returns an error mentioning the read failure", func() {
			_, err := config.Load(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to read config file"))
		})
	})

	Context("when the config file is not valid YAML", func() {
		It("returns an error mentioning the parse failure", func() {
			writeConfig("intake:\n  max_upload_size: [this, is, not, a, number\n")
			_, err := config.Load(confPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
		})
	})

	Context("when the config file is valid", func() {
		It("loads and fills in defaults for unspecified fields", func() {
			writeConfig(`
intake:
  upload_dir: /var/docverify/uploads
registry:
  company_house:
    base_url: https://api.companieshouse.gov.uk
    api_key: ch-test-key
`)
			cfg, err := config.Load(confPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Intake.UploadDir).To(Equal("/var/docverify/uploads"))
			Expect(cfg.Registry.CompanyHouse.APIKey).To(Equal("ch-test-key"))

			// defaults survive when the file does not override them
			Expect(cfg.Worker.PoolSize).To(Equal(5))
			Expect(cfg.OCR.MaxPageConcurrent).To(Equal(5))
			Expect(cfg.Logging.Level).To(Equal("info"))
		})

		It("rejects a pool size of zero", func() {
			writeConfig(`
worker:
  pool_size: 0
`)
			_, err := config.Load(confPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("worker.pool_size"))
		})

		It("rejects an unsupported LLM provider when the LLM port is enabled", func() {
			writeConfig(`
llm:
  enabled: true
  provider: chatgpt
`)
			_, err := config.Load(confPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported LLM provider"))
		})

		It("requires a queue URL when use_queue is true", func() {
			writeConfig(`
intake:
  use_queue: true
`)
			_, err := config.Load(confPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("queue.url is required"))
		})
	})

	Context("environment variable overrides", func() {
		It("leaves the config unchanged when no relevant env vars are set", func() {
			writeConfig(`
intake:
  upload_dir: /var/docverify/uploads
`)
			before, err := config.Load(confPath)
			Expect(err).NotTo(HaveOccurred())

			after, err := config.Load(confPath)
			Expect(err).NotTo(HaveOccurred())

			Expect(after).To(Equal(before))
		})

		It("overrides the upload directory from UPLOAD_DIR", func() {
			writeConfig(`
intake:
  upload_dir: /var/docverify/uploads
`)
			os.Setenv("UPLOAD_DIR", "/mnt/docverify-uploads")
			defer os.Unsetenv("UPLOAD_DIR")

			cfg, err := config.Load(confPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Intake.UploadDir).To(Equal("/mnt/docverify-uploads"))
		})

		It("overrides MAX_UPLOAD_SIZE and rejects a non-numeric value", func() {
			writeConfig("intake:\n  upload_dir: /tmp\n")

			os.Setenv("MAX_UPLOAD_SIZE", "not-a-number")
			defer os.Unsetenv("MAX_UPLOAD_SIZE")

			_, err := config.Load(confPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to parse config file"))
		})

		It("overrides the worker pool size from WORKER_POOL_SIZE", func() {
			writeConfig("intake:\n  upload_dir: /tmp\n")

			os.Setenv("WORKER_POOL_SIZE", "12")
			defer os.Unsetenv("WORKER_POOL_SIZE")

			cfg, err := config.Load(confPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Worker.PoolSize).To(Equal(12))
		})

		It("overrides registry credentials from the environment", func() {
			writeConfig("intake:\n  upload_dir: /tmp\n")

			os.Setenv("COMPANIES_HOUSE_API_KEY", "env-ch-key")
			os.Setenv("HMRC_CLIENT_ID", "env-client-id")
			os.Setenv("HMRC_CLIENT_SECRET", "env-client-secret")
			defer func() {
				os.Unsetenv("COMPANIES_HOUSE_API_KEY")
				os.Unsetenv("HMRC_CLIENT_ID")
				os.Unsetenv("HMRC_CLIENT_SECRET")
			}()

			cfg, err := config.Load(confPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Registry.CompanyHouse.APIKey).To(Equal("env-ch-key"))
			Expect(cfg.Registry.VAT.ClientID).To(Equal("env-client-id"))
			Expect(cfg.Registry.VAT.ClientSecret).To(Equal("env-client-secret"))
		})
	})
})
