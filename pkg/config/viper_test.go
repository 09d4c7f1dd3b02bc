package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/driftlens/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("inference.provider")).To(Equal(defaults.Inference.Provider))
		Expect(v.GetString("store.provider")).To(Equal(defaults.Store.Provider))
		Expect(v.GetUint("inference.max_attempts")).To(Equal(defaults.Inference.MaxAttempts))
	})

	It("reads config file values over defaults", func() {
		writeConfig(tmpDir, `[inference]
endpoint = "https://ml.example.com/score"
`)

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("inference.endpoint")).To(Equal("https://ml.example.com/score"))
		Expect(v.GetString("retry.policy")).To(Equal(config.RetryPolicyBackoff))
	})

	It("env vars take precedence over config file values", func() {
		writeConfig(tmpDir, `[store]
provider = "redis"
`)
		os.Setenv("DRIFTLENS_STORE_PROVIDER", "qdrant")
		defer os.Unsetenv("DRIFTLENS_STORE_PROVIDER")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("store.provider")).To(Equal("qdrant"))
	})

	It("loads a .env file from the config dir", func() {
		err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("DRIFTLENS_INFERENCE_API_KEY=from-dotenv\n"), 0o600)
		Expect(err).NotTo(HaveOccurred())
		defer os.Unsetenv("DRIFTLENS_INFERENCE_API_KEY")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("inference.api_key")).To(Equal("from-dotenv"))
	})

	It("does not let .env override the process environment", func() {
		err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("DRIFTLENS_INFERENCE_REGION=from-dotenv\n"), 0o600)
		Expect(err).NotTo(HaveOccurred())
		os.Setenv("DRIFTLENS_INFERENCE_REGION", "from-env")
		defer os.Unsetenv("DRIFTLENS_INFERENCE_REGION")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("inference.region")).To(Equal("from-env"))
	})
})

var _ = Describe("FromViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "fromviper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("materializes defaults", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("reports a malformed environment value", func() {
		os.Setenv("DRIFTLENS_INGEST_WORKERS", "lots")
		defer os.Unsetenv("DRIFTLENS_INGEST_WORKERS")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(MatchError(ContainSubstring("ingest.workers")))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.Flags, config.FlagStoreTarget, &target)

		Expect(cmd.Flags().Set("store-target", "localhost:6334")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagStoreTarget})

		Expect(v.GetString("store.target")).To(Equal("localhost:6334"))
	})

	It("falls through to config when flag not set", func() {
		writeConfig(tmpDir, `[ingest]
workers = 6
`)
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var workers uint
		config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &workers)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagWorkers})

		Expect(v.GetUint("ingest.workers")).To(Equal(uint(6)))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("store.provider")).To(Equal("sqlite"))
	})

	It("pulls name, shorthand, default and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var workers uint
		var breaker bool
		config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &workers)
		config.AddBoolFlag(cmd, config.Flags, config.FlagCircuitBreaker, &breaker)

		f := cmd.Flags().Lookup("workers")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("w"))
		Expect(f.DefValue).To(Equal("1"))
		Expect(f.Usage).To(Equal("Concurrent ingestion workers"))

		b := cmd.Flags().Lookup("circuit-breaker")
		Expect(b).NotTo(BeNil())
		Expect(b.DefValue).To(Equal("false"))
	})
})
