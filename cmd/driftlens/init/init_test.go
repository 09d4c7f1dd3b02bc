package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/driftlens/cmd/driftlens/init"
	"github.com/papercomputeco/driftlens/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(out)
		cmd.SetArgs(append([]string{}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "driftlens-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates the .driftlens directory", func() {
		Expect(run()).To(Succeed())
		Expect(filepath.Join(tmpDir, ".driftlens")).To(BeADirectory())
		Expect(out.String()).To(ContainSubstring("Initialized"))
	})

	It("is idempotent", func() {
		Expect(run()).To(Succeed())
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})

	It("writes the preset config", func() {
		Expect(run("--preset", "bedrock")).To(Succeed())

		var cfg config.Config
		_, err := toml.DecodeFile(filepath.Join(tmpDir, ".driftlens", "config.toml"), &cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Inference.Provider).To(Equal("bedrock"))
		Expect(cfg.Inference.Region).To(Equal("us-east-1"))
	})

	It("keeps an existing config", func() {
		dir := filepath.Join(tmpDir, ".driftlens")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[store]\nprovider = \"redis\"\n"), 0o600)).To(Succeed())

		Expect(run("--preset", "azureml")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("redis"))
		Expect(out.String()).To(ContainSubstring("Keeping existing config"))
	})

	It("rejects an unknown preset before touching the filesystem", func() {
		Expect(run("--preset", "ollama")).To(MatchError(ContainSubstring("unknown preset")))
		_, err := os.Stat(filepath.Join(tmpDir, ".driftlens"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
