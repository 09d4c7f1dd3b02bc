package driftlenscmder_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	driftlenscmder "github.com/papercomputeco/driftlens/cmd/driftlens"
	"github.com/papercomputeco/driftlens/pkg/config"
	"github.com/papercomputeco/driftlens/pkg/drift"
	testutils "github.com/papercomputeco/driftlens/pkg/utils/test"
)

var _ = Describe("NewDriftlensCmd", func() {
	It("registers every subcommand", func() {
		cmd := driftlenscmder.NewDriftlensCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("compare", "ingest", "query", "config", "init", "version"))
	})

	It("has global debug and config-dir flags", func() {
		cmd := driftlenscmder.NewDriftlensCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

var _ = Describe("driftlens commands", func() {
	var (
		configDir string
		dataDir   string
		mock      *testutils.MockInvoker
		server    *httptest.Server
		out       *bytes.Buffer
	)

	writeImage := func(dir, name, content string) string {
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		p := filepath.Join(dir, name)
		Expect(os.WriteFile(p, []byte(content), 0o600)).To(Succeed())
		return p
	}

	run := func(args ...string) error {
		cmd := driftlenscmder.NewDriftlensCmd()
		cmd.SetOut(out)
		cmd.SetErr(GinkgoWriter)
		cmd.SetArgs(append([]string{"--config-dir", configDir}, args...))
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		configDir, err = os.MkdirTemp("", "driftlens-cmd-config-*")
		Expect(err).NotTo(HaveOccurred())
		dataDir, err = os.MkdirTemp("", "driftlens-cmd-data-*")
		Expect(err).NotTo(HaveOccurred())

		mock = testutils.NewMockInvoker()
		mock.Vectors["cat1"] = []float64{1, 0}
		mock.Vectors["cat2"] = []float64{0, 1}
		mock.Vectors["a cat"] = []float64{1, 0.1}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			resp, err := mock.Invoke(r.Context(), body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_, _ = w.Write(resp)
		}))

		cfg := fmt.Sprintf(`[inference]
endpoint = %q
api_key = "test-key"

[retry]
policy = "immediate"
`, server.URL)
		Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(cfg), 0o600)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(configDir)
		os.RemoveAll(dataDir)
	})

	Describe("compare", func() {
		It("reports zero divergence for identical sets", func() {
			a := filepath.Join(dataDir, "a")
			b := filepath.Join(dataDir, "b")
			writeImage(a, "1.jpeg", "cat1")
			writeImage(a, "2.jpeg", "cat2")
			writeImage(b, "1.jpeg", "cat1")
			writeImage(b, "2.jpeg", "cat2")

			Expect(run("compare", "--a", a, "--b", b, "--label", "cats")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("0.000000"))
			Expect(out.String()).To(ContainSubstring("2/2 embedded"))
		})

		It("aborts on a missing embedding by default", func() {
			mock.FailOn = "cat2"
			a := writeImage(filepath.Join(dataDir, "a"), "1.jpeg", "cat1")
			b1 := writeImage(filepath.Join(dataDir, "b"), "1.jpeg", "cat1")
			b2 := writeImage(filepath.Join(dataDir, "b"), "2.jpeg", "cat2")

			err := run("compare", "--a", a, "--b", b1, "--b", b2)
			Expect(err).To(MatchError(drift.ErrMissingEmbeddings))
		})

		It("drops missing embeddings when asked", func() {
			mock.FailOn = "cat2"
			a := writeImage(filepath.Join(dataDir, "a"), "1.jpeg", "cat1")
			b1 := writeImage(filepath.Join(dataDir, "b"), "1.jpeg", "cat1")
			b2 := writeImage(filepath.Join(dataDir, "b"), "2.jpeg", "cat2")

			Expect(run("compare", "--a", a, "--b", b1, "--b", b2, "--on-missing", "drop", "--report")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("1/2 embedded"))
			Expect(out.String()).To(ContainSubstring("1 items dropped"))
		})

		It("rejects an unknown missing policy", func() {
			a := writeImage(filepath.Join(dataDir, "a"), "1.jpeg", "cat1")
			Expect(run("compare", "--a", a, "--b", a, "--on-missing", "ignore")).To(MatchError(ContainSubstring("unknown missing policy")))
		})

		It("fails before any call when settings are missing", func() {
			Expect(os.Remove(filepath.Join(configDir, "config.toml"))).To(Succeed())
			a := writeImage(filepath.Join(dataDir, "a"), "1.jpeg", "cat1")

			Expect(run("compare", "--a", a, "--b", a)).To(MatchError(config.ErrMissingSetting))
			Expect(mock.CallCount()).To(Equal(0))
		})
	})

	Describe("ingest and query", func() {
		It("stores a dataset and retrieves the closest image", func() {
			cats := filepath.Join(dataDir, "cats")
			writeImage(cats, "cat-1.jpeg", "cat1")
			writeImage(cats, "cat-2.jpeg", "cat2")
			writeImage(cats, "notes.txt", "ignored")

			Expect(run("ingest", cats, "--label", "cats", "--workers", "2")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("2/2"))
			Expect(filepath.Join(configDir, config.DefaultSQLiteFile)).To(BeAnExistingFile())

			out.Reset()
			Expect(run("query", "a cat", "--top", "1", "--quiet")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("cat-1.jpeg"))
			Expect(out.String()).NotTo(ContainSubstring("cat-2.jpeg"))

			out.Reset()
			Expect(run("query", "a cat")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("#1"))
			Expect(out.String()).To(ContainSubstring("#2"))
		})

		It("continues past a failed item", func() {
			mock.FailOn = "cat2"
			cats := filepath.Join(dataDir, "cats")
			writeImage(cats, "cat-1.jpeg", "cat1")
			writeImage(cats, "cat-2.jpeg", "cat2")

			Expect(run("ingest", cats, "--label", "cats")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("1/2"))
			Expect(out.String()).To(ContainSubstring("failed to embed"))
		})

		It("requires search index settings with --index", func() {
			cats := filepath.Join(dataDir, "cats")
			writeImage(cats, "cat-1.jpeg", "cat1")

			Expect(run("ingest", cats, "--label", "cats", "--index")).To(MatchError(config.ErrMissingSetting))
		})

		It("rejects a non-positive top", func() {
			Expect(run("query", "a cat", "--top", "0")).To(HaveOccurred())
		})

		It("reports an empty store", func() {
			Expect(run("query", "a cat")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No records found."))
		})
	})
})
