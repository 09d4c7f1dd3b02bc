// Package querycmder provides the query command for text-to-image retrieval
// over the embedding store.
package querycmder

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/cmd/driftlens/setup"
	"github.com/papercomputeco/driftlens/pkg/config"
	"github.com/papercomputeco/driftlens/pkg/logger"
	"github.com/papercomputeco/driftlens/pkg/retrieval"
	"github.com/papercomputeco/driftlens/pkg/search"
	"github.com/papercomputeco/driftlens/pkg/utils"
)

var (
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type queryCommander struct {
	text         string
	topK         int
	quiet        bool
	skipZeroNorm bool

	provider      string
	endpoint      string
	deployment    string
	region        string
	model         string
	maxAttempts   uint
	retryPolicy   string
	storeProvider string
	storeTarget   string
	collection    string

	configDir string
	cfg       *config.Config
	out       io.Writer
	logger    *zap.Logger
}

var flagKeys = []string{
	config.FlagInferenceProvider,
	config.FlagEndpoint,
	config.FlagDeployment,
	config.FlagRegion,
	config.FlagModel,
	config.FlagMaxAttempts,
	config.FlagRetryPolicy,
	config.FlagStoreProvider,
	config.FlagStoreTarget,
	config.FlagStoreCollection,
}

const queryLongDesc string = `Find the stored images closest to a text query.

The query text is embedded through the configured inference endpoint and
ranked against every record in the store by cosine similarity. Ties keep
store order.

Use --quiet to print only the source of each match, one per line.

Examples:
  driftlens query "a cat sleeping on a sofa"
  driftlens query "red car" --top 10
  driftlens query "x-ray with fracture" --quiet | xargs open`

const queryShortDesc string = "Search stored images by text"

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.logger = logger.NewLoggerWithWriters(debug, cmd.ErrOrStderr())
			cmder.out = cmd.OutOrStdout()

			if cmder.topK <= 0 {
				return fmt.Errorf("--top must be positive, got %d", cmder.topK)
			}

			var err error
			cmder.cfg, err = setup.LoadConfig(cmd, config.PurposeQuery, flagKeys, cmder.logger)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = cmder.logger.Sync() }()
			cmder.text = args[0]
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", retrieval.DefaultTopK, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Print only result sources, one per line")
	cmd.Flags().BoolVar(&cmder.skipZeroNorm, "skip-zero-norm", false, "Skip stored vectors with zero norm instead of failing")

	config.AddStringFlag(cmd, config.Flags, config.FlagInferenceProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagDeployment, &cmder.deployment)
	config.AddStringFlag(cmd, config.Flags, config.FlagRegion, &cmder.region)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxAttempts, &cmder.maxAttempts)
	config.AddStringFlag(cmd, config.Flags, config.FlagRetryPolicy, &cmder.retryPolicy)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreProvider, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreTarget, &cmder.storeTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreCollection, &cmder.collection)

	return cmd
}

func (c *queryCommander) run(ctx context.Context) error {
	client, inv, err := setup.NewClient(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer inv.Close()

	s, err := setup.NewStore(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	r := &retrieval.Retriever{
		Client:       client,
		Store:        s,
		Logger:       c.logger,
		SkipZeroNorm: c.skipZeroNorm,
	}

	results, err := r.Query(ctx, c.text, c.topK)
	if err != nil {
		return err
	}

	if c.quiet {
		for _, res := range results {
			fmt.Fprintln(c.out, res.Record.Source)
		}
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(c.out, "No records found.")
		return nil
	}

	fmt.Fprintf(c.out, "\n%s %s\n\n",
		headerStyle.Render("Results for:"),
		sourceStyle.Render(fmt.Sprintf("%q", c.text)),
	)
	for i, res := range results {
		c.printResult(i+1, res)
	}

	return nil
}

func (c *queryCommander) printResult(rank int, res search.Result) {
	fmt.Fprintf(c.out, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", res.Score)),
		sourceStyle.Render(res.Record.Source),
	)
	fmt.Fprintf(c.out, "  %s %s\n\n",
		labelStyle.Render(utils.Truncate(res.Record.Label, 60)),
		dimStyle.Render(res.Record.ID),
	)
}
