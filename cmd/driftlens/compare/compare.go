// Package comparecmder provides the compare command, which measures how far
// two sets of images have drifted apart in embedding space.
package comparecmder

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/cmd/driftlens/setup"
	"github.com/papercomputeco/driftlens/pkg/cliui"
	"github.com/papercomputeco/driftlens/pkg/config"
	"github.com/papercomputeco/driftlens/pkg/dataset"
	"github.com/papercomputeco/driftlens/pkg/drift"
	"github.com/papercomputeco/driftlens/pkg/embeddings"
	"github.com/papercomputeco/driftlens/pkg/logger"
)

type compareCommander struct {
	setA      []string
	setB      []string
	label     string
	exts      []string
	onMissing string
	report    bool

	// Registry-backed flags, bound to viper in PreRunE.
	provider       string
	endpoint       string
	deployment     string
	region         string
	model          string
	maxAttempts    uint
	circuitBreaker bool
	retryPolicy    string

	cfg    *config.Config
	policy drift.MissingPolicy
	out    io.Writer
	logger *zap.Logger
}

var flagKeys = []string{
	config.FlagInferenceProvider,
	config.FlagEndpoint,
	config.FlagDeployment,
	config.FlagRegion,
	config.FlagModel,
	config.FlagMaxAttempts,
	config.FlagCircuitBreaker,
	config.FlagRetryPolicy,
}

const compareLongDesc string = `Compare two sets of images.

Every image in set A and set B is embedded through the configured inference
endpoint, and the maximum mean discrepancy (RBF kernel, biased estimator)
between the two sets of embeddings is printed. Zero means the sets are
indistinguishable; larger values mean more drift.

Arguments to --a and --b may be files or directories. Directories are searched
recursively for --ext files.

Items that still fail after the retry budget abort the comparison unless
--on-missing drop is given, in which case they are excluded and listed.

Examples:
  driftlens compare --a dataset/train --b dataset/prod
  driftlens compare --a a1.jpeg --a a2.jpeg --b b1.jpeg --label cats
  driftlens compare --a train/ --b prod/ --on-missing drop --report`

const compareShortDesc string = "Measure drift between two image sets"

func NewCompareCmd() *cobra.Command {
	cmder := &compareCommander{}

	cmd := &cobra.Command{
		Use:   "compare",
		Short: compareShortDesc,
		Long:  compareLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			cmder.logger = logger.NewLoggerWithWriters(debug, cmd.ErrOrStderr())
			cmder.out = cmd.OutOrStdout()

			var err error
			cmder.policy, err = drift.ParseMissingPolicy(cmder.onMissing)
			if err != nil {
				return err
			}

			cmder.cfg, err = setup.LoadConfig(cmd, config.PurposeCompare, flagKeys, cmder.logger)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() { _ = cmder.logger.Sync() }()
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&cmder.setA, "a", nil, "Set A files or directories (repeatable)")
	cmd.Flags().StringSliceVar(&cmder.setB, "b", nil, "Set B files or directories (repeatable)")
	cmd.Flags().StringVarP(&cmder.label, "label", "l", "", "Label sent with every image")
	cmd.Flags().StringSliceVar(&cmder.exts, "ext", dataset.DefaultExtensions, "File extensions searched for in directories")
	cmd.Flags().StringVar(&cmder.onMissing, "on-missing", drift.AbortOnMissing.String(), "What to do with items that produce no embedding (abort, drop)")
	cmd.Flags().BoolVar(&cmder.report, "report", false, "Print a markdown report")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")

	config.AddStringFlag(cmd, config.Flags, config.FlagInferenceProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagDeployment, &cmder.deployment)
	config.AddStringFlag(cmd, config.Flags, config.FlagRegion, &cmder.region)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxAttempts, &cmder.maxAttempts)
	config.AddBoolFlag(cmd, config.Flags, config.FlagCircuitBreaker, &cmder.circuitBreaker)
	config.AddStringFlag(cmd, config.Flags, config.FlagRetryPolicy, &cmder.retryPolicy)

	return cmd
}

func (c *compareCommander) loadSet(name string, args []string) ([]embeddings.Item, error) {
	paths, err := dataset.Expand(args, c.exts)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", name, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("set %s: %w", name, dataset.ErrNoInputs)
	}
	return dataset.LoadItems(paths, c.label)
}

func (c *compareCommander) run(ctx context.Context) error {
	a, err := c.loadSet("A", c.setA)
	if err != nil {
		return err
	}
	b, err := c.loadSet("B", c.setB)
	if err != nil {
		return err
	}

	client, inv, err := setup.NewClient(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer inv.Close()

	comparer := &drift.Comparer{Client: client, Logger: c.logger}

	var report *drift.Report
	msg := fmt.Sprintf("Embedding and comparing %d + %d images", len(a), len(b))
	err = cliui.Step(c.out, msg, func() error {
		var cerr error
		report, cerr = comparer.Compare(ctx, a, b, c.policy)
		return cerr
	})
	if err != nil {
		var me *drift.MissingError
		if errors.As(err, &me) {
			cliui.Warn(c.out, "rerun with --on-missing drop to compare the items that did embed")
		}
		return err
	}

	fmt.Fprintln(c.out)
	cliui.KeyValue(c.out, "divergence", fmt.Sprintf("%.6f", report.Divergence))
	cliui.KeyValue(c.out, "set A", fmt.Sprintf("%d/%d embedded", report.UsedA, report.SizeA))
	cliui.KeyValue(c.out, "set B", fmt.Sprintf("%d/%d embedded", report.UsedB, report.SizeB))
	if n := len(report.MissingA) + len(report.MissingB); n > 0 {
		cliui.Warn(c.out, fmt.Sprintf("%d items dropped", n))
	}

	if c.report {
		rendered, err := cliui.RenderMarkdown(report.Markdown())
		if err != nil {
			c.logger.Debug("markdown rendering failed, printing raw report", zap.Error(err))
		}
		fmt.Fprintln(c.out, rendered)
	}

	return nil
}
