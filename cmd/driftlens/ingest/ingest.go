// Package ingestcmder provides the ingest command, which embeds a dataset
// and persists one record per image.
package ingestcmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/cmd/driftlens/setup"
	"github.com/papercomputeco/driftlens/pkg/cliui"
	"github.com/papercomputeco/driftlens/pkg/config"
	"github.com/papercomputeco/driftlens/pkg/dataset"
	"github.com/papercomputeco/driftlens/pkg/ingest"
	"github.com/papercomputeco/driftlens/pkg/logger"
)

type ingestCommander struct {
	label string
	exts  []string
	index bool

	provider       string
	endpoint       string
	deployment     string
	region         string
	model          string
	maxAttempts    uint
	circuitBreaker bool
	retryPolicy    string
	storeProvider  string
	storeTarget    string
	collection     string
	eventsProvider string
	eventsBrokers  string
	workers        uint

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
	config.FlagCircuitBreaker,
	config.FlagRetryPolicy,
	config.FlagStoreProvider,
	config.FlagStoreTarget,
	config.FlagStoreCollection,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
	config.FlagWorkers,
}

const ingestLongDesc string = `Embed a dataset and store one record per image.

Each argument is a file or a directory searched recursively for --ext files.
Every image is embedded with --label and written to the configured store as
{id, embedding, text, filename}. With --index the record is also uploaded to
the configured search index, and with events.provider = kafka a
record-ingested event is published for it.

A failed item is logged and skipped; the rest of the batch continues.

Examples:
  driftlens ingest dataset/cats --label cats
  driftlens ingest dataset/ --label animals --ext .jpeg --workers 4
  driftlens ingest dataset/dogs --label dogs --index --store-provider qdrant --store-target localhost:6334`

const ingestShortDesc string = "Embed and store a dataset"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.logger = logger.NewLoggerWithWriters(debug, cmd.ErrOrStderr())
			cmder.out = cmd.OutOrStdout()

			purpose := config.PurposeIngest
			if cmder.index {
				purpose = config.PurposeIndex
			}

			var err error
			cmder.cfg, err = setup.LoadConfig(cmd, purpose, flagKeys, cmder.logger)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer func() { _ = cmder.logger.Sync() }()
			return cmder.run(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&cmder.label, "label", "l", "", "Label stored as the record text")
	cmd.Flags().StringSliceVar(&cmder.exts, "ext", dataset.DefaultExtensions, "File extensions searched for in directories")
	cmd.Flags().BoolVar(&cmder.index, "index", false, "Also upload each record to the search index")
	_ = cmd.MarkFlagRequired("label")

	config.AddStringFlag(cmd, config.Flags, config.FlagInferenceProvider, &cmder.provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagDeployment, &cmder.deployment)
	config.AddStringFlag(cmd, config.Flags, config.FlagRegion, &cmder.region)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxAttempts, &cmder.maxAttempts)
	config.AddBoolFlag(cmd, config.Flags, config.FlagCircuitBreaker, &cmder.circuitBreaker)
	config.AddStringFlag(cmd, config.Flags, config.FlagRetryPolicy, &cmder.retryPolicy)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreProvider, &cmder.storeProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreTarget, &cmder.storeTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreCollection, &cmder.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsBrokers, &cmder.eventsBrokers)
	config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &cmder.workers)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, args []string) error {
	paths, err := dataset.Expand(args, c.exts)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return dataset.ErrNoInputs
	}

	items, err := dataset.LoadItems(paths, c.label)
	if err != nil {
		return err
	}

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

	publisher, err := setup.NewPublisher(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	ingestCfg := &ingest.Config{
		Client:     client,
		Store:      s,
		Publisher:  publisher,
		NumWorkers: c.cfg.Ingest.Workers,
		Logger:     c.logger,
	}

	if c.index {
		idx, err := setup.NewIndex(c.cfg, c.logger)
		if err != nil {
			return err
		}
		defer idx.Close()
		ingestCfg.Index = idx
	}

	ingester, err := ingest.NewIngester(ingestCfg)
	if err != nil {
		return err
	}

	var summary *ingest.Summary
	msg := fmt.Sprintf("Ingesting %d images into %s", len(items), c.cfg.Store.Provider)
	err = cliui.Step(c.out, msg, func() error {
		var rerr error
		summary, rerr = ingester.Run(ctx, items)
		return rerr
	})

	if summary != nil {
		fmt.Fprintln(c.out)
		cliui.KeyValue(c.out, "stored", fmt.Sprintf("%d/%d", summary.Stored, summary.Total))
		if summary.EmbedFailed > 0 {
			cliui.Warn(c.out, fmt.Sprintf("%d items failed to embed (positions %v)", summary.EmbedFailed, summary.Missing))
		}
		if summary.StoreFailed > 0 {
			cliui.Warn(c.out, fmt.Sprintf("%d records failed to store", summary.StoreFailed))
		}
		if summary.IndexFailed > 0 {
			cliui.Warn(c.out, fmt.Sprintf("%d records failed to index", summary.IndexFailed))
		}
		if summary.PublishFailed > 0 {
			cliui.Warn(c.out, fmt.Sprintf("%d events failed to publish", summary.PublishFailed))
		}
	}

	return err
}
