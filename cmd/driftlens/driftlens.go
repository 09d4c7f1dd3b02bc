// Package driftlenscmder
package driftlenscmder

import (
	"github.com/spf13/cobra"

	comparecmder "github.com/papercomputeco/driftlens/cmd/driftlens/compare"
	configcmder "github.com/papercomputeco/driftlens/cmd/driftlens/config"
	ingestcmder "github.com/papercomputeco/driftlens/cmd/driftlens/ingest"
	initcmder "github.com/papercomputeco/driftlens/cmd/driftlens/init"
	querycmder "github.com/papercomputeco/driftlens/cmd/driftlens/query"
	versioncmder "github.com/papercomputeco/driftlens/cmd/driftlens/version"
)

const driftlensLongDesc string = `driftlens measures how far image datasets drift apart.

Images are embedded through a remote inference endpoint. Two sets can be
compared with a kernel two-sample statistic, and a labeled dataset can be
ingested into an embedding store and searched by text.

  driftlens compare --a <set A> --b <set B>   Measure drift between two sets
  driftlens ingest <dir> --label <label>      Embed and store a dataset
  driftlens query <text>                      Search stored images by text
  driftlens config set|get|list               Manage configuration`

const driftlensShortDesc string = "driftlens - embedding drift for image datasets"

func NewDriftlensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "driftlens",
		Short:        driftlensShortDesc,
		Long:         driftlensLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .driftlens/ directory")

	cmd.AddCommand(comparecmder.NewCompareCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
