package main

import (
	"os"

	"github.com/joelkehle/patentmate/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	cfg := &config.Config{}
	root := &cobra.Command{
		Use:          "patentmate",
		Short:        "Patent ability search, disclosure analysis and final reports",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if err := config.InitLogger(loaded.Log); err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	root.AddCommand(
		serveCmd(cfg),
		renderCmd(cfg),
		ingestCmd(cfg),
	)
	return root
}
