package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Rebuilds the entries file from every configured source",
		Long: `Harvest walks the configured meets in order, selects an adapter for each
source by its shape, and writes a fresh entries file. Fetched documents and
registry lookups are checkpointed to the cache file as they happen, so a
failed run resumes where it stopped.`,
		RunE: runHarvest,
	}
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	h, err := appInstance.Harvester()
	if err != nil {
		return err
	}
	e, err := h.Run(cmd.Context())
	if err != nil {
		return err
	}
	appInstance.Logger().Info("harvest complete",
		zap.Int("meets", len(e)),
		zap.Int("events", e.EventCount()),
		zap.Int("entrants", e.EntrantCount()),
	)
	return nil
}
