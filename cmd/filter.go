package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFilterCmd() *cobra.Command {
	var review bool
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Prunes the entries file against the roster listings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd, review)
		},
	}
	cmd.Flags().BoolVar(&review, "review", false, "keep only entrants whose listing line carries the confirmation marker")
	return cmd
}

func runFilter(cmd *cobra.Command, review bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	f, err := appInstance.Filterer()
	if err != nil {
		return err
	}
	e, stats, err := f.Run(cmd.Context(), review)
	if err != nil {
		return err
	}
	appInstance.Logger().Info("filter complete",
		zap.Bool("review", review),
		zap.Int("kept", stats.Kept),
		zap.Int("dropped", stats.Dropped),
		zap.Int("entrants", e.EntrantCount()),
	)
	return nil
}
