package cmd

import "github.com/spf13/cobra"

func newRunCmd() *cobra.Command {
	var review bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvests, then filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runHarvest(cmd, args); err != nil {
				return err
			}
			return runFilter(cmd, review)
		},
	}
	cmd.Flags().BoolVar(&review, "review", false, "run the filter stage in review mode")
	return cmd
}
