package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/diamond-entries/internal/clock/system"
	"github.com/JakeFAU/diamond-entries/internal/dataset"
	"github.com/JakeFAU/diamond-entries/internal/storage/local"
)

func newCalendarCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Exports the dated events of the entries file as iCalendar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config()
			e, err := dataset.Load(cfg.Dataset.Path)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := dataset.WriteCalendar(&buf, e, system.New().Now(), cfg.Location()); err != nil {
				return err
			}
			if output == "" {
				output = cfg.Dataset.CalendarPath
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := local.WriteFile(output, buf.Bytes()); err != nil {
				return fmt.Errorf("write calendar: %w", err)
			}
			appInstance.Logger().Info("calendar written", zap.String("path", output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path, \"-\" for stdout (default dataset.calendar_path)")
	return cmd
}
