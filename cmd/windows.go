package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWindowsCmd() *cobra.Command {
	var wf windowFlags

	cmd := &cobra.Command{
		Use:   "windows",
		Short: "Print the stay windows the next cycle would probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, &wf)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			windows, err := newGenerator(cfg).Generate(cmd.Context(), cfg.Windows)
			if err != nil {
				return err
			}
			for _, w := range windows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %d nights\n", w.StartDate(), w.EndDate(), w.Nights())
			}
			return nil
		},
	}

	wf.register(cmd)
	return cmd
}
