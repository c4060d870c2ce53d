package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove staged packages",
	Long:  `Delete the staging root, including packages staged for an upgrade that was never confirmed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.manager.CleanupStaging(commandContext(cmd)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", s.manager.Layout().Staging)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
