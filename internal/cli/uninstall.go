package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <id>",
	Short: "Remove an installed plugin",
	Long: `Remove a plugin from the registry. Its install, settings and cache
directories are deleted the next time plugins are loaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	id := args[0]

	s, err := load(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	meta, ok := s.manager.Get(id)
	if !ok {
		return fmt.Errorf("plugin %q is not installed", id)
	}
	if _, err := s.manager.Uninstall(commandContext(cmd), meta); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", meta.Name, meta.ID)
	return nil
}
