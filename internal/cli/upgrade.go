package cli

import (
	"fmt"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade <id> <file" + branding.PackageExt() + ">",
	Short: "Stage an upgrade prepared by install",
	Long: `Replace an installed plugin with the package staged by a previous install of
the same file. The replacement takes effect the next time plugins are loaded.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	id, path := args[0], args[1]

	s, err := load(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	existing, ok := s.manager.Get(id)
	if !ok {
		return fmt.Errorf("plugin %q is not installed", id)
	}
	if _, err := s.manager.Upgrade(commandContext(cmd), existing, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Upgrade of %s staged. It takes effect the next time plugins are loaded.\n", existing.Name)
	return nil
}
