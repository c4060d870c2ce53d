package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/glossa-app/glossa/internal/plugin"
	"github.com/spf13/cobra"
)

var installYes bool

var installCmd = &cobra.Command{
	Use:   "install <file" + branding.PackageExt() + ">",
	Short: "Install a plugin package",
	Long: `Install a plugin package file. If an older version of the same plugin is
installed, you are asked whether to upgrade; upgrades take effect the next
time plugins are loaded.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := commandContext(cmd)

	s, err := load(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := s.manager.Install(ctx, path)
	switch out.Kind {
	case plugin.OutcomeSuccess:
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", out.Message)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", out.Metadata.Directory)
		return nil

	case plugin.OutcomeUpgradeRequired:
		fmt.Fprintf(cmd.OutOrStdout(), "%s ", out.Message)
		if !installYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout()) {
			fmt.Fprintln(cmd.OutOrStdout(), "Upgrade cancelled. Run `"+branding.CLIName()+" clean` to discard the staged package.")
			return nil
		}
		if installYes {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if _, err := s.manager.Upgrade(ctx, out.Existing, path); err != nil {
			return fmt.Errorf("staging upgrade: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Upgrade of %s staged. It takes effect the next time plugins are loaded.\n", out.Existing.Name)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n", out.Message)
	return out.Err
}

// confirm asks a Y/n question on r. An empty answer means yes.
func confirm(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, "(Y/n) ")
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		fmt.Fprintln(w)
		return false
	}
	answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return answer == "" || answer == "y" || answer == "yes"
}
