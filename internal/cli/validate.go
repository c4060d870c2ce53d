package cli

import (
	"fmt"
	"os"

	"github.com/glossa-app/glossa/internal/branding"
	"github.com/glossa-app/glossa/internal/config"
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

var validateCmd = &cobra.Command{
	Use:   "validate <dir|" + branding.DescriptorFile() + ">",
	Short: "Check a plugin descriptor",
	Long: `Validate a ` + branding.DescriptorFile() + ` against the descriptor schema. Given an unpacked
package directory, also check that its entry module exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tag, err := language.Parse(config.Language()); err == nil {
			manifest.SetLanguage(tag)
		}
		return runValidate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, path string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Descriptor validation: %s\n", path)

	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("descriptor validation failed: %w", err)
	}

	if !result.Valid {
		fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
		for _, issue := range result.Issues {
			if issue.Path != "" {
				fmt.Fprintf(w, "    - %s: %s\n", issue.Path, issue.Message)
			} else {
				fmt.Fprintf(w, "    - %s\n", issue.Message)
			}
		}
		return fmt.Errorf("descriptor %s has %d validation issue(s)", path, len(result.Issues))
	}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		fmt.Fprintln(w, "  [ OK ] Valid descriptor")
		return nil
	}

	meta, err := manifest.LoadDir(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("package %s is not loadable: %w", path, err)
	}
	fmt.Fprintf(w, "  [ OK ] Valid package: %s (v%s), entry %s\n", meta.Name, meta.Version, meta.Entry)
	return nil
}
