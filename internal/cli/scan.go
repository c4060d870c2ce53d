package cli

import (
	"fmt"
	"path/filepath"

	"github.com/glossa-app/glossa/internal/discovery"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover plugins and report problems",
	Long: `Run discovery over the preinstalled and user roots. Pending deletes and
upgrades are completed first; then duplicates, excluded directories and
plugins that failed to load are reported.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.manager.Load(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("loading packages: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, r *discovery.Report) {
	w := cmd.OutOrStdout()

	for _, dir := range r.Deleted {
		fmt.Fprintf(w, "[DEL ] %s\n", dir)
	}
	for _, dir := range r.Upgraded {
		fmt.Fprintf(w, "[ UP ] %s\n", dir)
	}
	for _, res := range r.Results {
		if res.OK() {
			fmt.Fprintf(w, "[ OK ] %s v%s (%s, %s)\n", res.Metadata.Name, res.Metadata.Version, res.Metadata.CapabilityType, res.Metadata.DisplayKind())
			continue
		}
		fmt.Fprintf(w, "[FAIL] %s: %v\n", filepath.Base(res.Metadata.Directory), res.Err)
	}
	for _, d := range r.Duplicates {
		fmt.Fprintf(w, "[DUP ] [%s] %s v%s | author: %s | directory: %s\n",
			d.DisplayKind(), d.Name, d.Version, d.Author, filepath.Base(d.Directory))
	}
	for _, ex := range r.Excluded {
		fmt.Fprintf(w, "[SKIP] %s: %v\n", filepath.Base(ex.Directory), ex.Err)
	}

	fmt.Fprintf(w, "\n%d loaded, %d failed, %d duplicates, %d excluded.\n",
		len(r.Loaded()), len(r.Failed()), len(r.Duplicates), len(r.Excluded))
}
