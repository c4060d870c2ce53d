package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsTextfile string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifecycle counters from a discovery run",
	Long: `Run discovery and print the resulting counters. With --textfile, also write
them in the Prometheus text format for a node_exporter textfile collector.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsTextfile, "textfile", "", "Write metrics to this .prom file")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := load(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	samples, err := s.metrics.Snapshot()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	for _, sm := range samples {
		fmt.Fprintf(w, "%s%s\t%g\n", sm.Name, sm.Labels, sm.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if statsTextfile != "" {
		if err := s.metrics.WriteTextfile(statsTextfile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote metrics to %s\n", statsTextfile)
	}
	return nil
}
