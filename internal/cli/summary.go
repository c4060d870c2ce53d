package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/glossa-app/glossa/internal/capability"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count installed plugins by capability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := load(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		sum := s.manager.Summary()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		for _, c := range capability.All {
			fmt.Fprintf(w, "%s\t%d\n", c, sum.ByCapability[c])
		}
		fmt.Fprintf(w, "preinstalled\t%d\n", sum.Preinstalled)
		fmt.Fprintf(w, "user\t%d\n", sum.User)
		fmt.Fprintf(w, "total\t%d\n", sum.Total)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
