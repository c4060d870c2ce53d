package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/glossa-app/glossa/internal/capability"
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	listTypeFilter string
	listJSON       bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed plugins",
	Long: `List the plugins that loaded from the preinstalled and user roots.
--type translate also lists dictionary plugins.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listTypeFilter, "type", "", "Filter by capability (translate, dictionary, ocr, tts, vocabulary)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed plugin for display.
type listEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Capability string `json:"capability"`
	Kind       string `json:"kind"`
	Directory  string `json:"directory"`
}

func runList(cmd *cobra.Command, args []string) error {
	var filter capability.Capability
	if listTypeFilter != "" {
		c, err := capability.Parse(listTypeFilter)
		if err != nil {
			return err
		}
		filter = c
	}

	s, err := load(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	metas := s.manager.List()
	if filter != "" {
		metas = s.manager.ByCapability(filter)
	}

	if len(metas) == 0 {
		if listTypeFilter != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No installed plugins matching --type=%s\n", listTypeFilter)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No plugins installed yet.")
		}
		return nil
	}

	entries := toListEntries(metas)
	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func toListEntries(metas []*manifest.Metadata) []listEntry {
	entries := make([]listEntry, 0, len(metas))
	for _, m := range metas {
		entries = append(entries, listEntry{
			ID:         m.ID,
			Name:       m.Name,
			Version:    m.Version,
			Capability: m.CapabilityType.String(),
			Kind:       m.DisplayKind(),
			Directory:  m.Directory,
		})
	}
	return entries
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CAPABILITY\tNAME\tVERSION\tKIND\tFOLDER")
	for _, e := range entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Capability, e.Name, version, e.Kind, filepath.Base(e.Directory))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
