package cli

import (
	"context"
	"fmt"

	"github.com/glossa-app/glossa/internal/archive"
	"github.com/glossa-app/glossa/internal/config"
	"github.com/glossa-app/glossa/internal/metrics"
	"github.com/glossa-app/glossa/internal/paths"
	"github.com/glossa-app/glossa/internal/plugin"
	"github.com/spf13/cobra"
)

// session is a loaded manager plus what the commands print from.
type session struct {
	manager *plugin.Manager
	metrics *metrics.Metrics
}

// openSession builds a Manager from config and loads the registry.
// Lifecycle logs go to the command's stderr.
func openSession(cmd *cobra.Command) (*session, error) {
	layout, err := paths.DefaultLayout()
	if err != nil {
		return nil, fmt.Errorf("resolving package directories: %w", err)
	}

	mt := metrics.New()
	m := plugin.New(
		plugin.WithLogger(newLogger(cmd.ErrOrStderr())),
		plugin.WithLayout(layout),
		plugin.WithPreinstalledIDs(config.PreinstalledIDs()...),
		plugin.WithExtractor(archive.NewExtractor(
			archive.WithExcludes(config.ExtractExcludes()...),
			archive.WithMinFree(config.MinFreeBytes()),
		)),
		plugin.WithLanguage(config.Language()),
		plugin.WithWorkers(config.Workers()),
		plugin.WithMetrics(mt),
	)
	return &session{manager: m, metrics: mt}, nil
}

// load opens a session and runs discovery.
func load(cmd *cobra.Command) (*session, error) {
	s, err := openSession(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := s.manager.Load(commandContext(cmd)); err != nil {
		s.manager.Close()
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	return s, nil
}

func (s *session) Close() { s.manager.Close() }

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
