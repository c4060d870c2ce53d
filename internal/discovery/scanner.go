package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/glossa-app/glossa/internal/capability"
	"github.com/glossa-app/glossa/internal/fsutil"
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/glossa-app/glossa/internal/metrics"
	"github.com/glossa-app/glossa/internal/paths"
)

const (
	component = "plugin.discovery"

	logStatusSuccess        = "success"
	logStatusPartialFailure = "partial_failure"
	logStatusFail           = "fail"
)

// Scanner discovers packages under a set of roots.
type Scanner struct {
	layout  paths.Layout
	loader  capability.Loader
	logger  zerolog.Logger
	metrics *metrics.Metrics
	workers int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithLoader replaces the capability loader.
func WithLoader(l capability.Loader) Option {
	return func(s *Scanner) { s.loader = l }
}

// WithMetrics records scan results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithWorkers bounds how many packages load concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Scanner. The layout decides which packages count as
// preinstalled and where their settings and cache live.
func New(layout paths.Layout, opts ...Option) *Scanner {
	s := &Scanner{
		layout:  layout,
		loader:  capability.NewHost(),
		logger:  zerolog.Nop(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan discovers packages under roots. Per-package failures are reported in
// the result; the returned error is reserved for cancellation.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*Report, error) {
	report := &Report{}

	var dirs []string
	for _, root := range roots {
		dirs = append(dirs, s.listRoot(root)...)
	}

	// Deletes go first so that an upgrade rename never collides with the
	// directory it replaces.
	dirs = s.sweepDeletes(ctx, dirs, report)
	dirs = s.completeUpgrades(ctx, dirs, report)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	var parsed []*manifest.Metadata
	for _, dir := range dirs {
		m, err := manifest.LoadDir(dir)
		if err != nil {
			s.logger.Warn().
				Str("component", component).
				Str("op", "parse").
				Str("directory", dir).
				Str("status", logStatusFail).
				Err(err).
				Msg("Skipping directory without a usable package")
			report.Excluded = append(report.Excluded, Exclusion{Directory: dir, Err: err})
			continue
		}
		s.layout.Attach(m, dir)
		parsed = append(parsed, m)
	}

	unique, duplicates := Dedup(parsed)
	report.Duplicates = duplicates
	s.logDuplicates(duplicates)
	s.metrics.Duplicates(len(duplicates))

	results, err := s.loadAll(ctx, unique)
	if err != nil {
		return nil, err
	}
	report.Results = results
	s.logSummary(report)

	return report, nil
}

// Sweep deletes marked subdirectories of data roots (settings, cache) that
// hold no packages. It returns the deleted directories.
func (s *Scanner) Sweep(ctx context.Context, roots []string) []string {
	report := &Report{}
	for _, root := range roots {
		s.sweepDeletes(ctx, s.listRoot(root), report)
	}
	return report.Deleted
}

// listRoot returns the immediate subdirectories of root. A missing root is
// empty, not an error.
func (s *Scanner) listRoot(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().
				Str("component", component).
				Str("op", "scan").
				Str("root", root).
				Err(err).
				Msg("Cannot read package root")
		}
		return nil
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs
}

func (s *Scanner) sweepDeletes(ctx context.Context, dirs []string, report *Report) []string {
	kept := dirs[:0:0]
	for _, dir := range dirs {
		if !fsutil.HasMarker(dir) {
			kept = append(kept, dir)
			continue
		}
		if err := fsutil.RemoveAll(ctx, dir); err != nil {
			s.logger.Warn().
				Str("component", component).
				Str("op", "sweep").
				Str("directory", dir).
				Str("status", logStatusFail).
				Err(err).
				Msg("Failed to delete package marked for deletion")
			continue
		}
		s.logger.Info().
			Str("component", component).
			Str("op", "sweep").
			Str("directory", dir).
			Str("status", logStatusSuccess).
			Msg("Deleted package marked for deletion")
		report.Deleted = append(report.Deleted, dir)
		s.metrics.Sweep("delete")
	}
	return kept
}

func (s *Scanner) completeUpgrades(ctx context.Context, dirs []string, report *Report) []string {
	present := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		present[dir] = true
	}

	kept := dirs[:0:0]
	for _, dir := range dirs {
		if !fsutil.IsUpgradePath(dir) {
			kept = append(kept, dir)
			continue
		}
		target := fsutil.TrimUpgradeSuffix(dir)
		if present[target] || fsutil.DirExists(target) {
			// The old copy survived its sweep; retry on the next start.
			s.logger.Warn().
				Str("component", component).
				Str("op", "upgrade").
				Str("directory", dir).
				Str("target", target).
				Str("status", logStatusFail).
				Msg("Pending upgrade blocked by existing directory")
			continue
		}
		if err := fsutil.Rename(ctx, dir, target); err != nil {
			s.logger.Warn().
				Str("component", component).
				Str("op", "upgrade").
				Str("directory", dir).
				Str("status", logStatusFail).
				Err(err).
				Msg("Failed to complete pending upgrade")
			continue
		}
		s.logger.Info().
			Str("component", component).
			Str("op", "upgrade").
			Str("directory", target).
			Str("status", logStatusSuccess).
			Msg("Completed pending upgrade")
		report.Upgraded = append(report.Upgraded, target)
		s.metrics.Sweep("upgrade")
		kept = append(kept, target)
	}
	return kept
}

// loadAll runs capability discovery for every survivor on a bounded pool.
// Results keep the order of unique.
func (s *Scanner) loadAll(ctx context.Context, unique []*manifest.Metadata) ([]LoadResult, error) {
	results := make([]LoadResult, len(unique))
	if len(unique) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("creating loader pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, m := range unique {
		i, m := i, m
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = s.load(ctx, m)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}
	return results, nil
}

func (s *Scanner) load(ctx context.Context, m *manifest.Metadata) LoadResult {
	mod, err := s.loader.Load(ctx, capability.Request{
		EntryPath: m.EntryPath(),
		Declared:  m.Capability,
	})
	if err != nil {
		s.logger.Error().
			Str("component", component).
			Str("op", "load").
			Str("plugin_id", m.ID).
			Str("directory", m.Directory).
			Str("status", logStatusFail).
			Err(err).
			Msg("Failed to load package")
		s.metrics.ScanResult("failed")
		return LoadResult{Metadata: m, Err: err}
	}

	m.ModuleName = mod.Name
	m.CapabilityType = mod.Capability
	s.metrics.ScanResult("loaded")
	return LoadResult{Metadata: m}
}

func (s *Scanner) logDuplicates(duplicates []*manifest.Metadata) {
	if len(duplicates) == 0 {
		return
	}
	s.logger.Warn().
		Str("component", component).
		Str("op", "dedup").
		Int("count", len(duplicates)).
		Msgf("Found %d duplicate packages, skipping:", len(duplicates))

	for _, d := range duplicates {
		line := fmt.Sprintf("  - [%s] %s v%s | author: %s | directory: %s",
			d.DisplayKind(), d.Name, d.Version, d.Author, filepath.Base(d.Directory))
		if d.Website != "" {
			line += " | website: " + d.Website
		}
		s.logger.Warn().
			Str("component", component).
			Str("op", "dedup").
			Str("plugin_id", d.ID).
			Msg(line)
	}
}

func (s *Scanner) logSummary(r *Report) {
	failed := len(r.Failed())
	status := logStatusSuccess
	if failed > 0 {
		status = logStatusPartialFailure
	}
	s.logger.Info().
		Str("component", component).
		Str("op", "scan").
		Str("status", status).
		Int("loaded", len(r.Results)-failed).
		Int("failed", failed).
		Int("duplicates", len(r.Duplicates)).
		Int("excluded", len(r.Excluded)).
		Msg("Package discovery complete")
}
