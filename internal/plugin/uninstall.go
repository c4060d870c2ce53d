package plugin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/glossa-app/glossa/internal/fsutil"
	"github.com/glossa-app/glossa/internal/manifest"
)

// Uninstall marks the package's install, settings and cache directories for
// deletion on the next Load and removes it from the registry at once. The
// directories stay on disk until then.
func (m *Manager) Uninstall(ctx context.Context, meta *manifest.Metadata) (bool, error) {
	opID := uuid.NewString()
	log := m.logger.With().
		Str("component", component).
		Str("op", "uninstall").
		Str("op_id", opID).
		Logger()

	if meta == nil || meta.ID == "" {
		err := newError(KindValidation, "uninstall", "", ErrNotInstalled)
		log.Error().Str("status", logStatusFail).Str("error_code", ErrorCode(err)).Err(err).Msg("Uninstall failed")
		return false, err
	}
	log = log.With().Str("plugin_id", meta.ID).Logger()

	m.opMu.RLock()
	defer m.opMu.RUnlock()
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.RLock()
	entry := m.findLocked(meta.ID).Clone()
	m.mu.RUnlock()
	if entry == nil {
		err := newError(KindValidation, "uninstall", meta.Directory, fmt.Errorf("%w: %s", ErrNotInstalled, meta.ID))
		log.Error().Str("status", logStatusFail).Str("error_code", ErrorCode(err)).Err(err).Msg("Uninstall failed")
		return false, err
	}

	if err := fsutil.WriteMarker(entry.Directory); err != nil {
		ferr := newError(KindFilesystem, "uninstall", entry.Directory, err)
		log.Error().Str("status", logStatusFail).Str("error_code", ErrorCode(ferr)).Err(ferr).Msg("Uninstall failed")
		return false, ferr
	}

	status := logStatusSuccess
	for _, dir := range []string{m.layout.SettingsDir(entry), m.layout.CacheDir(entry)} {
		if !fsutil.DirExists(dir) {
			continue
		}
		if err := fsutil.WriteMarker(dir); err != nil {
			status = logStatusPartialFailure
			log.Warn().Str("directory", dir).Err(err).Msg("Failed to mark package data for deletion")
		}
	}

	m.mu.Lock()
	for i, reg := range m.registry {
		if reg.ID == entry.ID {
			m.registry = append(m.registry[:i:i], m.registry[i+1:]...)
			break
		}
	}
	count := len(m.registry)
	m.mu.Unlock()

	m.metrics.Uninstall()
	m.metrics.SetRegistered(count)
	m.publish(log, Event{Kind: EventRemoved, OpID: opID, Metadata: entry})

	log.Info().Str("status", status).Str("directory", entry.Directory).Msg("Package marked for deletion")
	return true, nil
}

// CleanupStaging removes the whole staging root, including packages staged
// for an upgrade that was never confirmed. It waits for running operations.
func (m *Manager) CleanupStaging(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	log := m.logger.With().
		Str("component", component).
		Str("op", "cleanup").
		Str("staging", m.layout.Staging).
		Logger()

	if err := fsutil.RemoveAll(ctx, m.layout.Staging); err != nil {
		ferr := newError(KindFilesystem, "cleanup", m.layout.Staging, err)
		log.Error().Str("status", logStatusFail).Str("error_code", ErrorCode(ferr)).Err(ferr).Msg("Failed to clean up staging root")
		return ferr
	}
	log.Info().Str("status", logStatusSuccess).Msg("Staging root removed")
	return nil
}
