package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/glossa-app/glossa/internal/archive"
	"github.com/glossa-app/glossa/internal/capability"
	"github.com/glossa-app/glossa/internal/fsutil"
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/glossa-app/glossa/internal/paths"
	"github.com/glossa-app/glossa/internal/version"
)

// installRun carries the state of one Install call through its stages.
type installRun struct {
	m       *Manager
	ctx     context.Context
	log     zerolog.Logger
	opID    string
	archive string
	staging string
	stage   Stage
}

// Install installs the package archive at archivePath.
//
// A package whose id is not registered is extracted, moved to its canonical
// directory, loaded and registered. If the id is registered with an older
// version the outcome is UpgradeRequired and the extracted package stays
// staged for Upgrade; if the installed version is the same or newer the
// install fails and the staging directory is removed.
func (m *Manager) Install(ctx context.Context, archivePath string) InstallOutcome {
	r := &installRun{
		m:       m,
		ctx:     ctx,
		opID:    uuid.NewString(),
		archive: archivePath,
		stage:   StageValidating,
	}
	r.log = m.logger.With().
		Str("component", component).
		Str("op", "install").
		Str("op_id", r.opID).
		Str("archive", archivePath).
		Logger()

	r.log.Info().Msg("Starting package installation")
	out := r.run()
	out.OpID = r.opID
	m.metrics.Install(out.Kind.String())
	return out
}

func (r *installRun) run() InstallOutcome {
	m := r.m
	name := filepath.Base(r.archive)

	if err := m.validateArchive(r.archive); err != nil {
		return r.fail(newError(KindValidation, "install", r.archive, err), nil, msgInvalidPackage, name)
	}

	key := paths.StagingKey(r.archive)
	release, ok, holder := m.staging.tryLock(key, r.opID)
	if !ok {
		err := fmt.Errorf("%w: %s held by %s", ErrStagingBusy, key, holder)
		return r.fail(newError(KindStagingBusy, "install", r.archive, err), nil, msgStagingBusy, name)
	}
	defer release()

	m.opMu.RLock()
	defer m.opMu.RUnlock()

	if !m.Ready() {
		return r.fail(newError(KindValidation, "install", r.archive, ErrRegistryLoading), nil, msgInstallFailed, name, ErrRegistryLoading)
	}

	r.enter(StageStaging)
	r.staging = m.layout.StagingDir(r.archive)
	if err := m.prepareStaging(r.ctx, r.staging); err != nil {
		return r.fail(newError(KindFilesystem, "install", r.staging, err), nil, msgStagingFailed, err)
	}

	r.enter(StageExtracting)
	res, err := m.extractor.Extract(r.ctx, r.archive, r.staging)
	if err != nil {
		r.cleanup()
		return r.fail(newError(KindExtraction, "install", r.archive, err), nil, msgExtractFailed, name, err)
	}
	r.log.Debug().Int("files", res.Files).Int("skipped", res.Skipped).Uint64("bytes", res.Bytes).Msg("Archive extracted")

	r.enter(StageParsingMetadata)
	incoming, err := manifest.LoadDir(r.staging)
	if err != nil {
		r.cleanup()
		return r.fail(newError(KindDescriptor, "install", r.staging, err), nil, msgInvalidLayout, err)
	}
	r.log = r.log.With().Str("plugin_id", incoming.ID).Str("version", incoming.Version).Logger()

	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	r.enter(StageResolvingConflict)
	m.mu.RLock()
	existing := m.findLocked(incoming.ID).Clone()
	m.mu.RUnlock()

	if existing != nil {
		newer, verr := version.IsUpgrade(incoming.Version, existing.Version)
		if verr != nil || !newer {
			r.cleanup()
			cause := ErrVersionTooOld
			if verr != nil {
				cause = fmt.Errorf("%w: %v", ErrVersionTooOld, verr)
			}
			return r.fail(newError(KindVersionConflict, "install", r.archive, cause), existing,
				msgVersionTooOld, existing.Name, existing.Version, incoming.Version)
		}

		r.log.Info().
			Str("status", logStatusSuccess).
			Str("installed_version", existing.Version).
			Str("staging", r.staging).
			Msg("Newer version staged, upgrade required")
		return InstallOutcome{
			Kind:     OutcomeUpgradeRequired,
			Existing: existing,
			Message:  m.printer.Sprintf(msgUpgradeRequired, existing.Name, existing.Version, incoming.Version),
			Stage:    r.stage,
		}
	}

	r.enter(StageFinalizing)
	meta, occupant, ferr := r.finalize(incoming)
	if ferr != nil {
		if occupant != nil {
			return r.fail(ferr, occupant, msgDirectoryTaken, incoming.ID, occupant.ID, ferr.Path)
		}
		return r.fail(ferr, nil, msgInstallFailed, name, ferr.Err)
	}

	m.mu.Lock()
	m.registry = append(m.registry, meta)
	count := len(m.registry)
	m.mu.Unlock()

	r.enter(StageRegistered)
	m.metrics.SetRegistered(count)
	m.publish(r.log, Event{Kind: EventAdded, OpID: r.opID, Metadata: meta})

	r.log.Info().
		Str("status", logStatusSuccess).
		Str("directory", meta.Directory).
		Str("capability", meta.CapabilityType.String()).
		Msg("Package installed")
	return InstallOutcome{
		Kind:     OutcomeSuccess,
		Metadata: meta.Clone(),
		Message:  m.printer.Sprintf(msgInstalled, meta.Name, meta.Version),
		Stage:    r.stage,
	}
}

// finalize moves the staged package to its canonical directory and loads it
// from there. On failure nothing is left in the package roots. When the
// canonical directory holds another package, that package is returned and
// nothing is moved.
func (r *installRun) finalize(incoming *manifest.Metadata) (*manifest.Metadata, *manifest.Metadata, *Error) {
	m := r.m
	preinstalled := m.preinstalled[incoming.ID]
	target := m.layout.CanonicalInstallDir(incoming.ID, filepath.Base(r.staging), preinstalled)

	if occupant := m.occupant(target, incoming.ID); occupant != nil {
		r.cleanup()
		return nil, occupant, newError(KindFilesystem, "install", target,
			fmt.Errorf("%w: %s", ErrDirectoryTaken, occupant.ID))
	}

	if err := m.moveDir(r.ctx, r.staging, target); err != nil {
		r.cleanup()
		r.rollback(target)
		return nil, nil, newError(KindFilesystem, "install", target, err)
	}

	meta, err := manifest.LoadDir(target)
	if err != nil {
		r.rollback(target)
		return nil, nil, newError(KindDescriptor, "install", target, err)
	}
	m.layout.Attach(meta, target)

	mod, err := m.loader.Load(r.ctx, capability.Request{EntryPath: meta.EntryPath(), Declared: meta.Capability})
	if err != nil {
		r.rollback(target)
		return nil, nil, newError(KindCapability, "install", target, err)
	}
	meta.ModuleName = mod.Name
	meta.CapabilityType = mod.Capability
	return meta, nil, nil
}

// occupant returns the package that owns dir if installing id there would
// destroy it. A directory with no readable descriptor may be replaced, as
// may an unregistered copy of id or an unregistered package already marked
// for deletion. Callers hold commitMu.
func (m *Manager) occupant(dir, id string) *manifest.Metadata {
	if !fsutil.DirExists(dir) {
		return nil
	}
	found, err := manifest.ParseFile(filepath.Join(dir, manifest.DescriptorFile))
	if err != nil {
		return nil
	}

	m.mu.RLock()
	registered := m.findLocked(found.ID).Clone()
	m.mu.RUnlock()

	switch {
	case registered != nil:
		return registered
	case found.ID == id, fsutil.HasMarker(dir):
		return nil
	}
	m.layout.Attach(found, dir)
	return found
}

// Upgrade consumes the package staged by an Install that returned
// UpgradeRequired for the same archive. The installed directory is marked
// for deletion and the staged package is placed next to it under the
// upgrade suffix; both are resolved by the next Load. The registry is not
// changed.
func (m *Manager) Upgrade(ctx context.Context, existing *manifest.Metadata, archivePath string) (bool, error) {
	opID := uuid.NewString()
	log := m.logger.With().
		Str("component", component).
		Str("op", "upgrade").
		Str("op_id", opID).
		Str("archive", archivePath).
		Logger()

	err := m.upgrade(ctx, log, opID, existing, archivePath)
	if err != nil {
		log.Error().Str("status", logStatusFail).Str("error_code", ErrorCode(err)).Err(err).Msg("Upgrade failed")
		return false, err
	}
	m.metrics.UpgradeStaged()
	log.Info().Str("status", logStatusSuccess).Str("plugin_id", existing.ID).Msg("Upgrade staged for next start")
	return true, nil
}

func (m *Manager) upgrade(ctx context.Context, log zerolog.Logger, opID string, existing *manifest.Metadata, archivePath string) error {
	if existing == nil || existing.Directory == "" {
		return newError(KindValidation, "upgrade", archivePath, ErrNotInstalled)
	}

	key := paths.StagingKey(archivePath)
	release, ok, holder := m.staging.tryLock(key, opID)
	if !ok {
		return newError(KindStagingBusy, "upgrade", archivePath, fmt.Errorf("%w: %s held by %s", ErrStagingBusy, key, holder))
	}
	defer release()

	m.opMu.RLock()
	defer m.opMu.RUnlock()
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.RLock()
	registered := m.findLocked(existing.ID).Clone()
	m.mu.RUnlock()
	if registered == nil {
		return newError(KindValidation, "upgrade", archivePath, fmt.Errorf("%w: %s", ErrNotInstalled, existing.ID))
	}
	existing = registered

	staging := m.layout.StagingDir(archivePath)
	if !fsutil.DirExists(staging) {
		return newError(KindStagingMissing, "upgrade", staging, ErrStagingMissing)
	}

	staged, err := manifest.LoadDir(staging)
	if err != nil {
		return newError(KindDescriptor, "upgrade", staging, err)
	}
	if staged.ID != existing.ID {
		return newError(KindValidation, "upgrade", staging,
			fmt.Errorf("%w: staged %s, installed %s", ErrIDMismatch, staged.ID, existing.ID))
	}

	if err := fsutil.WriteMarker(existing.Directory); err != nil {
		return newError(KindFilesystem, "upgrade", existing.Directory, err)
	}

	target := fsutil.UpgradePath(existing.Directory)
	if err := m.moveDir(ctx, staging, target); err != nil {
		// Without the replacement the marker would delete the only copy.
		if rmErr := fsutil.RemoveMarker(existing.Directory); rmErr != nil {
			log.Warn().Str("status", logStatusPartialFailure).Err(rmErr).Str("directory", existing.Directory).Msg("Failed to withdraw delete marker")
		}
		// A copy that landed before the move failed must not be promoted by Load.
		if rmErr := m.removeAll(context.WithoutCancel(ctx), target); rmErr != nil {
			log.Warn().Str("status", logStatusPartialFailure).Err(rmErr).Str("directory", target).Msg("Failed to remove partial upgrade copy")
		}
		return newError(KindFilesystem, "upgrade", target, err)
	}

	m.publish(log, Event{Kind: EventUpgradeStaged, OpID: opID, Metadata: staged})
	return nil
}

// InstallAsync runs Install on the worker pool. The channel receives exactly
// one outcome.
func (m *Manager) InstallAsync(ctx context.Context, archivePath string) <-chan InstallOutcome {
	out := make(chan InstallOutcome, 1)
	task := func() {
		out <- m.Install(ctx, archivePath)
		close(out)
	}

	m.poolOnce.Do(func() {
		m.pool, m.poolErr = ants.NewPool(m.workers)
	})
	if m.pool == nil || m.pool.Submit(task) != nil {
		go task()
	}
	return out
}

func (m *Manager) validateArchive(path string) error {
	if !strings.EqualFold(filepath.Ext(path), m.ext) {
		return fmt.Errorf("%w: extension must be %s", ErrInvalidPackage, m.ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidPackage, path)
	}
	if err := archive.Sniff(path); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return nil
}

// prepareStaging recreates dir empty so that a retry never sees leftovers.
func (m *Manager) prepareStaging(ctx context.Context, dir string) error {
	if err := m.removeAll(ctx, dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, paths.DirPermNormal); err != nil {
		return fmt.Errorf("creating staging directory %s: %w", dir, err)
	}
	return nil
}

func (r *installRun) enter(s Stage) {
	r.stage = s
	r.log.Debug().Str("stage", s.String()).Msg("Install stage")
}

// cleanup removes the staging directory. Failure is logged and never
// replaces the error being reported.
func (r *installRun) cleanup() {
	if r.staging == "" {
		return
	}
	if err := r.m.removeAll(context.WithoutCancel(r.ctx), r.staging); err != nil {
		r.log.Warn().
			Str("status", logStatusPartialFailure).
			Str("staging", r.staging).
			Err(err).
			Msg("Failed to clean up staging directory")
	}
}

// rollback removes a package directory that was moved into place but could
// not be loaded.
func (r *installRun) rollback(dir string) {
	if err := r.m.removeAll(context.WithoutCancel(r.ctx), dir); err != nil {
		r.log.Warn().
			Str("status", logStatusPartialFailure).
			Str("directory", dir).
			Err(err).
			Msg("Failed to remove unloadable package")
	}
}

func (r *installRun) fail(err *Error, existing *manifest.Metadata, key string, args ...any) InstallOutcome {
	failedAt := r.stage
	r.stage = StageFailed

	ev := r.log.Error().
		Str("status", logStatusFail).
		Str("stage", failedAt.String()).
		Str("error_code", ErrorCode(err))
	if existing != nil {
		ev = ev.Str("installed_version", existing.Version)
	}
	ev.Err(err).Msg("Package installation failed")

	return InstallOutcome{
		Kind:     OutcomeFailure,
		Existing: existing,
		Message:  r.m.printer.Sprintf(key, args...),
		Err:      err,
		Stage:    StageFailed,
		FailedAt: failedAt,
	}
}
