package plugin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/message"

	"github.com/glossa-app/glossa/internal/archive"
	"github.com/glossa-app/glossa/internal/branding"
	"github.com/glossa-app/glossa/internal/capability"
	"github.com/glossa-app/glossa/internal/discovery"
	"github.com/glossa-app/glossa/internal/fsutil"
	"github.com/glossa-app/glossa/internal/manifest"
	"github.com/glossa-app/glossa/internal/metrics"
	"github.com/glossa-app/glossa/internal/paths"
)

const (
	component = "plugin.manager"

	logStatusSuccess        = "success"
	logStatusPartialFailure = "partial_failure"
	logStatusFail           = "fail"
)

// Manager owns the package registry and performs lifecycle operations.
// All methods are safe for concurrent use.
type Manager struct {
	layout    paths.Layout
	loader    capability.Loader
	extractor *archive.Extractor
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	printer   *message.Printer
	workers   int
	ext       string

	preinstalled map[string]bool

	// opMu is the process install lock: Load holds it exclusively,
	// Install/Upgrade/Uninstall share it.
	opMu sync.RWMutex
	// commitMu serializes the registry check-then-act sections.
	commitMu sync.Mutex

	mu       sync.RWMutex
	registry []*manifest.Metadata
	ready    bool

	staging *stagingLocks
	events  *broker

	// Directory moves and removals made by install and upgrade.
	moveDir   func(ctx context.Context, src, dst string) error
	removeAll func(ctx context.Context, path string) error

	poolOnce sync.Once
	pool     *ants.Pool
	poolErr  error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithLayout sets the directory layout.
func WithLayout(l paths.Layout) Option {
	return func(m *Manager) { m.layout = l }
}

// WithLoader replaces the capability loader.
func WithLoader(l capability.Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithExtractor replaces the archive extractor.
func WithExtractor(e *archive.Extractor) Option {
	return func(m *Manager) { m.extractor = e }
}

// WithPreinstalledIDs sets the ids installed under the preinstalled root.
func WithPreinstalledIDs(ids ...string) Option {
	return func(m *Manager) {
		m.preinstalled = make(map[string]bool, len(ids))
		for _, id := range ids {
			m.preinstalled[id] = true
		}
	}
}

// WithLanguage selects the language of outcome messages.
func WithLanguage(lang string) Option {
	return func(m *Manager) { m.printer = newPrinter(lang) }
}

// WithMetrics records lifecycle counters.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithWorkers bounds concurrent module loading and async installs.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// New creates a Manager. The registry is empty until Load completes.
func New(opts ...Option) *Manager {
	m := &Manager{
		loader:    capability.NewHost(),
		extractor: archive.NewExtractor(),
		logger:    zerolog.Nop(),
		printer:   newPrinter("en"),
		workers:   4,
		ext:       branding.PackageExt(),
		staging:   newStagingLocks(),
		events:    newBroker(),
		moveDir:   fsutil.MoveDir,
		removeAll: fsutil.RemoveAll,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.layout == (paths.Layout{}) {
		if l, err := paths.DefaultLayout(); err == nil {
			m.layout = l
		}
	}
	return m
}

// Layout returns the directory layout in use.
func (m *Manager) Layout() paths.Layout { return m.layout }

// Load runs discovery and publishes the resulting registry. Deferred
// deletes and upgrades are completed before anything is loaded. The
// previous registry stays visible until the new one is complete.
func (m *Manager) Load(ctx context.Context) (*discovery.Report, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	opID := uuid.NewString()
	log := m.logger.With().
		Str("component", component).
		Str("op", "load").
		Str("op_id", opID).
		Logger()

	if err := m.layout.EnsureRoots(); err != nil {
		log.Error().Str("status", logStatusFail).Str("error_code", KindFilesystem.String()).Err(err).Msg("Cannot create package roots")
		return nil, newError(KindFilesystem, "load", "", err)
	}

	scanner := discovery.New(m.layout,
		discovery.WithLogger(m.logger),
		discovery.WithLoader(m.loader),
		discovery.WithMetrics(m.metrics),
		discovery.WithWorkers(m.workers),
	)
	scanner.Sweep(ctx, []string{m.layout.Settings, m.layout.Cache})

	report, err := scanner.Scan(ctx, m.layout.Roots())
	if err != nil {
		log.Error().Str("status", logStatusFail).Str("error_code", ErrorCode(err)).Err(err).Msg("Package discovery failed")
		return nil, err
	}

	loaded := report.Loaded()
	m.mu.Lock()
	m.registry = loaded
	m.ready = true
	m.mu.Unlock()

	m.metrics.SetRegistered(len(loaded))
	m.publish(log, Event{Kind: EventReloaded, OpID: opID})

	status := logStatusSuccess
	if len(report.Failed()) > 0 {
		status = logStatusPartialFailure
	}
	log.Info().Str("status", status).Int("registered", len(loaded)).Msg("Registry loaded")
	return report, nil
}

// Ready reports whether Load has completed at least once.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// List returns copies of the registered packages in registry order.
func (m *Manager) List() []*manifest.Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*manifest.Metadata, len(m.registry))
	for i, meta := range m.registry {
		out[i] = meta.Clone()
	}
	return out
}

// Get returns a copy of the registered package with the given id.
func (m *Manager) Get(id string) (*manifest.Metadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if meta := m.findLocked(id); meta != nil {
		return meta.Clone(), true
	}
	return nil, false
}

// ByCapability returns the packages usable for c. Dictionary packages are
// also translation packages.
func (m *Manager) ByCapability(c capability.Capability) []*manifest.Metadata {
	var out []*manifest.Metadata
	for _, meta := range m.List() {
		if meta.CapabilityType.Matches(c) {
			out = append(out, meta)
		}
	}
	return out
}

// Summary counts registered packages.
type Summary struct {
	Total        int
	Preinstalled int
	User         int
	ByCapability map[capability.Capability]int
}

// Summary returns counts over the current registry.
func (m *Manager) Summary() Summary {
	s := Summary{ByCapability: make(map[capability.Capability]int, len(capability.All))}
	for _, c := range capability.All {
		s.ByCapability[c] = 0
	}
	for _, meta := range m.List() {
		s.Total++
		if meta.Preinstalled {
			s.Preinstalled++
		} else {
			s.User++
		}
		s.ByCapability[meta.CapabilityType]++
	}
	return s
}

// String renders the summary on one line.
func (s Summary) String() string {
	parts := make([]string, 0, len(capability.All))
	for _, c := range capability.All {
		parts = append(parts, fmt.Sprintf("%s=%d", c, s.ByCapability[c]))
	}
	return fmt.Sprintf("total=%d preinstalled=%d user=%d %s", s.Total, s.Preinstalled, s.User, strings.Join(parts, " "))
}

// Subscribe returns a channel of registry changes and a function that
// cancels the subscription. Events are dropped for a subscriber whose
// buffer is full.
func (m *Manager) Subscribe(buf int) (<-chan Event, func()) {
	return m.events.subscribe(buf)
}

// Close releases the worker pool and closes all subscriptions.
func (m *Manager) Close() {
	m.poolOnce.Do(func() {})
	if m.pool != nil {
		m.pool.Release()
	}
	m.events.close()
}

func (m *Manager) findLocked(id string) *manifest.Metadata {
	for _, meta := range m.registry {
		if meta.ID == id {
			return meta
		}
	}
	return nil
}

func (m *Manager) publish(log zerolog.Logger, e Event) {
	e.ID = uuid.New()
	if e.Metadata != nil {
		e.Metadata = e.Metadata.Clone()
	}
	if dropped := m.events.publish(e); dropped > 0 {
		log.Warn().Str("event", e.Kind.String()).Int("dropped", dropped).Msg("Subscribers too slow, event dropped")
	}
}
