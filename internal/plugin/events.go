package plugin

import (
	"sync"

	"github.com/google/uuid"

	"github.com/glossa-app/glossa/internal/manifest"
)

// EventKind describes a registry change.
type EventKind int

const (
	// EventAdded: a package was installed and registered.
	EventAdded EventKind = iota
	// EventRemoved: a package was uninstalled.
	EventRemoved
	// EventUpgradeStaged: an upgrade takes effect on the next Load.
	EventUpgradeStaged
	// EventReloaded: Load replaced the whole registry.
	EventReloaded
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventUpgradeStaged:
		return "upgrade_staged"
	case EventReloaded:
		return "reloaded"
	}
	return "unknown"
}

// Event is a change notification. Metadata is a copy and nil for
// EventReloaded.
type Event struct {
	ID       uuid.UUID
	OpID     string
	Kind     EventKind
	Metadata *manifest.Metadata
}

// broker fans events out to subscribers. Slow subscribers lose events
// rather than block the lifecycle.
type broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe(buf int) (<-chan Event, func()) {
	if buf < 1 {
		buf = 1
	}
	ch := make(chan Event, buf)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// publish delivers e and returns how many subscribers missed it.
func (b *broker) publish(e Event) (dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
