package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mathschool/sync-core/pkg/metrics"
)

// Bus fans out no-payload change notifications to registered observers.
// Consumers re-read current state after a notification; the bus never carries
// data, which rules out stale-payload bugs by construction.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	observers []busObserver
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

type busObserver struct {
	id int
	fn func()
}

// NewBus constructs a bus. Logger may be nil.
func NewBus(logger *zap.Logger, m *metrics.Metrics) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{logger: logger, metrics: m}
}

// Subscribe registers a zero-argument callback and returns a function that
// deregisters exactly that observer. Calling the returned function more than
// once is harmless.
func (b *Bus) Subscribe(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.observers = append(b.observers, busObserver{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, obs := range b.observers {
			if obs.id == id {
				b.observers = append(b.observers[:i], b.observers[i+1:]...)
				return
			}
		}
	}
}

// Notify invokes every currently registered observer synchronously, in
// registration order. A panicking observer is recovered and logged so it
// cannot block the rest.
func (b *Bus) Notify() {
	b.mu.Lock()
	observers := make([]busObserver, len(b.observers))
	copy(observers, b.observers)
	b.mu.Unlock()

	b.metrics.RecordNotification()
	for _, obs := range observers {
		b.invoke(obs)
	}
}

func (b *Bus) invoke(obs busObserver) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.RecordObserverPanic()
			b.logger.Warn("observer panicked", zap.Int("observer_id", obs.id), zap.Any("panic", r))
		}
	}()
	obs.fn()
}

// Len reports the number of registered observers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.observers)
}
