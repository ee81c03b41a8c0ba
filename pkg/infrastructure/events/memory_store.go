package events

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultRetention is the number of runs an InMemoryEventStore keeps
const DefaultRetention = 500

type subscription struct {
	id     int
	types  map[string]bool
	listen Listener
}

// InMemoryEventStore keeps the event logs of the most recent runs. Once
// more than the retention limit of runs have logged events, the oldest
// run's log is dropped.
type InMemoryEventStore struct {
	mu        sync.RWMutex
	runs      map[string][]Event
	order     []string
	retention int
	subs      []subscription
	nextSub   int
	now       func() time.Time
	logger    *slog.Logger
}

// StoreOption customizes an InMemoryEventStore
type StoreOption func(*InMemoryEventStore)

// WithRetention keeps the logs of at most n runs; n <= 0 keeps every run
func WithRetention(n int) StoreOption {
	return func(s *InMemoryEventStore) { s.retention = n }
}

// WithClock stamps events with now instead of time.Now
func WithClock(now func() time.Time) StoreOption {
	return func(s *InMemoryEventStore) { s.now = now }
}

// NewInMemoryEventStore creates an empty store; a nil logger uses slog.Default()
func NewInMemoryEventStore(logger *slog.Logger, opts ...StoreOption) *InMemoryEventStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &InMemoryEventStore{
		runs:      make(map[string][]Event),
		retention: DefaultRetention,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stores an event at the end of the run's log and passes it to the
// matching listeners before returning
func (s *InMemoryEventStore) Append(run, eventType string, data any) (Event, error) {
	if run == "" || eventType == "" {
		return Event{}, fmt.Errorf("event needs a run and a type")
	}

	s.mu.Lock()
	log, known := s.runs[run]
	if !known {
		s.order = append(s.order, run)
		s.evict()
	}
	e := Event{
		Run:  run,
		Seq:  len(log) + 1,
		Type: eventType,
		At:   s.now().UTC(),
		Data: data,
	}
	s.runs[run] = append(log, e)
	var targets []Listener
	for _, sub := range s.subs {
		if len(sub.types) == 0 || sub.types[eventType] {
			targets = append(targets, sub.listen)
		}
	}
	s.mu.Unlock()

	for _, listen := range targets {
		listen(e)
	}
	return e, nil
}

// evict drops the oldest runs beyond the retention limit; callers hold mu
func (s *InMemoryEventStore) evict() {
	if s.retention <= 0 {
		return
	}
	for len(s.order) > s.retention {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
		s.logger.Debug("dropped run events", "run", oldest)
	}
}

// Run returns a copy of the run's log, empty for an unknown or dropped run
func (s *InMemoryEventStore) Run(run string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.runs[run]))
	copy(out, s.runs[run])
	return out, nil
}

// Runs returns the IDs of the runs still held, oldest first
func (s *InMemoryEventStore) Runs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Subscribe registers listen for the given event types, or for every type
// when none are given. The returned func cancels the subscription.
func (s *InMemoryEventStore) Subscribe(listen Listener, types ...string) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := subscription{id: s.nextSub, listen: listen}
	s.nextSub++
	if len(types) > 0 {
		sub.types = make(map[string]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	s.subs = append(s.subs, sub)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.subs {
			if existing.id == sub.id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
