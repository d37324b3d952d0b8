package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const storeTimeout = 5 * time.Second

// Session is the cart of one device. It rehydrates from the Store in the
// background right after it is opened; every read and mutation waits for that
// to finish. Mutations are applied in memory and a single writer goroutine
// persists the latest state.
type Session struct {
	deviceID string
	store    Store
	logger   *slog.Logger

	writeMu sync.Mutex // serializes Store writes

	mu       sync.Mutex
	state    State
	version  uint64
	saved    uint64
	lastSeen time.Time
	closed   bool

	ready     chan struct{}
	dirty     chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func OpenSession(deviceID string, store Store, logger *slog.Logger) *Session {
	s := &Session{
		deviceID: deviceID,
		store:    store,
		logger:   logger.With("device_id", deviceID),
		lastSeen: time.Now(),
		ready:    make(chan struct{}),
		dirty:    make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Session) DeviceID() string {
	return s.deviceID
}

// Ready is closed once rehydration has completed, whether a stored cart was found or not.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

func (s *Session) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *Session) Snapshot(ctx context.Context) (State, error) {
	if err := s.waitReady(ctx); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.state.Clone(), nil
}

func (s *Session) AddItem(ctx context.Context, item Item) (State, error) {
	return s.mutate(ctx, func(st *State) { st.Add(item) })
}

func (s *Session) RemoveItem(ctx context.Context, productID string) (State, error) {
	return s.mutate(ctx, func(st *State) { st.Remove(productID) })
}

func (s *Session) UpdateQuantity(ctx context.Context, productID string, quantity int) (State, error) {
	return s.mutate(ctx, func(st *State) { st.UpdateQuantity(productID, quantity) })
}

func (s *Session) Clear(ctx context.Context) (State, error) {
	return s.mutate(ctx, func(st *State) { st.Clear() })
}

func (s *Session) mutate(ctx context.Context, fn func(*State)) (State, error) {
	if err := s.waitReady(ctx); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	fn(&s.state)
	s.version++
	s.lastSeen = time.Now()
	snapshot := s.state.Clone()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		// the writer is gone, write through
		if err := s.Flush(ctx); err != nil {
			s.logger.ErrorContext(ctx, "persist cart after close", "error", err)
		}
		return snapshot, nil
	}

	select {
	case s.dirty <- struct{}{}:
	default: // a write is already pending and will pick up this state
	}
	return snapshot, nil
}

// Flush synchronously writes the current state if it changed since the last write.
func (s *Session) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.version == s.saved {
		s.mu.Unlock()
		return nil
	}
	version := s.version
	snapshot := s.state.Clone()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.deviceID, snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	s.saved = version
	s.mu.Unlock()
	return nil
}

// Close stops the writer and flushes the last state.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	select {
	case <-s.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return s.Flush(ctx)
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) waitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run() {
	defer close(s.stopped)

	s.rehydrate()

	for {
		select {
		case <-s.dirty:
			if err := s.Flush(context.Background()); err != nil {
				s.logger.Error("persist cart", "error", err)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) rehydrate() {
	defer close(s.ready)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	state, err := s.store.Load(ctx, s.deviceID)
	if err != nil {
		if !errors.Is(err, ErrCartNotFound) {
			s.logger.Error("rehydrate cart, starting empty", "error", err)
		}
		return
	}

	state.recompute()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
