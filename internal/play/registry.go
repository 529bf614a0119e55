// Package play keeps live quiz players per profile and drives them over
// WebSocket.
package play

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-quiz/internal/metrics"
	"github.com/gokatarajesh/trivia-quiz/internal/quiz"
)

const defaultIdleTimeout = 10 * time.Minute

// LifecycleFactory builds the lifecycle bound to one profile's storage.
type LifecycleFactory func(profileID string) *quiz.Lifecycle

type entry struct {
	player   *quiz.Player
	lastUsed time.Time
}

// gate serializes Start and resume for one profile.
type gate struct {
	mu   sync.Mutex
	refs int
}

// Registry caches one Player per profile so the HTTP and WebSocket surfaces
// share a countdown. A player that is replaced or evicted is retired, so a
// caller still holding it cannot write over the profile's newer state. An
// evicted in-progress quiz is rebuilt from storage on the next Current call,
// which arms a fresh countdown.
type Registry struct {
	mu      sync.Mutex
	factory LifecycleFactory
	players map[string]*entry
	gates   map[string]*gate
	idle    time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRegistry creates a registry. idle <= 0 selects the default idle timeout.
func NewRegistry(factory LifecycleFactory, idle time.Duration, logger zerolog.Logger) *Registry {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Registry{
		factory: factory,
		players: make(map[string]*entry),
		gates:   make(map[string]*gate),
		idle:    idle,
		now:     time.Now,
		logger:  logger,
	}
}

// Lifecycle returns the profile's lifecycle for operations that need no player.
func (r *Registry) Lifecycle(profileID string) *quiz.Lifecycle {
	return r.factory(profileID)
}

// Start begins a new quiz for the profile, replacing any live player.
func (r *Registry) Start(ctx context.Context, profileID string, cfg quiz.Configuration) (*quiz.Player, error) {
	unlock := r.lock(profileID)
	defer unlock()

	lc := r.factory(profileID)
	session, err := lc.Prepare(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// The old player must not write once the new session is stored.
	r.retire(profileID)
	if err := lc.Begin(ctx, session); err != nil {
		return nil, err
	}
	player := lc.NewPlayer(session)

	r.mu.Lock()
	r.players[profileID] = &entry{player: player, lastUsed: r.now()}
	n := len(r.players)
	r.mu.Unlock()

	metrics.SetActivePlayers(n)
	return player, nil
}

// Current returns the profile's in-progress player, resuming from storage when
// none is cached. It returns nil when there is nothing to resume.
func (r *Registry) Current(ctx context.Context, profileID string) (*quiz.Player, error) {
	if p := r.cached(profileID); p != nil {
		return p, nil
	}

	unlock := r.lock(profileID)
	defer unlock()

	// Another caller may have resumed or started while this one waited.
	if p := r.cached(profileID); p != nil {
		return p, nil
	}

	lc := r.factory(profileID)
	session, err := lc.Resume(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	player := lc.NewPlayer(session)

	r.mu.Lock()
	r.players[profileID] = &entry{player: player, lastUsed: r.now()}
	n := len(r.players)
	r.mu.Unlock()

	metrics.SetActivePlayers(n)
	r.logger.Debug().
		Str("profile_id", profileID).
		Int("index", session.CurrentIndex).
		Time("started_at", session.StartedTime()).
		Msg("quiz resumed")
	return player, nil
}

// Live returns the cached in-progress player without reading storage, marking
// it as used. It returns nil when none is cached.
func (r *Registry) Live(profileID string) *quiz.Player {
	return r.cached(profileID)
}

func (r *Registry) cached(profileID string) *quiz.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.players[profileID]; ok && !e.player.Complete() && !e.player.Retired() {
		e.lastUsed = r.now()
		return e.player
	}
	return nil
}

// retire removes the profile's player and waits for its last write.
func (r *Registry) retire(profileID string) {
	r.mu.Lock()
	e, ok := r.players[profileID]
	delete(r.players, profileID)
	r.mu.Unlock()
	if ok {
		e.player.Retire()
	}
}

func (r *Registry) lock(profileID string) func() {
	r.mu.Lock()
	g, ok := r.gates[profileID]
	if !ok {
		g = &gate{}
		r.gates[profileID] = g
	}
	g.refs++
	r.mu.Unlock()

	g.mu.Lock()
	return func() {
		g.mu.Unlock()
		r.mu.Lock()
		g.refs--
		if g.refs == 0 {
			delete(r.gates, profileID)
		}
		r.mu.Unlock()
	}
}

// Drop forgets and retires the profile's player. Stored state is untouched.
func (r *Registry) Drop(profileID string) {
	unlock := r.lock(profileID)
	defer unlock()
	r.retire(profileID)
	metrics.SetActivePlayers(r.Len())
}

// Len reports cached players.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Sweep evicts completed players and those idle longer than the timeout.
// Evicted players are retired.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	var stale []string
	for id, e := range r.players {
		if r.evictable(e, now) {
			stale = append(stale, id)
		}
	}
	r.mu.Unlock()

	evicted := 0
	for _, id := range stale {
		if r.evict(id, now) {
			evicted++
		}
	}

	n := r.Len()
	metrics.SetActivePlayers(n)
	if evicted > 0 {
		r.logger.Debug().Int("evicted", evicted).Int("active", n).Msg("player sweep")
	}
	return evicted
}

func (r *Registry) evictable(e *entry, now time.Time) bool {
	return e.player.Complete() || now.Sub(e.lastUsed) > r.idle
}

// evict retires the profile's player if it is still due for eviction.
func (r *Registry) evict(profileID string, now time.Time) bool {
	unlock := r.lock(profileID)
	defer unlock()

	r.mu.Lock()
	e, ok := r.players[profileID]
	if !ok || !r.evictable(e, now) {
		r.mu.Unlock()
		return false
	}
	delete(r.players, profileID)
	r.mu.Unlock()

	e.player.Retire()
	return true
}

// Run sweeps on an interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
