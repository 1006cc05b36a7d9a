package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaminalder/codex-snake/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = errors.New("game not found")
	ErrNotOwner = errors.New("not the owner of this game")
)

// Session is one game tracked by the service.
type Session struct {
	ID      string
	Owner   string
	Game    domain.Game
	Created time.Time
	Updated time.Time
}

type subscriber struct {
	ch        chan domain.Snapshot
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service owns all sessions. Every mutation of a game and every send to a
// subscriber happens under mu, so a tick, a key press and a restart never
// interleave on the same game and a channel is never closed mid-send.
type Service struct {
	mu       sync.Mutex
	cfg      domain.Config
	sessions map[string]*Session
	subs     map[string]map[*subscriber]struct{}
	newRand  func() domain.Rand
	now      func() time.Time
	idleTTL  time.Duration
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSeed makes apple placement reproducible: game n gets a PCG stream
// seeded with (seed, n).
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		if seed == 0 {
			return
		}
		var n uint64
		s.newRand = func() domain.Rand {
			n++
			return rand.New(rand.NewPCG(seed, n))
		}
	}
}

// WithIdleTTL evicts sessions with no input for longer than ttl. Zero keeps
// sessions forever.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) { s.idleTTL = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service that builds every game from cfg.
func NewService(cfg domain.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		subs:     make(map[string]map[*subscriber]struct{}),
		newRand: func() domain.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now: time.Now,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// CreateGame creates and registers a new game owned by owner.
func (s *Service) CreateGame(owner string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := domain.New(s.cfg, s.newRand())
	if err != nil {
		return nil, err
	}
	now := s.now()
	ss := &Session{ID: uuid.NewString(), Owner: owner, Game: *g, Created: now, Updated: now}
	s.sessions[ss.ID] = ss
	s.log.Info("game created", "game", ss.ID, "owner", owner)
	return ss.copy(), nil
}

// Get returns a copy of the session if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return ss.copy(), true
}

// Snapshot returns the render view of a game.
func (s *Service) Snapshot(id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return domain.Snapshot{}, ErrNotFound
	}
	return ss.Game.Snapshot(), nil
}

// Input applies a key press from playerID. Unknown keys change nothing and
// publish nothing.
func (s *Service) Input(id, playerID, key string) (*Session, error) {
	cmd := domain.ParseKey(key)
	if cmd == domain.CmdNone {
		return s.owned(id, playerID)
	}
	return s.mutate(id, playerID, func(g *domain.Game) { g.Handle(cmd) })
}

// SetDirection changes the pending direction of a game.
func (s *Service) SetDirection(id, playerID string, d domain.Direction) (*Session, error) {
	return s.mutate(id, playerID, func(g *domain.Game) { g.SetDirection(d) })
}

// Restart reinitialises a game.
func (s *Service) Restart(id, playerID string) (*Session, error) {
	return s.mutate(id, playerID, func(g *domain.Game) { g.Restart() })
}

// TogglePause pauses or resumes a game.
func (s *Service) TogglePause(id, playerID string) (*Session, error) {
	return s.mutate(id, playerID, func(g *domain.Game) { g.TogglePause() })
}

func (s *Service) mutate(id, playerID string, fn func(*domain.Game)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, err := s.ownedLocked(id, playerID)
	if err != nil {
		return nil, err
	}
	fn(&ss.Game)
	ss.Updated = s.now()
	s.publishLocked(id, ss.Game.Snapshot())
	return ss.copy(), nil
}

func (s *Service) owned(id, playerID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, err := s.ownedLocked(id, playerID)
	if err != nil {
		return nil, err
	}
	return ss.copy(), nil
}

func (s *Service) ownedLocked(id, playerID string) (*Session, error) {
	ss, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ss.Owner != playerID {
		return nil, ErrNotOwner
	}
	return ss, nil
}

// Tick advances one game and notifies subscribers when anything changed.
func (s *Service) Tick(id string) (domain.Outcome, error) {
	out, score, err := s.advance(id)
	if err != nil {
		return out, err
	}
	switch out {
	case domain.Collided:
		s.log.Info("game over", "game", id, "score", score)
	case domain.BoardFull:
		s.log.Info("board full", "game", id, "score", score)
	}
	return out, nil
}

func (s *Service) advance(id string) (domain.Outcome, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ss, ok := s.sessions[id]
	if !ok {
		return domain.Idle, 0, ErrNotFound
	}
	out := ss.Game.Tick()
	if out == domain.Idle {
		return out, 0, nil
	}
	snap := ss.Game.Snapshot()
	s.publishLocked(id, snap)
	return out, snap.Score, nil
}

// TickAll advances every game once.
func (s *Service) TickAll() {
	for _, id := range s.ids() {
		// A game removed since ids() was taken is simply skipped.
		_, _ = s.Tick(id)
	}
}

// Run ticks all games every interval and evicts idle sessions until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.TickAll()
			s.EvictIdle()
		}
	}
}

// EvictIdle removes sessions that have seen no input for the idle TTL.
func (s *Service) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}
	var evicted []string
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cutoff := s.now().Add(-s.idleTTL)
		for id, ss := range s.sessions {
			if ss.Updated.Before(cutoff) {
				s.removeLocked(id)
				evicted = append(evicted, id)
			}
		}
	}()
	for _, id := range evicted {
		s.log.Info("game evicted", "game", id)
	}
	return len(evicted)
}

// Remove deletes a session and closes its subscribers.
func (s *Service) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	s.log.Info("game removed", "game", id)
}

func (s *Service) removeLocked(id string) {
	delete(s.sessions, id)
	for sub := range s.subs[id] {
		sub.close()
	}
	delete(s.subs, id)
}

// Len returns the number of sessions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Subscribe registers for snapshots of a game. The channel is closed when ctx
// ends, the subscriber falls behind, or the game is removed.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan domain.Snapshot, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan domain.Snapshot, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
			s.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// publishLocked hands snap to every subscriber of id. Sends never block;
// a subscriber whose buffer is still full is dropped.
func (s *Service) publishLocked(id string, snap domain.Snapshot) {
	set := s.subs[id]
	dropped := 0
	for sub := range set {
		select {
		case sub.ch <- snap:
		default:
			delete(set, sub)
			sub.close()
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug("dropped slow subscribers", "game", id, "count", dropped)
	}
}

func (s *Service) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}

func (ss *Session) copy() *Session {
	cp := *ss
	cp.Game = ss.Game.Clone()
	return &cp
}
