package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goBoard/jwt"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/MrEthical07/goBoard/storage"
)

// DefaultKey is the storage key the session record lives under.
const DefaultKey = "goboard.session"

// Reason says which operation produced a new snapshot.
type Reason uint8

const (
	ReasonRestore Reason = iota
	ReasonLogin
	ReasonUpdate
	ReasonLogout
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonRestore:
		return "restore"
	case ReasonLogin:
		return "login"
	case ReasonUpdate:
		return "update"
	case ReasonLogout:
		return "logout"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RestoreOutcome classifies what Initialize found in storage.
type RestoreOutcome uint8

const (
	RestoreEmpty RestoreOutcome = iota
	RestoreHydrated
	RestoreMalformed
	RestoreExpired
	RestoreUnavailable
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreEmpty:
		return "empty"
	case RestoreHydrated:
		return "hydrated"
	case RestoreMalformed:
		return "malformed"
	case RestoreExpired:
		return "expired"
	case RestoreUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Hooks receive Store events. All fields are optional. Hooks run on the mutating
// goroutine and must not call back into the Store's mutating operations.
type Hooks struct {
	OnChange       func(prev, next Session, reason Reason)
	OnRestore      func(outcome RestoreOutcome)
	OnPersistError func(op string, err error)
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithHooks(h Hooks) Option {
	return func(s *Store) { s.hooks = h }
}

// WithClock sets the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLeeway tolerates clock skew when deciding whether a token has expired.
func WithLeeway(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.leeway = d
		}
	}
}

// Store is the single owner of a browser context's Session.
type Store struct {
	storage storage.Storage
	key     string
	logger  *slog.Logger
	hooks   Hooks
	now     func() time.Time
	leeway  time.Duration

	// mu serializes mutations and notification delivery.
	mu       sync.Mutex
	current  atomic.Pointer[Session]
	ready    atomic.Bool
	restored atomic.Uint32

	subsMu  sync.RWMutex
	subs    map[uint64]func(Session)
	nextSub uint64
}

// NewStore creates an anonymous, not-yet-ready Store over st. A nil st keeps the
// session in memory only.
func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		key:     DefaultKey,
		logger:  slog.Default(),
		now:     time.Now,
		subs:    make(map[uint64]func(Session)),
	}
	for _, opt := range opts {
		opt(s)
	}
	anon := Anonymous()
	s.current.Store(&anon)
	return s
}

// Current returns the live snapshot. It never blocks and performs no I/O.
func (s *Store) Current() Session {
	return *s.current.Load()
}

// Ready reports whether Initialize has completed at least once.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Initialize restores the persisted session. Missing, malformed, inconsistent or expired
// records restore as anonymous; the latter three are also removed from storage.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, outcome := s.load(ctx)
	if s.hooks.OnRestore != nil {
		s.hooks.OnRestore(outcome)
	}
	s.restored.Store(uint32(outcome))
	s.ready.Store(true)
	s.replaceLocked(restored, ReasonRestore)
}

// Restored returns what the latest Initialize found. It is RestoreEmpty before the
// first Initialize.
func (s *Store) Restored() RestoreOutcome {
	return RestoreOutcome(s.restored.Load())
}

func (s *Store) load(ctx context.Context) (Session, RestoreOutcome) {
	if s.storage == nil {
		return Anonymous(), RestoreEmpty
	}

	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return Anonymous(), RestoreEmpty
	}
	if err != nil {
		s.logger.Warn("session: restore failed", "key", s.key, "error", err)
		s.reportPersistError("restore", err)
		return Anonymous(), RestoreUnavailable
	}

	sess, err := Decode(data)
	if err != nil {
		s.logger.Info("session: discarding unreadable record", "key", s.key, "error", err)
		s.removeLocked(ctx)
		return Anonymous(), RestoreMalformed
	}
	if sess.IsAnonymous() {
		s.removeLocked(ctx)
		return Anonymous(), RestoreEmpty
	}
	if jwt.Expired(sess.Token, s.now(), s.leeway) {
		s.logger.Info("session: discarding expired record", "key", s.key, "role", sess.Role.String())
		s.removeLocked(ctx)
		return Anonymous(), RestoreExpired
	}
	return sess, RestoreHydrated
}

// Login replaces the session with the given identity and persists it. An empty token or
// the anonymous role behaves as Logout.
func (s *Store) Login(ctx context.Context, token string, role permission.Role, displayName, avatarURL string) {
	if token == "" || role == permission.Anonymous || !role.Valid() {
		s.Logout(ctx)
		return
	}

	next := Session{
		Token:       token,
		Role:        role,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.persistLocked(ctx, next)
	s.replaceLocked(next, ReasonLogin)
}

// Update refreshes token and display data after a profile edit. The role is kept. An
// empty token keeps the current one. Update on an anonymous session does nothing.
func (s *Store) Update(ctx context.Context, token, displayName, avatarURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.Current()
	if prev.IsAnonymous() {
		return
	}
	next := prev
	if token != "" {
		next.Token = token
	}
	next.DisplayName = displayName
	next.AvatarURL = avatarURL
	if next == prev {
		return
	}

	s.persistLocked(ctx, next)
	s.replaceLocked(next, ReasonUpdate)
}

// Logout resets to anonymous and removes the persisted record. Logging out an anonymous
// session does nothing.
func (s *Store) Logout(ctx context.Context) {
	s.logout(ctx, ReasonLogout)
}

// LogoutIfExpired logs out when the current token carries an exp in the past. It
// reports whether it did.
func (s *Store) LogoutIfExpired(ctx context.Context) bool {
	cur := s.Current()
	if cur.IsAnonymous() || !jwt.Expired(cur.Token, s.now(), s.leeway) {
		return false
	}
	return s.logout(ctx, ReasonExpired)
}

func (s *Store) logout(ctx context.Context, reason Reason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Current().IsAnonymous() {
		return false
	}
	s.removeLocked(ctx)
	s.replaceLocked(Anonymous(), reason)
	return true
}

// Subscribe registers fn to receive every new snapshot in application order. The
// returned func unsubscribes and is safe to call more than once, including from fn.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) replaceLocked(next Session, reason Reason) {
	prev := *s.current.Swap(&next)
	if s.hooks.OnChange != nil {
		s.hooks.OnChange(prev, next, reason)
	}

	s.subsMu.RLock()
	fns := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (s *Store) persistLocked(ctx context.Context, sess Session) {
	if s.storage == nil {
		return
	}
	data, err := Encode(sess)
	if err == nil {
		err = s.storage.Set(ctx, s.key, data)
	}
	if err != nil {
		s.logger.Warn("session: persist failed; continuing in memory", "key", s.key, "error", err)
		s.reportPersistError("persist", err)
	}
}

// removeLocked deletes the persisted record. When the delete fails an anonymous
// record is written over it, so the next restore of this context finds nobody
// signed in.
func (s *Store) removeLocked(ctx context.Context) {
	if s.storage == nil {
		return
	}
	err := s.storage.Remove(ctx, s.key)
	if err == nil {
		return
	}
	s.logger.Warn("session: remove failed", "key", s.key, "error", err)
	s.reportPersistError("remove", err)

	data, encErr := Encode(Anonymous())
	if encErr != nil {
		return
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.logger.Error("session: signed-out record could not be persisted", "key", s.key, "error", err)
		s.reportPersistError("tombstone", err)
	}
}

func (s *Store) reportPersistError(op string, err error) {
	if s.hooks.OnPersistError != nil {
		s.hooks.OnPersistError(op, err)
	}
}
