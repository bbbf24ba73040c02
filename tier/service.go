package tier

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mbeoliero/learncache/cacher"
)

const (
	// DefaultTTL bounds how long a resolved tier may be served after a billing change.
	DefaultTTL = 60 * time.Second
	// DefaultKeyPrefix is the per-user namespace of tier records in the distributed tier.
	DefaultKeyPrefix = "user_tier:"
	// NotCached is reported by CacheTTL for users without a live record.
	NotCached time.Duration = -1
)

var ErrEmptyUserID = errors.New("tier: empty user id")

// Record is the cached tier of one user.
type Record struct {
	UserID   string    `json:"userId"`
	Tier     Tier      `json:"tier"`
	CachedAt time.Time `json:"cachedAt"`
}

// Subscription is the billing state of a user as stored by the source of record.
type Subscription struct {
	Status string
	Plan   string
}

// Source looks up the subscription of a user. A nil Subscription with a nil error
// means the user has none.
type Source interface {
	Lookup(ctx context.Context, userID string) (*Subscription, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, userID string) (*Subscription, error)

func (f SourceFunc) Lookup(ctx context.Context, userID string) (*Subscription, error) {
	return f(ctx, userID)
}

// Store holds tier records keyed by user id. *rediscache.RedisCache[string, Record]
// satisfies it.
type Store interface {
	cacher.Interface[string, Record]
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// FromSubscription resolves the tier granted by sub. Only active or trialing
// subscriptions on a premium plan grant a premium tier.
func FromSubscription(sub *Subscription) Tier {
	if sub == nil {
		return Free
	}
	switch strings.ToLower(strings.TrimSpace(sub.Status)) {
	case "active", "trialing":
	default:
		return Free
	}
	if t := Normalize(sub.Plan); t.IsPremium() {
		return t
	}
	return Free
}

type Option func(*Service)

// WithTTL sets the lifetime of tier records. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(logger cacher.Logger) Option {
	return func(s *Service) {
		s.logger = cacher.OrNop(logger)
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// Service caches the subscription tier of each user in the distributed tier only, with
// a short uniform TTL. It never returns an error from GetTier and never resolves to a
// tier higher than the source grants: when both the cache and the source fail it
// concedes Free.
type Service struct {
	store  Store
	source Source
	ttl    time.Duration
	clock  clockwork.Clock
	logger cacher.Logger
}

func NewService(store Store, source Source, opts ...Option) *Service {
	s := &Service{
		store:  store,
		source: source,
		ttl:    DefaultTTL,
		clock:  clockwork.NewRealClock(),
		logger: cacher.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) GetTier(ctx context.Context, userID string) Tier {
	if userID == "" {
		return Guest
	}

	found, _, err := s.store.MGet(ctx, []string{userID})
	if err != nil {
		s.logger.CtxError(ctx, "[tier-cache] read failed, querying source directly. user=%s err=%v", userID, err)
		t, err := s.resolve(ctx, userID)
		if err != nil {
			s.logger.CtxError(ctx, "[tier-cache] last resort lookup failed, defaulting to %s. user=%s err=%v", Free, userID, err)
			return Free
		}
		return t
	}
	if rec, ok := found[userID]; ok {
		return Normalize(string(rec.Tier))
	}

	t, err := s.resolve(ctx, userID)
	if err != nil {
		s.logger.CtxError(ctx, "[tier-cache] source lookup failed, retrying. user=%s err=%v", userID, err)
		if t, err = s.resolve(ctx, userID); err != nil {
			s.logger.CtxError(ctx, "[tier-cache] source lookup failed, defaulting to %s. user=%s err=%v", Free, userID, err)
			return Free
		}
	}

	if err = s.write(ctx, userID, t); err != nil {
		s.logger.CtxError(ctx, "[tier-cache] write failed. user=%s tier=%s err=%v", userID, t, err)
	}
	return t
}

func (s *Service) resolve(ctx context.Context, userID string) (Tier, error) {
	sub, err := s.source.Lookup(ctx, userID)
	if err != nil {
		return "", err
	}
	return FromSubscription(sub), nil
}

func (s *Service) write(ctx context.Context, userID string, t Tier) error {
	rec := Record{UserID: userID, Tier: t, CachedAt: s.clock.Now()}
	return s.store.MSet(ctx, map[string]Record{userID: rec}, s.ttl)
}

// SetTier overwrites the cached tier of userID, e.g. for a manual override.
func (s *Service) SetTier(ctx context.Context, userID string, t Tier) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return s.write(ctx, userID, Normalize(string(t)))
}

// Invalidate drops the cached tier so the next GetTier re-derives it from source.
// Billing handlers must call it right after persisting a subscription change.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	return s.store.MDel(ctx, []string{userID})
}

// InvalidateBatch drops the cached tiers of every user in one call. Empty ids are skipped.
func (s *Service) InvalidateBatch(ctx context.Context, userIDs []string) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			keys = append(keys, id)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.store.MDel(ctx, keys); err != nil {
		return err
	}
	s.logger.CtxInfo(ctx, "[tier-cache] invalidated %d users", len(keys))
	return nil
}

func (s *Service) IsCached(ctx context.Context, userID string) bool {
	return s.CacheTTL(ctx, userID) > 0
}

// CacheTTL returns the remaining lifetime of the cached tier, or NotCached.
func (s *Service) CacheTTL(ctx context.Context, userID string) time.Duration {
	if userID == "" {
		return NotCached
	}
	ttl, err := s.store.TTL(ctx, userID)
	if err != nil {
		s.logger.CtxError(ctx, "[tier-cache] ttl lookup failed. user=%s err=%v", userID, err)
		return NotCached
	}
	if ttl <= 0 {
		return NotCached
	}
	return ttl
}

// WarmUp resolves and caches the tier of userID ahead of its first request.
func (s *Service) WarmUp(ctx context.Context, userID string) Tier {
	t := s.GetTier(ctx, userID)
	s.logger.CtxInfo(ctx, "[tier-cache] warmed. user=%s tier=%s", userID, t)
	return t
}
