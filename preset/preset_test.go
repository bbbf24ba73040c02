package preset

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mbeoliero/learncache"
	"github.com/mbeoliero/learncache/tier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Progress struct {
	UserID    string  `json:"userId"`
	Completed int     `json:"completed"`
	Accuracy  float64 `json:"accuracy"`
}

func mockFetchProgress(ctx context.Context) (Progress, bool, error) {
	return Progress{UserID: "u1", Completed: 12, Accuracy: 0.9}, true, nil
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s, redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
}

func TestNewManager(t *testing.T) {
	s, rdb := setupRedis(t)
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	cache := NewManager[Progress](rdb, Options{Name: "progress", Prefix: "app:", Registry: reg})
	assert.Equal(t, "progress", cache.Name())

	p, ok, err := cache.Get(ctx, learncache.CategoryUserProgress, "u1", mockFetchProgress)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, p.Completed)

	assert.True(t, s.Exists("app:user_progress:u1"))
	assert.Equal(t, 5*time.Minute, s.TTL("app:user_progress:u1"))

	n, err := testutil.GatherAndCount(reg, "learncache_store_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewManagerDefaults(t *testing.T) {
	_, rdb := setupRedis(t)
	cache := NewManager[string](rdb, Options{}, learncache.WithCoalescing[string]())
	assert.Equal(t, "default", cache.Name())
	assert.Len(t, cache.Policy().Categories(), 5)
}

func TestNewTierService(t *testing.T) {
	s, rdb := setupRedis(t)
	ctx := context.Background()

	src := tier.SourceFunc(func(ctx context.Context, userID string) (*tier.Subscription, error) {
		return &tier.Subscription{Status: "active", Plan: "premium.monthly"}, nil
	})
	svc := NewTierService(rdb, src, 0, Options{})
	assert.Equal(t, tier.DefaultTTL, svc.TTL())

	assert.Equal(t, tier.PremiumMonthly, svc.GetTier(ctx, "u1"))
	assert.True(t, s.Exists("user_tier:u1"))

	short := NewTierService(rdb, src, 10*time.Second, Options{Prefix: "t:"})
	short.GetTier(ctx, "u2")
	assert.Equal(t, 10*time.Second, s.TTL("t:u2"))
}
