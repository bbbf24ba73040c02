package cacher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingStore struct {
	calls *[]string
	name  string
}

func (r recordingStore) Name() string { return r.name }

func (r recordingStore) MGet(ctx context.Context, keys []string) (map[string]int, []string, error) {
	*r.calls = append(*r.calls, r.name)
	return map[string]int{}, keys, nil
}

func (r recordingStore) MSet(ctx context.Context, entities map[string]int, ttl time.Duration) error {
	return nil
}

func (r recordingStore) MDel(ctx context.Context, keys []string) error { return nil }

func (r recordingStore) DelPattern(ctx context.Context, pattern string) (int, error) { return 0, nil }

func tagging(tag string) Middleware[string, int] {
	return func(next Interface[string, int]) Interface[string, int] {
		return tagged{Interface: next, tag: tag}
	}
}

type tagged struct {
	Interface[string, int]
	tag string
}

func (t tagged) MGet(ctx context.Context, keys []string) (map[string]int, []string, error) {
	rec := t.Interface.(interface{ record(string) })
	rec.record(t.tag)
	return t.Interface.MGet(ctx, keys)
}

func (r recordingStore) record(s string) { *r.calls = append(*r.calls, s) }

func (t tagged) record(s string) { t.Interface.(interface{ record(string) }).record(s) }

func TestWrapperStoreOrder(t *testing.T) {
	var calls []string
	base := recordingStore{calls: &calls, name: "base"}

	assert.Equal(t, Interface[string, int](base), WrapperStore[string, int](base))

	s := WrapperStore[string, int](base, tagging("outer"), tagging("inner"))
	_, _, err := s.MGet(context.Background(), []string{"k"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "base"}, calls)
	assert.Equal(t, "base", s.Name())
}

func TestWrapperStoreSkipsNil(t *testing.T) {
	var calls []string
	base := recordingStore{calls: &calls, name: "base"}

	s := WrapperStore[string, int](base, nil, tagging("only"), nil)
	_, _, err := s.MGet(context.Background(), []string{"k"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"only", "base"}, calls)
}

func TestRunInfo(t *testing.T) {
	info := GetRunInfo(context.Background())
	assert.Equal(t, 0, info.Level())
	assert.Equal(t, "", info.Category())

	ctx := NewContext(context.Background(), NewRunInfo(2, "lesson"))
	assert.Equal(t, 2, GetRunInfo(ctx).Level())
	assert.Equal(t, "lesson", GetRunInfo(ctx).Category())
}

func TestExpiries(t *testing.T) {
	assert.Nil(t, ExpiriesFrom(context.Background()))
	var none *Expiries
	_, ok := none.Get("k")
	assert.False(t, ok)

	ctx, exp := WithExpiries(context.Background())
	assert.Same(t, exp, ExpiriesFrom(ctx))

	exp.Record("live", 3*time.Second)
	exp.Record("persistent", -1)
	ttl, ok := exp.Get("live")
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, ttl)
	_, ok = exp.Get("persistent")
	assert.False(t, ok)
	_, ok = exp.Get("unknown")
	assert.False(t, ok)
}
