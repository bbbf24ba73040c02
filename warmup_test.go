package learncache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowProvider struct {
	name string
}

func (s slowProvider) Name() string { return s.name }

func (s slowProvider) Warmup(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWarmerRunsAllProviders(t *testing.T) {
	f := newFixture[string](t)
	ctx := context.Background()

	good := CategoryWarmup(f.m, "B", func(context.Context) ([]Item[string], error) {
		return []Item[string]{{Key: "intro", Value: "hello"}, {Key: "outro", Value: "bye"}}, nil
	})
	bad := CategoryWarmup(f.m, "B", func(context.Context) ([]Item[string], error) {
		return nil, errors.New("catalog unavailable")
	})
	unknown := CategoryWarmup(f.m, "nope", func(context.Context) ([]Item[string], error) {
		return nil, nil
	})
	assert.Equal(t, "default/B", good.Name())

	res := NewWarmer(time.Second, nil).Register(good, bad, unknown).Run(ctx)
	require.Len(t, res.Results, 3)
	assert.True(t, res.HasErrors())
	assert.Equal(t, 2, res.Errors)

	v, ok, err := f.m.Get(ctx, "B", "intro", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.True(t, f.s.Exists("B:outro"))
}

func TestWarmerTimeout(t *testing.T) {
	res := NewWarmer(50*time.Millisecond, nil).Register(slowProvider{name: "slow"}).Run(context.Background())
	require.Len(t, res.Results, 1)
	assert.ErrorIs(t, res.Results[0].Err, context.DeadlineExceeded)
	assert.Less(t, res.TotalTime, time.Second)
}
