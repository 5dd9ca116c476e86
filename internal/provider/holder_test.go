package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/internal/features"
)

type staticProvider struct {
	price float64
}

func (p staticProvider) Predict(context.Context, features.Record) (float64, error) {
	return p.price, nil
}

func (p staticProvider) ExpectedColumns() []string { return nil }

func (p staticProvider) Info() ModelInfo { return ModelInfo{Name: "static", Kind: "test"} }

func TestHolder_ConcurrentFirstUseLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	h := NewHolder(func(ctx context.Context) (Provider, error) {
		loads.Add(1)
		<-release
		return staticProvider{price: 42}, nil
	}, nil)

	const callers = 16
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	results := make([]Provider, callers)
	errs := make([]error, callers)
	started.Add(callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			results[i], errs[i] = h.Get(context.Background())
		}()
	}
	started.Wait()
	close(release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, staticProvider{price: 42}, results[i])
	}
	assert.Equal(t, int32(1), loads.Load())

	_, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), loads.Load())
}

func TestHolder_FailedLoadIsRetried(t *testing.T) {
	var loads atomic.Int32
	var observed []error
	h := NewHolder(func(ctx context.Context) (Provider, error) {
		if loads.Add(1) == 1 {
			return nil, errors.New("artifact missing")
		}
		return staticProvider{price: 7}, nil
	}, func(err error) { observed = append(observed, err) })

	_, err := h.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	st := h.Status()
	assert.False(t, st.Loaded)
	assert.Contains(t, st.LastError, "artifact missing")

	p, err := h.Get(context.Background())
	require.NoError(t, err)
	price, err := p.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, price)
	assert.Equal(t, int32(2), loads.Load())

	st = h.Status()
	assert.True(t, st.Loaded)
	assert.Empty(t, st.LastError)
	require.NotNil(t, st.Model)
	assert.Equal(t, "static", st.Model.Name)

	require.Len(t, observed, 2)
	assert.Error(t, observed[0])
	assert.NoError(t, observed[1])
}

func TestHolder_CancelledCallerDoesNotFailLoad(t *testing.T) {
	h := NewHolder(func(ctx context.Context) (Provider, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return staticProvider{price: 1}, nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Get(ctx)
	assert.NoError(t, err)
}

func TestHolder_ReloadKeepsPreviousOnFailure(t *testing.T) {
	var fail atomic.Bool
	h := NewHolder(func(ctx context.Context) (Provider, error) {
		if fail.Load() {
			return nil, errors.New("download failed")
		}
		return staticProvider{price: 3}, nil
	}, nil)

	_, err := h.Get(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	_, err = h.Reload(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	p, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, staticProvider{price: 3}, p)
	assert.True(t, h.Status().Loaded)
	assert.Contains(t, h.Status().LastError, "download failed")
}

func TestHolder_CancelledReloadDoesNotFailLoad(t *testing.T) {
	var loads atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	h := NewHolder(func(ctx context.Context) (Provider, error) {
		loads.Add(1)
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return staticProvider{price: 5}, nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.Reload(ctx)
		done <- err
	}()

	<-entered
	cancel()
	close(release)
	require.NoError(t, <-done)

	st := h.Status()
	assert.True(t, st.Loaded)
	assert.Empty(t, st.LastError)

	p, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, staticProvider{price: 5}, p)
	assert.Equal(t, int32(1), loads.Load())
}
