package provider

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoadFunc loads a provider. It may block on network or disk.
type LoadFunc func(ctx context.Context) (Provider, error)

// Holder owns the process-wide provider. The first Get loads it; concurrent
// first calls share that single load. A successful load is kept until Reload;
// a failed one is reported to every waiting caller and the next Get tries
// again.
type Holder struct {
	load   LoadFunc
	group  singleflight.Group
	onLoad func(error)

	mu       sync.RWMutex
	current  Provider
	loadedAt time.Time
	lastErr  error
}

// NewHolder creates an empty holder. onLoad, if set, observes every load
// attempt.
func NewHolder(load LoadFunc, onLoad func(error)) *Holder {
	return &Holder{load: load, onLoad: onLoad}
}

// Status is a snapshot of the holder.
type Status struct {
	Loaded    bool       `json:"loaded"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Model     *ModelInfo `json:"model,omitempty"`
}

// Get returns the loaded provider, loading it on first use.
func (h *Holder) Get(ctx context.Context) (Provider, error) {
	h.mu.RLock()
	p := h.current
	h.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	v, err, _ := h.group.Do("load", func() (any, error) {
		h.mu.RLock()
		p := h.current
		h.mu.RUnlock()
		if p != nil {
			return p, nil
		}
		// Waiters share this load, so one caller's cancellation must not fail it.
		return h.loadNow(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(Provider), nil
}

// Reload discards the current provider and loads a fresh one. On failure the
// previous provider is kept. Like Get, the load outlives a cancelled caller
// since concurrent Get calls may be waiting on it.
func (h *Holder) Reload(ctx context.Context) (Provider, error) {
	v, err, _ := h.group.Do("load", func() (any, error) {
		return h.loadNow(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(Provider), nil
}

// Status reports whether a provider is loaded and the last load error.
func (h *Holder) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := Status{Loaded: h.current != nil}
	if h.current != nil {
		info := h.current.Info()
		loadedAt := h.loadedAt
		st.Model = &info
		st.LoadedAt = &loadedAt
	}
	if h.lastErr != nil {
		st.LastError = h.lastErr.Error()
	}
	return st
}

func (h *Holder) loadNow(ctx context.Context) (Provider, error) {
	started := time.Now()
	p, err := h.load(ctx)
	if err != nil {
		err = unavailable("load", err)
	}
	if h.onLoad != nil {
		h.onLoad(err)
	}

	h.mu.Lock()
	h.lastErr = err
	if err == nil {
		h.current = p
		h.loadedAt = time.Now()
	}
	h.mu.Unlock()

	if err != nil {
		zap.L().Error("model load failed", zap.Error(err))
		return nil, err
	}
	info := p.Info()
	zap.L().Info("model loaded",
		zap.String("name", info.Name),
		zap.String("kind", info.Kind),
		zap.Int("columns", info.Columns),
		zap.Duration("took", time.Since(started)),
	)
	return p, nil
}
