package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimator/internal/config"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/model"
	"estimator/internal/provider"
)

type fakeProvider struct {
	price   float64
	columns []string
	err     error

	mu   sync.Mutex
	seen []features.Record
}

func (p *fakeProvider) Predict(_ context.Context, in features.Record) (float64, error) {
	p.mu.Lock()
	p.seen = append(p.seen, in)
	p.mu.Unlock()
	return p.price, p.err
}

func (p *fakeProvider) ExpectedColumns() []string { return p.columns }

func (p *fakeProvider) Info() provider.ModelInfo {
	return provider.ModelInfo{Name: "fake", Kind: "test", Columns: len(p.columns)}
}

type fakeStore struct {
	mu      sync.Mutex
	saved   []*model.EstimateLog
	saveErr error

	similarLimit int
	similarVec   pgvector.Vector
}

func (s *fakeStore) SaveEstimate(_ context.Context, e *model.EstimateLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, e)
	return nil
}

func (s *fakeStore) GetEstimate(_ context.Context, id uuid.UUID) (*model.EstimateLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.saved {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) RecentEstimates(_ context.Context, limit int) ([]model.EstimateLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EstimateLog
	for i := len(s.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *s.saved[i])
	}
	return out, nil
}

func (s *fakeStore) SimilarEstimates(_ context.Context, vec pgvector.Vector, exclude uuid.UUID, limit int) ([]model.SimilarLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.similarVec, s.similarLimit = vec, limit
	var out []model.SimilarLog
	for _, e := range s.saved {
		if e.ID != exclude {
			out = append(out, model.SimilarLog{EstimateLog: *e, Distance: 1})
		}
	}
	return out, nil
}

var testEstimateConfig = config.EstimateConfig{
	RangeFraction:       0.10,
	SimilarDefaultLimit: 5,
	SimilarMaxLimit:     20,
}

func newTestService(p provider.Provider, store EstimateStore) (*EstimateService, *metrics.Metrics) {
	m := metrics.New()
	holder := provider.NewHolder(func(context.Context) (provider.Provider, error) {
		return p, nil
	}, m.ObserveModelLoad)
	return NewEstimateService(holder, store, m, testEstimateConfig), m
}

func scenarioInput() features.RawInput {
	area, rooms := 65.0, 2
	apartment, cosmetic, center := features.PropertyApartment, features.RenovationCosmetic, features.MetroCenter
	return features.RawInput{
		TotalArea:    &area,
		Rooms:        &rooms,
		PropertyType: &apartment,
		Renovation:   &cosmetic,
		Metro:        &center,
	}
}

func TestEstimate(t *testing.T) {
	p := &fakeProvider{price: 100000}
	svc, m := newTestService(p, nil)

	est, err := svc.Estimate(context.Background(), scenarioInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, est.ID)
	assert.Equal(t, 100000.0, est.Price)
	assert.InDelta(t, 90000, est.RangeLow, 1e-6)
	assert.InDelta(t, 110000, est.RangeHigh, 1e-6)
	assert.Nil(t, est.SchemaDiff)
	assert.Equal(t, "fake", est.Model.Name)

	require.Len(t, est.Features, 15)
	v, _ := est.Features.Get(features.ColApartment)
	assert.Equal(t, 1.0, v)
	v, _ = est.Features.Get(features.ColRenovation)
	assert.Equal(t, 1.0, v)
	v, _ = est.Features.Get(features.ColMetro)
	assert.Equal(t, 1.0, v)
	v, _ = est.Features.Get(features.ColCeilingHeight)
	assert.Equal(t, 0.0, v)

	// Without published columns the model sees the encoder's record.
	assert.Equal(t, est.Features, est.ModelInput)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Estimates.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestEstimate_ReconcilesAndReportsMismatch(t *testing.T) {
	p := &fakeProvider{price: 5, columns: []string{features.ColMetro, "floor", features.ColTotalArea}}
	svc, m := newTestService(p, nil)

	est, err := svc.Estimate(context.Background(), scenarioInput())
	require.NoError(t, err)

	assert.Equal(t, []string{features.ColMetro, "floor", features.ColTotalArea}, est.ModelInput.Names())
	assert.Equal(t, []float64{1, 0, 65}, est.ModelInput.Values())
	require.Len(t, p.seen, 1)
	assert.Equal(t, est.ModelInput, p.seen[0])

	require.NotNil(t, est.SchemaDiff)
	assert.Equal(t, []string{"floor"}, est.SchemaDiff.Missing)
	assert.Len(t, est.SchemaDiff.Extra, 13)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SchemaMismatch.WithLabelValues("missing")))
	assert.Equal(t, 13.0, testutil.ToFloat64(m.SchemaMismatch.WithLabelValues("extra")))
}

func TestEstimate_ProviderUnavailable(t *testing.T) {
	m := metrics.New()
	holder := provider.NewHolder(func(context.Context) (provider.Provider, error) {
		return nil, errors.New("artifact missing")
	}, m.ObserveModelLoad)
	svc := NewEstimateService(holder, nil, m, testEstimateConfig)

	_, err := svc.Estimate(context.Background(), scenarioInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Estimates.WithLabelValues(metrics.OutcomeUnavailable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoads.WithLabelValues(metrics.OutcomeError)))

	_, err = svc.Encode(context.Background(), scenarioInput())
	assert.ErrorIs(t, err, provider.ErrUnavailable)
}

func TestEstimate_PredictErrors(t *testing.T) {
	unavailable := &provider.UnavailableError{Op: "predict", Err: errors.New("connection refused")}
	svc, m := newTestService(&fakeProvider{err: unavailable}, nil)
	_, err := svc.Estimate(context.Background(), scenarioInput())
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Estimates.WithLabelValues(metrics.OutcomeUnavailable)))

	svc, m = newTestService(&fakeProvider{err: provider.ErrDimension}, nil)
	_, err = svc.Estimate(context.Background(), scenarioInput())
	assert.ErrorIs(t, err, provider.ErrDimension)
	assert.NotErrorIs(t, err, provider.ErrUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Estimates.WithLabelValues(metrics.OutcomeError)))
}

func TestEstimateStream_Events(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{price: 1, columns: []string{features.ColTotalArea}}, nil)

	var stages []string
	est, err := svc.EstimateStream(context.Background(), scenarioInput(), func(event string, data any) error {
		stages = append(stages, event)
		ev, ok := data.(model.EstimateEvent)
		require.True(t, ok)
		if event == model.StageReconciled {
			assert.Equal(t, []string{features.ColTotalArea}, ev.ModelInput.Names())
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, est.Price)
	assert.Equal(t, []string{model.StageEncoding, model.StageReconciled, model.StagePredicting}, stages)
}

func TestEstimateStream_CallbackErrorStops(t *testing.T) {
	p := &fakeProvider{price: 1}
	svc, _ := newTestService(p, nil)
	closed := errors.New("client gone")

	_, err := svc.EstimateStream(context.Background(), scenarioInput(), func(event string, data any) error {
		if event == model.StageReconciled {
			return closed
		}
		return nil
	})
	assert.ErrorIs(t, err, closed)
	assert.Empty(t, p.seen)
}

func TestEstimate_LogsToStore(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(&fakeProvider{price: 100000}, store)

	est, err := svc.Estimate(context.Background(), scenarioInput())
	require.NoError(t, err)
	svc.Wait()

	require.Len(t, store.saved, 1)
	assert.Equal(t, est.ID, store.saved[0].ID)

	got, err := svc.GetEstimate(context.Background(), est.ID)
	require.NoError(t, err)
	assert.Equal(t, est.Price, got.Price)
	assert.Equal(t, est.Features, got.Features)

	_, err = svc.GetEstimate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEstimate_StoreFailureDoesNotFailEstimate(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("db down")}
	svc, _ := newTestService(&fakeProvider{price: 1}, store)

	_, err := svc.Estimate(context.Background(), scenarioInput())
	require.NoError(t, err)
	svc.Wait()
	assert.Empty(t, store.saved)
}

func TestStorageDisabled(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{}, nil)

	_, err := svc.GetEstimate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.Similar(context.Background(), uuid.New(), 3)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = svc.Recent(context.Background(), 3)
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestSimilarAndRecent(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newTestService(&fakeProvider{price: 100}, store)

	var ids []uuid.UUID
	for range 3 {
		est, err := svc.Estimate(context.Background(), scenarioInput())
		require.NoError(t, err)
		ids = append(ids, est.ID)
		svc.Wait()
	}

	similar, err := svc.Similar(context.Background(), ids[0], 0)
	require.NoError(t, err)
	assert.Len(t, similar, 2)
	assert.Equal(t, testEstimateConfig.SimilarDefaultLimit, store.similarLimit)
	assert.Len(t, store.similarVec.Slice(), 15)
	for _, s := range similar {
		assert.NotEqual(t, ids[0], s.ID)
	}

	_, err = svc.Similar(context.Background(), ids[0], 1000)
	require.NoError(t, err)
	assert.Equal(t, testEstimateConfig.SimilarMaxLimit, store.similarLimit)

	recent, err := svc.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
}

func TestEncode(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{columns: []string{"b", features.ColRooms}}, nil)

	res, err := svc.Encode(context.Background(), scenarioInput())
	require.NoError(t, err)
	assert.Len(t, res.Features, 15)
	assert.Equal(t, []string{"b", features.ColRooms}, res.ModelInput.Names())
	assert.Equal(t, []float64{0, 2}, res.ModelInput.Values())
	assert.Equal(t, []string{"b", features.ColRooms}, res.Columns)
	require.NotNil(t, res.SchemaDiff)
	assert.Equal(t, []string{"b"}, res.SchemaDiff.Missing)
}

func TestModelStatusAndReload(t *testing.T) {
	svc, m := newTestService(&fakeProvider{columns: []string{"a"}}, nil)
	assert.False(t, svc.ModelStatus().Loaded)

	info, err := svc.ReloadModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fake", info.Name)

	st := svc.ModelStatus()
	assert.True(t, st.Loaded)
	require.NotNil(t, st.LoadedAt)
	assert.WithinDuration(t, time.Now(), *st.LoadedAt, time.Minute)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelLoads.WithLabelValues(metrics.OutcomeSuccess)))
}
