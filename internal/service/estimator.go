package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"estimator/internal/config"
	"estimator/internal/features"
	"estimator/internal/metrics"
	"estimator/internal/model"
	"estimator/internal/provider"
)

// ErrStorageDisabled is returned by prediction log reads when no database
// is configured.
var ErrStorageDisabled = errors.New("prediction log is disabled")

// ErrNotFound is returned when an estimate is not in the prediction log.
var ErrNotFound = errors.New("estimate not found")

const saveTimeout = 5 * time.Second

// EstimateStore is the prediction log
type EstimateStore interface {
	SaveEstimate(ctx context.Context, e *model.EstimateLog) error
	GetEstimate(ctx context.Context, id uuid.UUID) (*model.EstimateLog, error)
	RecentEstimates(ctx context.Context, limit int) ([]model.EstimateLog, error)
	SimilarEstimates(ctx context.Context, vec pgvector.Vector, exclude uuid.UUID, limit int) ([]model.SimilarLog, error)
}

// EstimateService turns form input into price estimates
type EstimateService struct {
	models  *provider.Holder
	store   EstimateStore
	metrics *metrics.Metrics
	cfg     config.EstimateConfig
	now     func() time.Time

	pending sync.WaitGroup
}

// NewEstimateService creates a new estimate service. store and m may be nil.
func NewEstimateService(
	models *provider.Holder,
	store EstimateStore,
	m *metrics.Metrics,
	cfg config.EstimateConfig,
) *EstimateService {
	return &EstimateService{
		models:  models,
		store:   store,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}
}

// EstimateEventCallback is called for streaming estimate events
type EstimateEventCallback func(event string, data any) error

// Estimate encodes raw, aligns it with the model and predicts a price
func (s *EstimateService) Estimate(ctx context.Context, raw features.RawInput) (*model.Estimate, error) {
	return s.estimate(ctx, raw, nil)
}

// EstimateStream is Estimate with progress events
func (s *EstimateService) EstimateStream(ctx context.Context, raw features.RawInput, callback EstimateEventCallback) (*model.Estimate, error) {
	return s.estimate(ctx, raw, callback)
}

func (s *EstimateService) estimate(ctx context.Context, raw features.RawInput, callback EstimateEventCallback) (*model.Estimate, error) {
	startTime := time.Now()
	emit := func(event model.EstimateEvent) error {
		if callback == nil {
			return nil
		}
		return callback(event.Stage, event)
	}

	if err := emit(model.EstimateEvent{Stage: model.StageEncoding, Message: "Подготавливаю данные..."}); err != nil {
		return nil, err
	}

	rec := features.Encode(raw)
	p, err := s.models.Get(ctx)
	if err != nil {
		s.metrics.ObserveEstimate(metrics.OutcomeUnavailable, time.Since(startTime))
		return nil, err
	}

	info := p.Info()
	expected := p.ExpectedColumns()
	diff := s.checkSchema(rec, expected, info)
	modelInput := features.Reconcile(rec, expected)

	if err := emit(model.EstimateEvent{
		Stage:      model.StageReconciled,
		Message:    fmt.Sprintf("%d признаков для модели", len(modelInput)),
		ModelInput: modelInput,
		SchemaDiff: diff,
	}); err != nil {
		return nil, err
	}
	if err := emit(model.EstimateEvent{Stage: model.StagePredicting, Message: "Делаю предсказание..."}); err != nil {
		return nil, err
	}

	price, err := p.Predict(ctx, modelInput)
	if err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			s.metrics.ObserveEstimate(metrics.OutcomeUnavailable, time.Since(startTime))
			return nil, err
		}
		s.metrics.ObserveEstimate(metrics.OutcomeError, time.Since(startTime))
		return nil, fmt.Errorf("service: predict with model %q: %w", info.Name, err)
	}

	est := &model.Estimate{
		ID:         uuid.New(),
		Price:      price,
		RangeLow:   price * (1 - s.cfg.RangeFraction),
		RangeHigh:  price * (1 + s.cfg.RangeFraction),
		Input:      raw,
		Features:   rec,
		ModelInput: modelInput,
		SchemaDiff: diff,
		Model:      info,
		CreatedAt:  s.now().UTC(),
	}
	s.metrics.ObserveEstimate(metrics.OutcomeSuccess, time.Since(startTime))

	// Log estimate (non-blocking)
	if s.store != nil {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.save(est)
		}()
	}

	return est, nil
}

// checkSchema reports columns the model expects but the encoder does not
// produce, and the reverse. Reconcile zero-fills and drops them; this only
// makes the mismatch visible.
func (s *EstimateService) checkSchema(rec features.Record, expected []string, info provider.ModelInfo) *features.SchemaDiff {
	diff := features.Diff(rec, expected)
	if diff.Empty() {
		return nil
	}

	zap.L().Warn("feature schema mismatch",
		zap.String("model", info.Name),
		zap.Strings("missing", diff.Missing),
		zap.Strings("extra", diff.Extra),
	)
	s.metrics.ObserveSchemaMismatch(len(diff.Missing), len(diff.Extra))
	return &diff
}

func (s *EstimateService) save(est *model.Estimate) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	row, err := model.NewEstimateLog(est)
	if err == nil {
		err = s.store.SaveEstimate(ctx, row)
	}
	if err != nil {
		zap.L().Warn("failed to log estimate", zap.Stringer("id", est.ID), zap.Error(err))
	}
}

// Wait blocks until all pending prediction log writes have finished
func (s *EstimateService) Wait() {
	s.pending.Wait()
}

// Encode encodes raw and aligns it with the model without predicting
func (s *EstimateService) Encode(ctx context.Context, raw features.RawInput) (*model.EncodeResult, error) {
	rec := features.Encode(raw)
	p, err := s.models.Get(ctx)
	if err != nil {
		return nil, err
	}

	expected := p.ExpectedColumns()
	return &model.EncodeResult{
		Features:   rec,
		ModelInput: features.Reconcile(rec, expected),
		SchemaDiff: s.checkSchema(rec, expected, p.Info()),
		Columns:    expected,
	}, nil
}

// GetEstimate retrieves a logged estimate
func (s *EstimateService) GetEstimate(ctx context.Context, id uuid.UUID) (*model.Estimate, error) {
	row, err := s.getLog(ctx, id)
	if err != nil {
		return nil, err
	}
	return row.Estimate()
}

// Similar returns logged estimates closest to the estimate id
func (s *EstimateService) Similar(ctx context.Context, id uuid.UUID, limit int) ([]model.SimilarEstimate, error) {
	ref, err := s.getLog(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.SimilarEstimates(ctx, ref.Features, id, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]model.SimilarEstimate, 0, len(rows))
	for i := range rows {
		e, err := rows[i].Estimate()
		if err != nil {
			return nil, err
		}
		out = append(out, model.SimilarEstimate{Estimate: *e, Distance: rows[i].Distance})
	}
	return out, nil
}

// Recent returns the newest logged estimates
func (s *EstimateService) Recent(ctx context.Context, limit int) ([]model.Estimate, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	rows, err := s.store.RecentEstimates(ctx, s.clampLimit(limit))
	if err != nil {
		return nil, err
	}

	out := make([]model.Estimate, 0, len(rows))
	for i := range rows {
		e, err := rows[i].Estimate()
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// ModelStatus reports the model holder state
func (s *EstimateService) ModelStatus() provider.Status {
	return s.models.Status()
}

// ReloadModel loads the model again
func (s *EstimateService) ReloadModel(ctx context.Context) (provider.ModelInfo, error) {
	p, err := s.models.Reload(ctx)
	if err != nil {
		return provider.ModelInfo{}, err
	}
	return p.Info(), nil
}

func (s *EstimateService) getLog(ctx context.Context, id uuid.UUID) (*model.EstimateLog, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	row, err := s.store.GetEstimate(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

func (s *EstimateService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.SimilarDefaultLimit
	}
	return min(limit, s.cfg.SimilarMaxLimit)
}
