package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateCast/internal/domain/models"
	applogger "RateCast/pkg/logger"
)

type fakeObsStore struct {
	obs []models.HistoricalObservation
	err error
}

func (f *fakeObsStore) Store(context.Context, *models.HistoricalObservation) error { return nil }
func (f *fakeObsStore) StoreBatch(context.Context, []*models.HistoricalObservation) error {
	return nil
}
func (f *fakeObsStore) Window(context.Context, string, time.Time, time.Time) ([]models.HistoricalObservation, error) {
	return f.obs, f.err
}
func (f *fakeObsStore) LatestN(context.Context, string, int) ([]models.HistoricalObservation, error) {
	return f.obs, f.err
}
func (f *fakeObsStore) Health(context.Context) error { return nil }
func (f *fakeObsStore) Close() error                 { return nil }

type fakeArtifactStore struct {
	saved   *models.ArtifactSet
	loaded  *models.ArtifactSet
	saveErr error
}

func (f *fakeArtifactStore) SaveArtifacts(_ context.Context, _ string, set *models.ArtifactSet) error {
	f.saved = set
	return f.saveErr
}

func (f *fakeArtifactStore) LoadLatest(context.Context, string) (*models.ArtifactSet, error) {
	return f.loaded, nil
}

type fakeAnalyzer struct {
	report *models.FeatureImportanceReport
	matrix *models.CorrelationMatrix
	err    error
}

func (f *fakeAnalyzer) Analyze(context.Context, []models.HistoricalObservation, string) (*models.FeatureImportanceReport, error) {
	return f.report, f.err
}

func (f *fakeAnalyzer) Correlations(context.Context, []models.HistoricalObservation) (*models.CorrelationMatrix, error) {
	return f.matrix, f.err
}

type fakeEstimator struct {
	est *models.ElasticityEstimate
	err error
}

func (f *fakeEstimator) Estimate(context.Context, []models.HistoricalObservation) (*models.ElasticityEstimate, error) {
	return f.est, f.err
}

type fakeFitter struct {
	snap *models.DemandModelSnapshot
	err  error
}

func (f *fakeFitter) Fit(context.Context, []models.HistoricalObservation) (*models.DemandModelSnapshot, error) {
	return f.snap, f.err
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	lgr, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return lgr
}

func TestRefitSwapsFullSnapshot(t *testing.T) {
	holder := NewArtifactHolder()
	store := &fakeArtifactStore{}
	errlog := NewFitErrorLog(10)
	uc := NewRefitUseCase(
		&fakeObsStore{},
		store,
		holder,
		&fakeAnalyzer{report: &models.FeatureImportanceReport{Target: "demand"}, matrix: &models.CorrelationMatrix{}},
		&fakeEstimator{est: &models.ElasticityEstimate{Coefficient: -1.2}},
		&fakeFitter{snap: &models.DemandModelSnapshot{Version: "v1"}},
		nopMetrics{},
		testLogger(t),
		errlog,
		365,
		time.Minute,
	)

	require.NoError(t, uc.Refit(context.Background(), "prop-1"))

	set := holder.Load()
	require.NotNil(t, set)
	assert.Equal(t, "demand", set.Importance.Target)
	assert.NotNil(t, set.Correlations)
	assert.InDelta(t, -1.2, set.Elasticity.Coefficient, 1e-9)
	assert.Equal(t, "v1", set.Demand.Version)
	assert.False(t, set.RefittedAt.IsZero())

	require.NotNil(t, store.saved)
	assert.Same(t, set, store.saved)
	assert.Empty(t, errlog.Recent(10))
}

func TestRefitCarriesForwardOnFailure(t *testing.T) {
	holder := NewArtifactHolder()
	prevDemand := &models.DemandModelSnapshot{Version: "v-old"}
	holder.Swap(&models.ArtifactSet{Demand: prevDemand, RefittedAt: time.Now().Add(-24 * time.Hour)})

	errlog := NewFitErrorLog(10)
	uc := NewRefitUseCase(
		&fakeObsStore{},
		&fakeArtifactStore{},
		holder,
		&fakeAnalyzer{report: &models.FeatureImportanceReport{Target: "demand"}, matrix: &models.CorrelationMatrix{}},
		&fakeEstimator{est: &models.ElasticityEstimate{Coefficient: -1.2}},
		&fakeFitter{err: errors.New("no convergence")},
		nopMetrics{},
		testLogger(t),
		errlog,
		365,
		time.Minute,
	)

	require.NoError(t, uc.Refit(context.Background(), "prop-1"))

	set := holder.Load()
	require.NotNil(t, set)
	// the failed demand fit keeps the previous snapshot in use
	assert.Same(t, prevDemand, set.Demand)
	assert.NotNil(t, set.Elasticity)

	failures := errlog.Recent(10)
	require.Len(t, failures, 1)
	assert.Equal(t, "demand", failures[0].Artifact)
	assert.Equal(t, "prop-1", failures[0].PropertyID)
	assert.Contains(t, failures[0].Message, "no convergence")
}

func TestRefitWindowLoadFailure(t *testing.T) {
	holder := NewArtifactHolder()
	uc := NewRefitUseCase(
		&fakeObsStore{err: errors.New("clickhouse down")},
		&fakeArtifactStore{},
		holder,
		&fakeAnalyzer{},
		&fakeEstimator{},
		&fakeFitter{},
		nopMetrics{},
		testLogger(t),
		NewFitErrorLog(10),
		365,
		time.Minute,
	)

	err := uc.Refit(context.Background(), "prop-1")
	assert.ErrorContains(t, err, "clickhouse down")
	assert.Nil(t, holder.Load(), "a failed load must not swap an empty snapshot")
}

func TestRefitSwapsEvenWhenPersistFails(t *testing.T) {
	holder := NewArtifactHolder()
	uc := NewRefitUseCase(
		&fakeObsStore{},
		&fakeArtifactStore{saveErr: errors.New("insert failed")},
		holder,
		&fakeAnalyzer{report: &models.FeatureImportanceReport{}, matrix: &models.CorrelationMatrix{}},
		&fakeEstimator{est: &models.ElasticityEstimate{}},
		&fakeFitter{snap: &models.DemandModelSnapshot{Version: "v1"}},
		nopMetrics{},
		testLogger(t),
		NewFitErrorLog(10),
		365,
		time.Minute,
	)

	require.NoError(t, uc.Refit(context.Background(), "prop-1"))
	require.NotNil(t, holder.Load())
	assert.Equal(t, "v1", holder.Load().Demand.Version)
}

func TestRestoreLoadsPersistedSnapshot(t *testing.T) {
	persisted := &models.ArtifactSet{
		Demand:     &models.DemandModelSnapshot{Version: "v-restored"},
		RefittedAt: time.Now().Add(-time.Hour),
	}
	holder := NewArtifactHolder()
	uc := NewRefitUseCase(
		&fakeObsStore{},
		&fakeArtifactStore{loaded: persisted},
		holder,
		&fakeAnalyzer{},
		&fakeEstimator{},
		&fakeFitter{},
		nopMetrics{},
		testLogger(t),
		NewFitErrorLog(10),
		365,
		time.Minute,
	)

	require.NoError(t, uc.Restore(context.Background(), "prop-1"))
	require.NotNil(t, holder.Load())
	assert.Equal(t, "v-restored", holder.Load().Demand.Version)
}

func TestRestoreNoopWhenNothingPersisted(t *testing.T) {
	holder := NewArtifactHolder()
	uc := NewRefitUseCase(
		&fakeObsStore{},
		&fakeArtifactStore{},
		holder,
		&fakeAnalyzer{},
		&fakeEstimator{},
		&fakeFitter{},
		nopMetrics{},
		testLogger(t),
		NewFitErrorLog(10),
		365,
		time.Minute,
	)

	require.NoError(t, uc.Restore(context.Background(), "prop-1"))
	assert.Nil(t, holder.Load())
}
