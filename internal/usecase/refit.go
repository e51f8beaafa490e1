package usecase

import (
	"context"
	"time"

	"RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	domsvc "RateCast/internal/domain/service"
	applogger "RateCast/pkg/logger"
)

// RefitUseCase is the offline fitting pipeline. It loads the
// historical window, runs the three fitters independently, persists
// what succeeded, and atomically swaps the artifact snapshot. A failed
// fit keeps the previous artifact of that kind in use; nothing
// degrades silently.
type RefitUseCase struct {
	store      domrepo.ObservationStore
	artifacts  domrepo.ArtifactStore
	holder     *ArtifactHolder
	analyzer   domsvc.ImportanceAnalyzer
	estimator  domsvc.ElasticityEstimator
	fitter     domsvc.DemandFitter
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	errlog     *FitErrorLog
	windowDays int
	fitTimeout time.Duration
	target     string
}

// NewRefitUseCase wires the offline pipeline.
func NewRefitUseCase(
	store domrepo.ObservationStore,
	artifacts domrepo.ArtifactStore,
	holder *ArtifactHolder,
	analyzer domsvc.ImportanceAnalyzer,
	estimator domsvc.ElasticityEstimator,
	fitter domsvc.DemandFitter,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
	errlog *FitErrorLog,
	windowDays int,
	fitTimeout time.Duration,
) *RefitUseCase {
	if windowDays <= 0 {
		windowDays = 365
	}
	if fitTimeout <= 0 {
		fitTimeout = 30 * time.Second
	}
	return &RefitUseCase{
		store:      store,
		artifacts:  artifacts,
		holder:     holder,
		analyzer:   analyzer,
		estimator:  estimator,
		fitter:     fitter,
		metrics:    metrics,
		logger:     logger,
		errlog:     errlog,
		windowDays: windowDays,
		fitTimeout: fitTimeout,
		target:     "demand",
	}
}

// Restore loads the last persisted artifact set so a restart does not
// begin from an empty snapshot.
func (uc *RefitUseCase) Restore(ctx context.Context, propertyID string) error {
	set, err := uc.artifacts.LoadLatest(ctx, propertyID)
	if err != nil {
		return err
	}
	if set != nil {
		uc.holder.Swap(set)
		uc.logger.Info("artifact snapshot restored",
			applogger.String("property", propertyID),
			applogger.Any("refitted_at", set.RefittedAt))
	}
	return nil
}

// Refit runs one full offline pass for a property. Individual fit
// failures are logged and counted; the snapshot swap carries forward
// the previous artifact for whatever failed.
func (uc *RefitUseCase) Refit(ctx context.Context, propertyID string) error {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -uc.windowDays)

	obs, err := uc.store.Window(ctx, propertyID, from, now)
	if err != nil {
		uc.metrics.RecordError("refit_load")
		return err
	}
	uc.logger.Info("refit window loaded",
		applogger.String("property", propertyID),
		applogger.Int("observations", len(obs)))

	prev := uc.holder.Load()
	next := &models.ArtifactSet{RefittedAt: now}
	if prev != nil {
		// carry forward until each fit replaces its artifact
		next.Importance = prev.Importance
		next.Correlations = prev.Correlations
		next.Elasticity = prev.Elasticity
		next.Demand = prev.Demand
	}

	fitCtx, cancel := context.WithTimeout(ctx, uc.fitTimeout)
	defer cancel()

	if report, err := uc.analyzer.Analyze(fitCtx, obs, uc.target); err != nil {
		uc.fitFailed("importance", propertyID, err)
	} else {
		next.Importance = report
		uc.metrics.RecordFit("importance", time.Since(now).Seconds())
	}

	if corr, err := uc.analyzer.Correlations(fitCtx, obs); err != nil {
		uc.fitFailed("correlations", propertyID, err)
	} else {
		next.Correlations = corr
	}

	if est, err := uc.estimator.Estimate(fitCtx, obs); err != nil {
		uc.fitFailed("elasticity", propertyID, err)
	} else {
		if est.Anomalous {
			uc.logger.Warn("elasticity coefficient non-negative; flagged anomalous",
				applogger.String("property", propertyID),
				applogger.Any("coefficient", est.Coefficient))
		}
		next.Elasticity = est
		uc.metrics.RecordFit("elasticity", time.Since(now).Seconds())
	}

	if snap, err := uc.fitter.Fit(fitCtx, obs); err != nil {
		uc.fitFailed("demand", propertyID, err)
	} else {
		next.Demand = snap
		uc.metrics.RecordFit("demand", time.Since(now).Seconds())
		uc.logger.Info("demand model fitted",
			applogger.String("property", propertyID),
			applogger.String("family", string(snap.Family)),
			applogger.String("version", snap.Version),
			applogger.Int("iterations", snap.Iterations))
	}

	if err := uc.artifacts.SaveArtifacts(ctx, propertyID, next); err != nil {
		uc.metrics.RecordError("refit_persist")
		uc.logger.Error("artifact persist failed", applogger.Error(err))
		// still swap: in-memory snapshot is the source of truth for scoring
	}

	uc.holder.Swap(next)
	uc.metrics.RecordSnapshotAge(0)
	return nil
}

func (uc *RefitUseCase) fitFailed(artifact, propertyID string, err error) {
	uc.metrics.RecordFitFailure(artifact)
	if uc.errlog != nil {
		uc.errlog.Record(FitError{
			Artifact:   artifact,
			PropertyID: propertyID,
			Message:    err.Error(),
			At:         time.Now().UTC(),
		})
	}
	uc.logger.Error("offline fit failed; previous artifact stays in use",
		applogger.String("artifact", artifact),
		applogger.String("property", propertyID),
		applogger.Error(err))
}
