package api

import (
	"context"
	"time"

	models "RateCast/internal/domain/models"
	domrepo "RateCast/internal/domain/repository"
	"RateCast/internal/service/metrics"
	"RateCast/internal/usecase"
	xhttp "RateCast/pkg/http"
	xlogger "RateCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefitEnqueuer queues an ad hoc refit job for later processing.
type RefitEnqueuer interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// AnalysisEchoHandler exposes the offline analysis artifacts: ranked
// feature importance, the correlation matrix, the elasticity summary,
// and recent fit errors. Operator surface; everything is served from
// the loaded snapshot.
type AnalysisEchoHandler struct {
	logger     *xlogger.Logger
	holder     *usecase.ArtifactHolder
	errlog     *usecase.FitErrorLog
	store      domrepo.ObservationStore
	collector  *usecase.RateCollector
	refits     RefitEnqueuer
	refit      *usecase.RefitUseCase
	staleAfter time.Duration
}

func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	holder *usecase.ArtifactHolder,
	errlog *usecase.FitErrorLog,
	store domrepo.ObservationStore,
	collector *usecase.RateCollector,
	refits RefitEnqueuer,
	refit *usecase.RefitUseCase,
	staleAfter time.Duration,
) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{
		logger:     logger,
		holder:     holder,
		errlog:     errlog,
		store:      store,
		collector:  collector,
		refits:     refits,
		refit:      refit,
		staleAfter: staleAfter,
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analysis/importance", h.Importance)
	g.GET("/analysis/correlations", h.Correlations)
	g.GET("/analysis/elasticity", h.Elasticity)
	g.GET("/analysis/fit-errors", h.FitErrors)
	g.POST("/analysis/refit", h.Refit)
	g.GET("/health", h.Health)
}

func (h *AnalysisEchoHandler) Importance(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.AnalysisLatency.WithLabelValues("importance").Observe(time.Since(start).Seconds())
	}()

	req := &models.ImportanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	set := h.holder.Load()
	if set == nil || set.Importance == nil {
		metrics.AnalysisErrors.WithLabelValues("importance").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no importance report fitted yet"))
	}
	if req.Target != "" && req.Target != set.Importance.Target {
		return xhttp.AppErrorResponse(c,
			xhttp.NotFoundErrorf("no report for target %q; latest report targets %q", req.Target, set.Importance.Target))
	}
	return xhttp.SuccessResponse(c, set.Importance)
}

func (h *AnalysisEchoHandler) Correlations(c echo.Context) error {
	set := h.holder.Load()
	if set == nil || set.Correlations == nil {
		metrics.AnalysisErrors.WithLabelValues("correlations").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no correlation matrix fitted yet"))
	}
	return xhttp.SuccessResponse(c, set.Correlations)
}

func (h *AnalysisEchoHandler) Elasticity(c echo.Context) error {
	set := h.holder.Load()
	if set == nil || set.Elasticity == nil {
		metrics.AnalysisErrors.WithLabelValues("elasticity").Inc()
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no elasticity estimate fitted yet"))
	}
	return xhttp.SuccessResponse(c, set.Elasticity)
}

func (h *AnalysisEchoHandler) FitErrors(c echo.Context) error {
	req := &models.FitErrorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.errlog.Recent(req.N))
}

type refitStatus struct {
	PropertyID string `json:"property_id"`
	Status     string `json:"status"`
}

// Refit triggers an ad hoc refit for one property. When the Redis
// queue is configured the job is enqueued and survives a restart;
// otherwise the refit runs in the background of this process.
func (h *AnalysisEchoHandler) Refit(c echo.Context) error {
	req := &models.RefitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if h.refits != nil {
		err := h.refits.PublishMessage(c.Request().Context(), usecase.RefitJobType,
			map[string]string{"property_id": req.PropertyID})
		if err != nil {
			h.logger.Error("refit enqueue failed",
				xlogger.String("property", req.PropertyID), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("refit enqueue failed"))
		}
		return xhttp.DataResponse(c, 202, refitStatus{PropertyID: req.PropertyID, Status: "queued"})
	}

	if h.refit == nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("refit pipeline not configured"))
	}
	go func() {
		if err := h.refit.Refit(context.Background(), req.PropertyID); err != nil {
			h.logger.Error("ad hoc refit failed",
				xlogger.String("property", req.PropertyID), xlogger.Error(err))
		}
	}()
	return xhttp.DataResponse(c, 202, refitStatus{PropertyID: req.PropertyID, Status: "started"})
}

type healthStatus struct {
	Status          string  `json:"status"`
	Storage         string  `json:"storage"`
	RateStream      string  `json:"rate_stream"`
	SnapshotAgeSec  float64 `json:"snapshot_age_seconds"`
	SnapshotStale   bool    `json:"snapshot_stale"`
	SnapshotPresent bool    `json:"snapshot_present"`
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	hs := healthStatus{Status: "ok", Storage: "ok", RateStream: "disabled"}

	if h.store != nil {
		if err := h.store.Health(ctx); err != nil {
			hs.Storage = "down"
			hs.Status = "degraded"
		}
	}
	if h.collector != nil {
		if h.collector.IsConnected() {
			hs.RateStream = "connected"
		} else {
			hs.RateStream = "disconnected"
			hs.Status = "degraded"
		}
	}

	if set := h.holder.Load(); set != nil {
		hs.SnapshotPresent = true
		age := h.holder.Age(time.Now().UTC())
		hs.SnapshotAgeSec = age.Seconds()
		hs.SnapshotStale = h.staleAfter > 0 && age > h.staleAfter
		if hs.SnapshotStale {
			hs.Status = "degraded"
		}
	}
	return xhttp.SuccessResponse(c, hs)
}
