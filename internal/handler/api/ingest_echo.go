package api

import (
	models "RateCast/internal/domain/models"
	"RateCast/internal/usecase"
	xhttp "RateCast/pkg/http"
	xlogger "RateCast/pkg/logger"
	"RateCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// IngestEchoHandler accepts booking observations over HTTP and routes
// them to the configured ingestion backend. With the clickhouse
// backend this is the only write path; with kafka it feeds the same
// topic the bookings consumer reads.
type IngestEchoHandler struct {
	logger    *xlogger.Logger
	processor *usecase.ObservationProcessor
}

func NewIngestEchoHandler(logger *xlogger.Logger, processor *usecase.ObservationProcessor) *IngestEchoHandler {
	return &IngestEchoHandler{logger: logger, processor: processor}
}

func (h *IngestEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/observations", h.Observations)
}

type ingestResult struct {
	Ingested int `json:"ingested"`
}

func (h *IngestEchoHandler) Observations(c echo.Context) error {
	req := &models.ObservationIngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	obs := make([]*models.HistoricalObservation, 0, len(req.Observations))
	for _, p := range req.Observations {
		date, ok := util.ParseDate(p.Date)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid observation date %q", p.Date))
		}
		obs = append(obs, &models.HistoricalObservation{
			PropertyID:     p.PropertyID,
			Date:           date,
			Price:          p.Price,
			OccupancyRate:  util.Clamp01(p.OccupancyRate),
			Bookings:       p.Bookings,
			Capacity:       p.Capacity,
			Temperature:    p.Temperature,
			Precipitation:  p.Precipitation,
			WeatherQuality: p.WeatherQuality,
			IsHoliday:      p.IsHoliday,
		})
	}

	ctx := c.Request().Context()
	var err error
	if len(obs) == 1 {
		err = h.processor.Process(ctx, obs[0])
	} else {
		err = h.processor.ProcessBatch(ctx, obs)
	}
	if err != nil {
		h.logger.Error("observation ingest failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("observation ingest failed"))
	}
	return xhttp.DataResponse(c, 202, ingestResult{Ingested: len(obs)})
}
