package api

import (
	"encoding/json"
	"time"

	models "RateCast/internal/domain/models"
	"RateCast/internal/service/cache"
	"RateCast/internal/service/ratelimit"
	"RateCast/internal/usecase"
	xhttp "RateCast/pkg/http"
	xlogger "RateCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// QuoteEchoHandler serves the live pricing endpoint.
type QuoteEchoHandler struct {
	logger   *xlogger.Logger
	quotes   *usecase.QuoteUseCase
	cache    cache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
}

func NewQuoteEchoHandler(logger *xlogger.Logger, quotes *usecase.QuoteUseCase, c cache.BytesCache, cacheTTL time.Duration) *QuoteEchoHandler {
	return &QuoteEchoHandler{
		logger:   logger,
		quotes:   quotes,
		cache:    c,
		cacheTTL: cacheTTL,
		limiter:  ratelimit.New(),
	}
}

func (h *QuoteEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/quote", h.Quote)
}

func (h *QuoteEchoHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Entity.PropertyID != "" && !h.limiter.Allow(req.Entity.PropertyID, 50, 25) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	// Identical payloads against the same snapshot share a cache slot.
	key := "quote:" + h.quotes.CacheKey(req)
	if h.cache != nil && h.cacheTTL > 0 {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			return xhttp.SuccessResponse(c, json.RawMessage(b))
		}
	}

	rec, err := h.quotes.Quote(c.Request().Context(), req)
	if err != nil {
		// the live path only fails on payload problems; everything
		// statistical falls back inside the usecase
		h.logger.Error("quote usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}

	if h.cache != nil && h.cacheTTL > 0 {
		if b, err := json.Marshal(rec); err == nil {
			_ = h.cache.SetBytes(key, b, h.cacheTTL)
		}
	}
	return xhttp.SuccessResponse(c, rec)
}
