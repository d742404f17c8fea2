package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"signalforge/internal/domain/models"
	"signalforge/internal/usecase"
	xhttp "signalforge/pkg/http"
	xlogger "signalforge/pkg/logger"
)

// SignalsHandler exposes the signal engine over Echo.
type SignalsHandler struct {
	logger    *xlogger.Logger
	signals   *usecase.SignalService
	evaluator *usecase.Evaluator
	health    []HealthChecker
	tz        *time.Location
}

// HealthChecker is anything /healthz should ping.
type HealthChecker interface {
	Health(ctx context.Context) error
}

func NewSignalsHandler(
	logger *xlogger.Logger,
	signals *usecase.SignalService,
	evaluator *usecase.Evaluator,
	tz *time.Location,
	health ...HealthChecker,
) *SignalsHandler {
	if tz == nil {
		tz = time.UTC
	}
	return &SignalsHandler{
		logger:    logger,
		signals:   signals,
		evaluator: evaluator,
		health:    health,
		tz:        tz,
	}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signal", h.Signal)
	g.GET("/signals", h.Signals)
	g.POST("/evaluate", h.Evaluate)
	g.GET("/markets", h.Markets)
	e.GET("/healthz", h.Healthz)
}

// Signal handles GET /api/signal?pair=EUR/USD&tf=5m.
func (h *SignalsHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.signals.GetSignal(c.Request().Context(), req.Pair, req.TF)
	if err != nil {
		h.logger.Error("signal usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Signals handles GET /api/signals?since=<RFC3339>&limit=n.
func (h *SignalsHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	if req.Since != "" {
		parsed, ok := xhttp.ParseTime(req.Since)
		if !ok {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestError("since must be RFC3339 or unix seconds"))
		}
		since = parsed
	}

	rows, err := h.signals.SignalsSince(c.Request().Context(), since, req.Limit)
	if err != nil {
		h.logger.Error("signals list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Evaluate handles POST /api/evaluate {"id": n}. A signal whose horizon
// has not elapsed yet reports pending rather than an error.
func (h *SignalsHandler) Evaluate(c echo.Context) error {
	if h.evaluator == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal persistence is disabled"))
	}

	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ev, err := h.evaluator.EvaluateAndStore(c.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, usecase.ErrNotEvaluable) {
			return xhttp.SuccessResponse(c, map[string]interface{}{"id": req.ID, "pending": true})
		}
		h.logger.Error("evaluate usecase error", xlogger.Int64("id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, ev)
}

// Markets handles GET /api/markets.
func (h *SignalsHandler) Markets(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.signals.Markets(h.tz))
}

// Healthz pings the registered dependencies.
func (h *SignalsHandler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	for _, hc := range h.health {
		if err := hc.Health(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.InternalError("dependency unhealthy"))
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
