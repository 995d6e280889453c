// Package httpimpl serves the asset API over echo.
package httpimpl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/services/asset/repository"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ordishs/gocore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

var AssetStat = gocore.NewStat("Asset")

// HealthFunc reports the health of the node, usually the service manager readiness check.
type HealthFunc func(ctx context.Context) (int, string, error)

type HTTP struct {
	logger     ulogger.Logger
	settings   *settings.Settings
	repository *repository.Repository
	e          *echo.Echo
	startTime  time.Time
}

func New(logger ulogger.Logger, tSettings *settings.Settings, repo *repository.Repository, health HealthFunc) *HTTP {
	initPrometheusMetrics()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.OFF)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST},
	}))
	e.Use(countRequests)

	h := &HTTP{
		logger:     logger,
		settings:   tSettings,
		repository: repo,
		e:          e,
		startTime:  time.Now(),
	}

	e.GET("/alive", func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf("Asset service is alive. Uptime: %s\n", time.Since(h.startTime)))
	})

	if health == nil {
		health = repo.Health
	}

	e.GET("/health", func(c echo.Context) error {
		status, details, err := health(c.Request().Context())
		if err != nil {
			logger.Warnf("[Asset_http] health check failed: %v", err)
		}

		return c.String(status, details)
	})

	if tSettings.PrometheusEndpoint != "" {
		e.GET(tSettings.PrometheusEndpoint, echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group(tSettings.Asset.APIPrefix)

	api.GET("/state", h.GetState)
	api.GET("/root", h.GetRoot)
	api.GET("/balance/:address", h.GetBalance)
	api.GET("/utxos/:address", h.GetUTXOs)
	api.GET("/sufficient-utxos/:address/:value", h.GetSufficientUTXOs)
	api.GET("/transaction/:txId", h.GetTransaction(JSON))
	api.GET("/transaction/:txId/hex", h.GetTransaction(HEX))
	var submitMiddleware []echo.MiddlewareFunc
	if limit := tSettings.Asset.SubmitRateLimit; limit > 0 {
		submitMiddleware = append(submitMiddleware, middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(limit))))
	}

	api.POST("/send-tx", h.SendTx, submitMiddleware...)
	api.POST("/action", h.SubmitAction, submitMiddleware...)
	api.GET("/action/:hash", h.GetAction)
	api.GET("/block/:height", h.GetBlock)
	api.GET("/bestblock", h.GetBestBlock)
	api.GET("/blocks", h.GetLastNBlocks)

	prefix := gocore.GetStatPrefix()
	e.GET(prefix+"stats", AdaptStdHandler(gocore.HandleStats))
	e.GET(prefix+"reset", AdaptStdHandler(gocore.ResetStats))

	return h
}

func AdaptStdHandler(handler func(w http.ResponseWriter, r *http.Request)) echo.HandlerFunc {
	return func(c echo.Context) error {
		handler(c.Response().Writer, c.Request())
		return nil
	}
}

// ServeHTTP lets tests drive the router without a listener.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.e.ServeHTTP(w, r)
}

// Start listens on addr until ctx is done.
func (h *HTTP) Start(ctx context.Context, addr string) error {
	h.logger.Infof("[Asset_http] listening on %s", addr)

	go func() {
		<-ctx.Done()

		if err := h.e.Shutdown(context.Background()); err != nil {
			h.logger.Errorf("[Asset_http] shutdown error: %v", err)
		}
	}()

	if err := h.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.NewServiceError("asset http server failed", err)
	}

	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

// sendError maps the error code to a status and returns the message as the body.
func sendError(err error) error {
	return echo.NewHTTPError(errors.HTTPStatus(err), err.Error())
}
