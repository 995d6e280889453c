package httpimpl

import (
	"strconv"
	"sync"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusAssetHTTPRequests *prometheus.CounterVec
	prometheusMetricsInitOnce   sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusAssetHTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mru",
			Subsystem: "asset",
			Name:      "http_requests",
			Help:      "Number of HTTP requests served by the asset service",
		},
		[]string{"route", "code"},
	)
}

func countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)

		code := c.Response().Status

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		prometheusAssetHTTPRequests.WithLabelValues(c.Path(), strconv.Itoa(code)).Inc()

		return err
	}
}
