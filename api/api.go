package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/bikemap/bike"
	"github.com/semanticallynull/bikemap/internal/middleware"
	"github.com/semanticallynull/bikemap/reservation"
	"github.com/semanticallynull/bikemap/viewmodel"
)

type API struct {
	r  *gin.Engine
	vm *viewmodel.ViewModel
}

type Options struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// MetricsUsername and MetricsPassword protect /metrics with basic auth
	// when both are set.
	MetricsUsername string
	MetricsPassword string
}

func New(vm *viewmodel.ViewModel, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	a := &API{
		r:  gin.New(),
		vm: vm,
	}

	opts.Registry.MustRegister(bike.Collectors()...)
	opts.Registry.MustRegister(reservation.Collectors()...)

	a.r.Use(gin.Recovery(), middleware.Tracing(), middleware.Logging(opts.Logger), middleware.Metrics(opts.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metrics := gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	if opts.MetricsUsername != "" && opts.MetricsPassword != "" {
		a.r.GET("/metrics", gin.BasicAuth(gin.Accounts{opts.MetricsUsername: opts.MetricsPassword}), metrics)
	} else {
		a.r.GET("/metrics", metrics)
	}

	a.r.GET("/map", a.mapHandler)
	a.r.GET("/bikes/:id", a.bikeHandler)
	a.r.POST("/bikes/:id/reserve", a.reserveHandler)
	a.r.GET("/reservations", a.reservationsHandler)
	a.r.DELETE("/reservations/:id", a.cancelHandler)

	return a
}

func (a *API) Router() *gin.Engine {
	return a.r
}
