// Package api serves credit scoring over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/observability"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/validation"
	"github.com/FarmCreditInc/FarmCreditAI/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	serviceName string
	validator   *validation.ProfileValidator
	profiles    repository.ProfileLoader
	obs         *observability.Observability
	checks      map[string]ReadinessCheck
	now         func() time.Time
	logger      logger.Logger
}

// NewServer builds the API. A nil validator skips schema validation and a nil profiles loader
// disables the farmer lookup route.
func NewServer(serviceName string, validator *validation.ProfileValidator, profiles repository.ProfileLoader, obs *observability.Observability, log logger.Logger) *Server {
	return &Server{
		serviceName: serviceName,
		validator:   validator,
		profiles:    profiles,
		obs:         obs,
		checks:      make(map[string]ReadinessCheck),
		now:         time.Now,
		logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// AddReadinessCheck registers a dependency checked by GET /ready.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.serviceName))
	r.Use(NewMetricMiddleware(s.obs.Meter()))
	r.Use(RequestLogger(s.logger))

	r.GET("/", s.root)
	r.POST("/calculate_credit_score", s.calculateCreditScore)
	r.GET("/farmers/:farmerId/credit_score", s.farmerCreditScore)

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// HTTPServer wraps the router with the configured timeouts.
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}
