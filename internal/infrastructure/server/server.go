package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/teamaster/core/docs"
	httpHandlers "github.com/teamaster/core/internal/adapters/http"
	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/infrastructure/logger"
	"github.com/teamaster/core/internal/infrastructure/metrics"
	"github.com/teamaster/core/internal/ports"
)

const requestTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	storage ports.TeaStorage
	metrics *metrics.Metrics
}

// Dependencies are the application services the server routes to.
// Auth is only consulted when jwt.enabled is set. Metrics may be nil.
type Dependencies struct {
	Teas    ports.TeaService
	Auth    ports.AuthService
	Storage ports.TeaStorage
	Metrics *metrics.Metrics
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, deps Dependencies, appLogger *logger.Logger) (*Server, error) {
	if deps.Teas == nil || deps.Storage == nil {
		return nil, fmt.Errorf("tea service and storage are required")
	}
	if cfg.JWT.Enabled && deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required when jwt is enabled")
	}

	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger, cfg.App.Debug)

	server := &Server{
		echo:    e,
		config:  cfg,
		logger:  appLogger,
		storage: deps.Storage,
		metrics: deps.Metrics,
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		server.setupMetrics()
	}

	teaHandler := httpHandlers.NewTeaHandler(deps.Teas, appLogger.WithComponent("http"))
	server.setupRoutes(teaHandler, deps.Auth)

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID middleware
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			log := s.logger.WithRequestID(values.RequestID)
			if values.Error != nil {
				log = log.WithError(values.Error)
			}
			log.LogHTTPRequest(values.Method, values.URI, values.UserAgent, values.RemoteIP, values.Status, float64(values.Latency.Nanoseconds())/1e6)
			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))

	// Rate limiting middleware
	if limit := s.config.Security.RateLimitRequests; limit > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/health" || c.Path() == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(limit), Burst: limit, ExpiresIn: s.config.Security.RateLimitWindow},
			),
			IdentifierExtractor: func(ctx echo.Context) (string, error) {
				return ctx.RealIP(), nil
			},
			ErrorHandler: func(context echo.Context, err error) error {
				return context.JSON(http.StatusForbidden, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
			DenyHandler: func(context echo.Context, identifier string, err error) error {
				return context.JSON(http.StatusTooManyRequests, httpHandlers.ErrorResponse{Message: "rate limit exceeded"})
			},
		}))
	}

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	// Requests carry a deadline down to the storage lock
	s.echo.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: requestTimeout,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(teaHandler *httpHandlers.TeaHandler, authService ports.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	if s.config.App.IsDevelopment() {
		s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	var writeGuards []echo.MiddlewareFunc
	if s.config.JWT.Enabled {
		writeGuards = append(writeGuards, s.authMiddleware(authService))
	}

	teaGroup := v1.Group("/teas")
	teaGroup.GET("", teaHandler.ListTeas)
	teaGroup.POST("", teaHandler.AddTea, writeGuards...)
	teaGroup.GET("/:name", teaHandler.GetTea)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	s.echo.Use(s.metricsMiddleware())

	metricsHandler := promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": s.config.App.Version,
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if pinger, ok := s.storage.(ports.StoragePinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			s.logger.Warnw("Readiness check failed", "backend", s.storage.Name(), "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "backend_unreachable",
			})
		}
	}

	// Ready once the collection can be read
	if _, err := s.storage.Load(ctx); err != nil {
		s.logger.Warnw("Readiness check failed", "backend", s.storage.Name(), "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "storage_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"backend": s.storage.Name(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors. With debug set, internal errors
// are returned to the client.
func customErrorHandler(logger *logger.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			msg = httpHandlers.ErrorResponse{Message: fmt.Sprint(he.Message)}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
				if debug {
					msg = httpHandlers.ErrorResponse{Message: fmt.Sprintf("%v: %v", he.Message, he.Internal)}
				}
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
			msg = httpHandlers.ErrorResponse{Message: ve.Error()}
		default:
			msg = httpHandlers.ErrorResponse{Message: http.StatusText(code)}
			if debug {
				msg = httpHandlers.ErrorResponse{Message: err.Error()}
			}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == http.MethodHead {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
