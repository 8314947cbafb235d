package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/intel"
	"github.com/jaliltomas/preciosbot/internal/pipeline"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// Ingestor is the slice of the pipeline the webhook needs.
type Ingestor interface {
	IngestAndProcess(ctx context.Context, externalID, senderPhone, body string) (pipeline.Result, error)
}

type Options struct {
	Host                string
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	ShutdownTimeout     time.Duration
	CORSAllowedOrigins  []string
	SimilarityThreshold float64
}

type Server struct {
	pool     *db.Pool
	ingestor Ingestor
	embedder intel.Embedder
	logger   zerolog.Logger
	opts     Options
}

func NewServer(pool *db.Pool, ingestor Ingestor, embedder intel.Embedder, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	similarity := opts.SimilarityThreshold
	if similarity <= 0 || similarity >= 1 {
		similarity = 0.85
	}

	return &Server{
		pool:     pool,
		ingestor: ingestor,
		embedder: embedder,
		logger:   logger,
		opts: Options{
			Host:                host,
			Port:                port,
			ReadTimeout:         readTimeout,
			WriteTimeout:        writeTimeout,
			ShutdownTimeout:     shutdownTimeout,
			CORSAllowedOrigins:  opts.CORSAllowedOrigins,
			SimilarityThreshold: similarity,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("preciosbot api started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("preciosbot api stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	allowOrigins := s.opts.CORSAllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)

	api.POST("/webhook/whatsapp", s.handleWebhook)

	api.GET("/messages", s.handleMessages)
	api.GET("/messages/recent", s.handleRecentMessages)
	api.GET("/messages/stats", s.handleMessageStats)
	api.GET("/messages/:message_id", s.handleMessageDetail)
	api.DELETE("/messages/:message_id", s.handleDeleteMessage)

	api.GET("/providers", s.handleProviders)
	api.POST("/providers", s.handleCreateProvider)
	api.PUT("/providers/:provider_id", s.handleUpdateProvider)
	api.DELETE("/providers/:provider_id", s.handleDeleteProvider)

	api.GET("/categories", s.handleCategories)
	api.PUT("/categories", s.handleUpsertCategory)
	api.POST("/categories/seed", s.handleSeedCategories)
	api.DELETE("/categories/:category_id", s.handleDeleteCategory)

	api.GET("/products", s.handleProducts)
	api.GET("/products/stats", s.handleCatalogStats)
	api.GET("/products/similar", s.handleProductSearch)
	api.GET("/products/:product_id", s.handleProductDetail)
	api.DELETE("/products/:product_id", s.handleDeleteProduct)
	api.GET("/products/:product_id/history", s.handleProductHistory)
	api.GET("/history", s.handleHistory)
	api.DELETE("/history", s.handleRemoveHistory)

	api.POST("/lists/generate", s.handleGenerateLists)
	api.GET("/lists/latest", s.handleLatestList)
	api.GET("/lists", s.handleLists)
	api.GET("/lists/:price_list_id", s.handleListDetail)
	api.DELETE("/lists/:price_list_id", s.handleDeleteList)

	return e
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := s.pool.DB().PingContext(ctx); err != nil {
		return internalError(c, "database unreachable")
	}
	return success(c, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		s.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func parsePaging(c echo.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := strings.TrimSpace(c.QueryParam("page_size")); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	page := 1
	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			page = parsed
		}
	}
	return limit, (page - 1) * limit
}

func parsePositiveInt(raw string) (int, error) {
	var value int
	if _, err := fmt.Sscanf(raw, "%d", &value); err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return value, nil
}
