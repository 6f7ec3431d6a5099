// Package httpapi serves the digest and full-list views plus health and
// metrics endpoints on a small read-only web server.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dustpunk/scout/internal/db"
	"github.com/dustpunk/scout/internal/digest"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool    *db.Pool
	builder *digest.Builder
	logger  zerolog.Logger
	opts    Options
}

func NewServer(pool *db.Pool, builder *digest.Builder, logger zerolog.Logger, opts Options) *Server {
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

	return &Server{
		pool:    pool,
		builder: builder,
		logger:  logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
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
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}
			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/", s.handleDigestPage)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/digest", s.handleDigest)
	api.GET("/full-list", s.handleFullList)

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

	s.logger.Info().Str("addr", addr).Msg("scout web server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("scout web server stopped")
	return nil
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

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.Ping(c.Request().Context()); err != nil {
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "scout",
		"time":    time.Now().UTC(),
	})
}

// handleDigestPage renders the same document the email delivery sends.
func (s *Server) handleDigestPage(c echo.Context) error {
	data, err := s.builder.Build(c.Request().Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("build digest failed")
		return c.String(http.StatusInternalServerError, "digest unavailable")
	}
	html, err := digest.RenderHTML(data)
	if err != nil {
		s.logger.Error().Err(err).Msg("render digest failed")
		return c.String(http.StatusInternalServerError, "digest unavailable")
	}
	return c.HTML(http.StatusOK, html)
}

func (s *Server) handleDigest(c echo.Context) error {
	data, err := s.builder.Build(c.Request().Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("build digest failed")
		return internalError(c, "Failed to build digest")
	}
	return success(c, map[string]any{
		"generated_at": data.GeneratedAt,
		"tonight":      itemsJSON(data.Tonight),
		"this_week":    itemsJSON(data.ThisWeek),
		"coming_up":    itemsJSON(data.ComingUp),
		"wildcard":     wildcardJSON(data.Wildcard),
	})
}

func (s *Server) handleFullList(c echo.Context) error {
	radar, luckyDip, err := s.builder.BuildFullList(c.Request().Context(), time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("build full list failed")
		return internalError(c, "Failed to build full list")
	}
	return success(c, map[string]any{
		"radar":     itemsJSON(radar),
		"lucky_dip": itemsJSON(luckyDip),
	})
}

type eventItem struct {
	EventID      int64              `json:"event_id"`
	Title        string             `json:"title"`
	VenueName    string             `json:"venue_name"`
	Neighborhood string             `json:"neighborhood,omitempty"`
	StartAt      time.Time          `json:"start_at"`
	EndAt        *time.Time         `json:"end_at,omitempty"`
	PriceMin     *float64           `json:"price_min,omitempty"`
	PriceMax     *float64           `json:"price_max,omitempty"`
	TicketURL    string             `json:"ticket_url,omitempty"`
	Category     string             `json:"category,omitempty"`
	Total        float64            `json:"total"`
	Taste        float64            `json:"taste"`
	Convenience  float64            `json:"convenience"`
	Social       float64            `json:"social"`
	Novelty      float64            `json:"novelty"`
	Signals      map[string]float64 `json:"signals"`
	Explanation  string             `json:"explanation"`
}

func itemsJSON(items []digest.Item) []eventItem {
	out := make([]eventItem, 0, len(items))
	for _, item := range items {
		out = append(out, toEventItem(item))
	}
	return out
}

func wildcardJSON(item *digest.Item) *eventItem {
	if item == nil {
		return nil
	}
	ei := toEventItem(*item)
	return &ei
}

func toEventItem(item digest.Item) eventItem {
	return eventItem{
		EventID:      item.Event.EventID,
		Title:        item.Event.Title,
		VenueName:    item.Event.VenueName,
		Neighborhood: item.Event.Neighborhood,
		StartAt:      item.Event.StartAt,
		EndAt:        item.Event.EndAt,
		PriceMin:     item.Event.PriceMin,
		PriceMax:     item.Event.PriceMax,
		TicketURL:    item.Event.TicketURL,
		Category:     item.Event.Category,
		Total:        item.Scores.Total,
		Taste:        item.Scores.Taste,
		Convenience:  item.Scores.Convenience,
		Social:       item.Scores.Social,
		Novelty:      item.Scores.Novelty,
		Signals:      item.Scores.Signals,
		Explanation:  item.Explanation,
	}
}
