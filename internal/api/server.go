// Package api serves a read-only HTTP view of the claim ledger.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimledger/internal/ledger"
	"github.com/gyeh/claimledger/internal/model"
)

const (
	defaultLogLimit = 100
	maxLimit        = 1000
)

// Reader is the part of the ledger the API reads from.
type Reader interface {
	FindByClaimNumber(ctx context.Context, claimNumber string) (*model.ClaimRecord, error)
	ListClaims(ctx context.Context, f ledger.ClaimFilter) ([]model.ClaimRecord, error)
	ListHistory(ctx context.Context, claimNumber string) ([]model.ClaimHistoryEntry, error)
	ListLogs(ctx context.Context, limit int) ([]model.ProcessingLogEntry, error)
	CountLogsByStatus(ctx context.Context) (map[model.LogStatus]int64, error)
}

// Server holds the dependencies for the API server.
type Server struct {
	ledger Reader
	log    zerolog.Logger
}

// NewServer creates a new Server.
func NewServer(r Reader, log zerolog.Logger) *Server {
	return &Server{ledger: r, log: log}
}

// Handler builds the echo router with all routes mounted.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.log.Debug()
			if v.Error != nil {
				ev = s.log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).
				Dur("latency", v.Latency).Msg("request")
			return nil
		},
	}))

	e.GET("/healthz", s.Health)
	e.GET("/claims", s.ListClaims)
	e.GET("/claims/:claim_number", s.GetClaim)
	e.GET("/claims/:claim_number/history", s.ListHistory)
	e.GET("/logs", s.ListLogs)
	e.GET("/logs/summary", s.LogSummary)
	return e
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api server starting")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("api server shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

// Health reports liveness.
// (GET /healthz)
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ListClaims returns claims, optionally filtered by status.
// (GET /claims?status=&limit=)
func (s *Server) ListClaims(c echo.Context) error {
	var f ledger.ClaimFilter
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := model.ParseStatus(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status: "+raw)
		}
		f.Status = st
	}
	limit, err := queryLimit(c, 0)
	if err != nil {
		return err
	}
	f.Limit = limit

	claims, err := s.ledger.ListClaims(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]ClaimView, len(claims))
	for i := range claims {
		out[i] = NewClaimView(&claims[i])
	}
	return c.JSON(http.StatusOK, out)
}

// GetClaim returns one claim by claim number.
// (GET /claims/:claim_number)
func (s *Server) GetClaim(c echo.Context) error {
	rec, err := s.findClaim(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewClaimView(rec))
}

// ListHistory returns the update history of a claim, oldest first.
// (GET /claims/:claim_number/history)
func (s *Server) ListHistory(c echo.Context) error {
	rec, err := s.findClaim(c)
	if err != nil {
		return err
	}
	hist, err := s.ledger.ListHistory(c.Request().Context(), *rec.ClaimNumber)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]HistoryView, len(hist))
	for i := range hist {
		out[i] = NewHistoryView(&hist[i])
	}
	return c.JSON(http.StatusOK, out)
}

// ListLogs returns the most recent processing log entries.
// (GET /logs?limit=)
func (s *Server) ListLogs(c echo.Context) error {
	limit, err := queryLimit(c, defaultLogLimit)
	if err != nil {
		return err
	}
	logs, err := s.ledger.ListLogs(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]LogView, len(logs))
	for i := range logs {
		out[i] = NewLogView(&logs[i])
	}
	return c.JSON(http.StatusOK, out)
}

// LogSummary returns processing log counts by status.
// (GET /logs/summary)
func (s *Server) LogSummary(c echo.Context) error {
	counts, err := s.ledger.CountLogsByStatus(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, counts)
}

func (s *Server) findClaim(c echo.Context) (*model.ClaimRecord, error) {
	number := c.Param("claim_number")
	rec, err := s.ledger.FindByClaimNumber(c.Request().Context(), number)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "claim not found: "+number)
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return rec, nil
}

func queryLimit(c echo.Context, def int) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}
