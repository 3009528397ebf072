// Package server exposes the concierge over HTTP: a chat endpoint that
// streams agent events as server-sent events, plus a health probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexschlessinger/pollytool/messages"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"rangedesk/concierge/internal/agent"
	"rangedesk/concierge/internal/config"
	"rangedesk/concierge/internal/core"
	"rangedesk/concierge/internal/events"
)

// ChatMessage is one prior turn supplied by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the POST /api/chat body. The client carries the
// conversation; the server holds no state between requests. SessionID is
// caller-supplied and used for log correlation only.
type ChatRequest struct {
	SessionID string        `json:"session_id,omitempty"`
	Messages  []ChatMessage `json:"messages"`
}

type Server struct {
	e      *echo.Echo
	loop   *agent.Loop
	cfg    *config.Configuration
	logger *zap.SugaredLogger
}

func New(loop *agent.Loop, cfg *config.Configuration, logger *zap.SugaredLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.Server.RateLimit),
			Burst:     cfg.Server.RateBurst,
			ExpiresIn: 3 * time.Minute,
		}),
	}))

	s := &Server{
		e:      e,
		loop:   loop,
		cfg:    cfg,
		logger: logger,
	}

	e.POST("/api/chat", s.handleChat)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return s
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start() error {
	s.logger.Infow("Concierge listening", "addr", s.cfg.Server.Addr)
	if err := s.e.Start(s.cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	history := s.sanitize(req.Messages)
	if len(history) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages must contain at least one user turn")
	}

	requestID := uuid.NewString()
	logger := core.WithRequest(s.logger, requestID, c.RealIP())
	logger.Infow("Chat request", "session_id", req.SessionID, "turns", len(history))

	rw := c.Response()
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.WriteHeader(http.StatusOK)

	emit := func(e events.Event) error {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		if _, err := fmt.Fprintf(rw, "data: %s\n\n", data); err != nil {
			return err
		}
		rw.Flush()
		return nil
	}

	start := time.Now()
	s.loop.Run(c.Request().Context(), requestID, history, emit)
	core.LogDuration(logger, "chat request", start)
	return nil
}

// sanitize keeps only well-formed user and assistant turns, capped to the
// most recent MaxHistory. Clients do not get to inject system or tool
// turns into the conversation.
func (s *Server) sanitize(msgs []ChatMessage) []messages.ChatMessage {
	history := make([]messages.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch m.Role {
		case "user":
			history = append(history, messages.ChatMessage{Role: messages.MessageRoleUser, Content: content})
		case "assistant":
			history = append(history, messages.ChatMessage{Role: messages.MessageRoleAssistant, Content: content})
		}
	}
	if max := s.cfg.Agent.MaxHistory; max > 0 && len(history) > max {
		history = history[len(history)-max:]
	}
	return history
}
