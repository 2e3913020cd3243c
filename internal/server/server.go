// Package server is the HTTP gateway: the signed webhook endpoint, a status
// line, and static serving of rendered charts.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"

	"weightmate/internal/bot"
	"weightmate/internal/config"
	"weightmate/internal/logger"
)

type Server struct {
	engine *gin.Engine
	line   *bot.LineMessenger
	interp *bot.Interpreter
}

func New(line *bot.LineMessenger, interp *bot.Interpreter, cfg config.ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{engine: engine, line: line, interp: interp}
	engine.GET("/", s.handleStatus)
	engine.POST("/callback", s.handleCallback)
	engine.Static("/static/graphs", cfg.GraphDir)
	return s
}

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleStatus(c *gin.Context) {
	c.String(http.StatusOK, "weightmate is running")
}

// handleCallback verifies the signature, then hands every text message event
// to the interpreter. An invalid signature is the caller's fault (400); a
// processing failure that escapes the interpreter is ours (500) — explicit,
// so operators can see it.
func (s *Server) handleCallback(c *gin.Context) {
	events, err := s.line.ParseRequest(c.Request)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "invalid signature")
			return
		}
		logger.Error("failed to parse webhook request", "error", err)
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	for _, event := range events {
		if event.Type != linebot.EventTypeMessage || event.Source == nil {
			continue
		}
		message, ok := event.Message.(*linebot.TextMessage)
		if !ok {
			continue
		}
		ev := bot.Event{
			UserID:     event.Source.UserID,
			ReplyToken: event.ReplyToken,
			Text:       message.Text,
		}
		if err := s.interp.HandleText(c.Request.Context(), ev); err != nil {
			logger.Error("failed to process message event", "user_id", ev.UserID, "error", err)
			c.String(http.StatusInternalServerError, "internal error")
			return
		}
	}
	c.String(http.StatusOK, "OK")
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
