// Package httpapi exposes sessions over HTTP with gin and streams views over
// websockets. Players authenticate with the tokens issued when a game is
// created.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"flip/internal/app"
	"flip/internal/bot"

	"github.com/gin-gonic/gin"
	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	lobbyKeyHeader = "X-Lobby-Key"
	playerKey      = "flip.player"
	sessionKey     = "flip.session"
	pingInterval   = 15 * time.Second
)

// Server owns the HTTP surface of one registry.
type Server struct {
	registry *app.Registry
	tokens   *app.TokenService
	bots     bot.Options
	lobbyKey string
	logger   runtime.Logger

	// ctx outlives requests; bots and streams stop when it is cancelled.
	ctx context.Context
}

// Options configure a Server.
type Options struct {
	Tokens   *app.TokenService
	Bots     bot.Options
	LobbyKey string
}

func NewServer(ctx context.Context, registry *app.Registry, opts Options, logger runtime.Logger) *Server {
	return &Server{
		registry: registry,
		tokens:   opts.Tokens,
		bots:     opts.Bots,
		lobbyKey: opts.LobbyKey,
		logger:   logger,
		ctx:      ctx,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/status", s.status)
	r.GET("/games", s.listGames)
	r.POST("/games", s.requireLobbyKey(), s.createGame)

	game := r.Group("/games/:id", s.requirePlayer())
	game.GET("/view", s.getView)
	game.POST("/commands", s.submitCommand)
	game.GET("/stream", s.stream)
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http: %s %s -> %d in %s", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// statusFor maps engine errors to HTTP statuses. Internal faults never leak
// their message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, app.ErrSessionClosed):
		return http.StatusGone, err.Error()
	case errors.Is(err, app.ErrUnknownPlayer):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, app.ErrInternalFault):
		return http.StatusInternalServerError, "internal error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusBadRequest, err.Error()
}
