// Package http exposes the REST surface and mounts the socket endpoint.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pingme/infrastructure/ws"
	"pingme/storage"
)

type Server struct {
	engine *gin.Engine
	srv    *http.Server
	log    *slog.Logger
}

func NewServer(
	addr string,
	handlers *Handlers,
	socket *ws.Server,
	mediaDir string,
	log *slog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api")
	{
		api.POST("/auth/register", handlers.Register)
		api.POST("/auth/login", handlers.Login)

		authed := api.Group("", RequireAuth())
		{
			authed.GET("/conversations", handlers.ListConversations)
			authed.GET("/conversations/:id/messages", handlers.ListMessages)

			authed.POST("/messages", handlers.SendMessage)
			authed.POST("/messages/read", handlers.MarkAsRead)
			authed.DELETE("/messages/:id", handlers.DeleteMessage)
			authed.POST("/messages/:id/reactions", handlers.React)
			authed.GET("/messages/search", handlers.SearchMessages)

			authed.POST("/statuses", handlers.CreateStatus)
			authed.GET("/statuses", handlers.ListStatuses)
			authed.POST("/statuses/:id/view", handlers.ViewStatus)
			authed.DELETE("/statuses/:id", handlers.DeleteStatus)
		}
	}

	// The socket endpoint authenticates through its own announce signal.
	engine.GET("/ws", socket.Handle)

	engine.Static(storage.URLPrefix, mediaDir)

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
