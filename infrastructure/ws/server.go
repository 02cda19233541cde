package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pingme/contract"
	"pingme/services"
	"pingme/sink"
)

// Server upgrades HTTP requests to chat sessions.
type Server struct {
	upgrader      websocket.Upgrader
	presence      contract.IPresence
	router        contract.IRouter
	typing        contract.ITyping
	chat          services.IChatService
	statuses      services.IStatusService
	sinkBufferLen int
	log           *slog.Logger
}

func NewServer(
	presence contract.IPresence,
	router contract.IRouter,
	typing contract.ITyping,
	chatService services.IChatService,
	statusService services.IStatusService,
	sinkBufferLen int,
	log *slog.Logger,
) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from the app origin; tightening
			// this is a deployment concern handled by the proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		presence:      presence,
		router:        router,
		typing:        typing,
		chat:          chatService,
		statuses:      statusService,
		sinkBufferLen: sinkBufferLen,
		log:           log,
	}
}

// Handle upgrades the request and runs the session until the socket closes.
func (s *Server) Handle(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("Socket upgrade failed", "remote", c.Request.RemoteAddr, "error", err)
		return
	}

	session := NewSession(
		conn,
		sink.NewSessionSink(s.sinkBufferLen, s.log),
		s.presence,
		s.router,
		s.typing,
		s.chat,
		s.statuses,
		s.log,
	)
	session.Run(c.Request.Context())
}
