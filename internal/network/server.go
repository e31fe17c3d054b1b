package network

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server promove conexões HTTP para WebSocket e as entrega ao Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

// NewServer recebe o EventHandler com a lógica do jogo.
// allowedOrigin "*" aceita qualquer origem; caso contrário o header Origin precisa ser igual.
func NewServer(handler EventHandler, allowedOrigin string, logger *zap.SugaredLogger) *Server {
	logger = logger.Named("network")
	return &Server{
		hub: NewHub(handler, logger.Named("hub")),
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin(allowedOrigin),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowed == "" || allowed == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowed
	}
}

// Run executa o loop do Hub até o ctx ser cancelado.
func (s *Server) Run(ctx context.Context) error {
	return s.hub.Run(ctx)
}

// ServeHTTP é o ponto de entrada de /ws.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Infow("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := newClient(conn, s.hub, s.logger.Named("client"))
	if !s.hub.join(client) {
		conn.Close()
		return
	}

	go client.writeLoop()
	go client.readLoop()
}
