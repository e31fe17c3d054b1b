package network

import (
	"context"

	"go.uber.org/zap"
)

// clientMessage empacota a mensagem com o cliente que a enviou.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub mantém o conjunto de clientes ativos e entrega os eventos ao handler,
// sempre a partir da mesma goroutine.
type Hub struct {
	// Acessado SOMENTE pela goroutine do Hub.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage

	// done é fechado quando Run termina; libera quem estiver bloqueado nos canais acima.
	done chan struct{}

	handler EventHandler
	logger  *zap.SugaredLogger
}

func NewHub(handler EventHandler, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		done:       make(chan struct{}),
		handler:    handler,
		logger:     logger,
	}
}

// Run processa eventos até o ctx ser cancelado. Na saída fecha todos os clientes.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debugw("client registered", "remote", client.RemoteAddr(), "clients", len(h.clients))
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Fechar o canal send é o sinal para o writeLoop parar.
				client.closeSend()
				h.logger.Debugw("client unregistered", "remote", client.RemoteAddr(), "clients", len(h.clients))
				h.handler.OnDisconnect(client)
			}

		case cm := <-h.incoming:
			if _, ok := h.clients[cm.client]; ok {
				h.handler.OnMessage(cm.client, cm.msg)
			}

		case <-ctx.Done():
			for client := range h.clients {
				client.closeSend()
				client.Close()
			}
			h.logger.Infow("hub stopped", "clients", len(h.clients))
			return nil
		}
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) deliver(cm clientMessage) bool {
	select {
	case h.incoming <- cm:
		return true
	case <-h.done:
		return false
	}
}
