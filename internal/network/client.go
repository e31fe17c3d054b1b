package network

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Tempo para aguardar por uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo para aguardar por uma resposta de pong do cliente.
	pongWait = 60 * time.Second

	// Frequência dos pings. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 256
)

// Client é um jogador conectado do ponto de vista do servidor.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	logger *zap.SugaredLogger

	// mu protege send e closed. Timers e side effects de outras goroutines também
	// enviam mensagens, então o fechamento do canal não pode correr com um Send.
	mu     sync.RWMutex
	send   chan Message
	closed bool
}

func newClient(conn *websocket.Conn, hub *Hub, logger *zap.SugaredLogger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		logger: logger.With("remote", conn.RemoteAddr().String()),
		send:   make(chan Message, sendBufferSize),
	}
}

// RemoteAddr é usado nos logs do handler.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Send coloca a mensagem na fila de escrita sem bloquear.
// Retorna false se o cliente já foi fechado. Um cliente lento demais para esvaziar
// o buffer é desconectado.
func (c *Client) Send(msg Message) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warnw("send buffer full, closing connection", "type", msg.Type)
		go c.Close()
		return false
	}
}

// Close derruba a conexão. O readLoop percebe o erro e desregistra o cliente no Hub.
func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// closeSend é chamado só pelo Hub. Sinaliza o writeLoop para encerrar.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Infow("unexpected close", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debugw("malformed frame", "error", err)
			msg = Message{Type: TypeMalformed}
		}

		if !c.hub.deliver(clientMessage{client: c, msg: msg}) {
			return
		}
	}
}

// writeLoop bombeia mensagens do canal send para a conexão WebSocket.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Canal fechado pelo Hub: o cliente foi desregistrado.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Infow("write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
