package network

// EventHandler conecta a camada de rede com a lógica do jogo.
// Todos os métodos são chamados pela goroutine do Hub, um evento por vez.
type EventHandler interface {
	OnConnect(c *Client)

	// OnDisconnect é chamado depois que o canal de envio do cliente foi fechado.
	OnDisconnect(c *Client)

	OnMessage(c *Client, msg Message)
}
