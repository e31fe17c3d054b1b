package message

import (
	"fmt"

	"dropfour/internal/network"
)

// MessageSender é qualquer coisa que aceite uma mensagem de saída.
// Desacopla este pacote de network.Client e dos transportes de teste.
type MessageSender interface {
	Send(msg network.Message) bool
}

// SendError envia uma mensagem de erro apenas para o cliente informado.
func SendError(sender MessageSender, code, format string, args ...interface{}) {
	sender.Send(CreateErrorResponse(code, fmt.Sprintf(format, args...)))
}

func SendQueued(sender MessageSender, text string) {
	sender.Send(CreateQueued(text))
}
