package network

import (
	"encoding/json"
)

// Message é o envelope padrão para toda a comunicação.
// Type roteia a mensagem; Payload é decodificado depois, por quem conhece o tipo.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	// Nenhuma mensagem do jogo chega perto disso; o limite só protege o servidor.
	MaxMessageSize = 64 * 1024

	// TypeMalformed é entregue ao handler quando o frame não é um envelope JSON válido.
	TypeMalformed = "malformed"
)

// NewMessage serializa o payload e monta o envelope.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Decode lê o payload no destino informado. Payload ausente vira objeto vazio.
func (m Message) Decode(dst any) error {
	if len(m.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), dst)
	}
	return json.Unmarshal(m.Payload, dst)
}
