package message

// Mensagens no sentido servidor -> cliente.
import (
	"dropfour/internal/game/board"
	"dropfour/internal/network"
)

const (
	TypeQueued               = "queued"
	TypeStart                = "start"
	TypeUpdate               = "update"
	TypeEnd                  = "end"
	TypeOpponentDisconnected = "opponent_disconnected"
	TypeOpponentReconnected  = "opponent_reconnected"
	TypeError                = "error"
)

// Códigos de erro enviados no payload de TypeError.
const (
	CodeInvalidPayload  = "invalid_payload"
	CodeUnknownCommand  = "unknown_command"
	CodeInvalidUsername = "invalid_username"
	CodeAlreadyQueued   = "already_queued"
	CodeAlreadyPlaying  = "already_playing"
	CodeNoSuchSession   = "no_such_session"
	CodeNotAParticipant = "not_a_participant"
	CodeShuttingDown    = "shutting_down"
)

// Motivos de fim de partida.
const (
	ReasonFourInARow = "four_in_a_row"
	ReasonDraw       = "draw"
	ReasonForfeit    = "forfeit"
)

type QueuedPayload struct {
	Message string `json:"message"`
}

// GamePayload é o estado completo da partida, usado em start e update.
type GamePayload struct {
	SessionID   string      `json:"sessionId"`
	Board       board.Board `json:"board"`
	CurrentTurn string      `json:"currentTurn"`
	Player1     string      `json:"player1"`
	Player2     string      `json:"player2"`
	Bot         bool        `json:"bot"`
}

type EndPayload struct {
	SessionID string      `json:"sessionId"`
	Board     board.Board `json:"board"`
	Winner    string      `json:"winner"`
	Reason    string      `json:"reason"`
}

type OpponentPayload struct {
	SessionID        string `json:"sessionId"`
	Player           string `json:"player"`
	ForfeitInSeconds int    `json:"forfeitInSeconds,omitempty"`
}

type ErrorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// create ignora o erro de serialização: todos os payloads deste pacote são structs simples.
func create(msgType string, payload any) network.Message {
	msg, _ := network.NewMessage(msgType, payload)
	return msg
}

func CreateQueued(text string) network.Message {
	return create(TypeQueued, QueuedPayload{Message: text})
}

func CreateGameState(msgType string, state GamePayload) network.Message {
	return create(msgType, state)
}

func CreateEnd(end EndPayload) network.Message {
	return create(TypeEnd, end)
}

func CreateOpponentDisconnected(sessionID, player string, forfeitInSeconds int) network.Message {
	return create(TypeOpponentDisconnected, OpponentPayload{
		SessionID:        sessionID,
		Player:           player,
		ForfeitInSeconds: forfeitInSeconds,
	})
}

func CreateOpponentReconnected(sessionID, player string) network.Message {
	return create(TypeOpponentReconnected, OpponentPayload{SessionID: sessionID, Player: player})
}

func CreateErrorResponse(code, errorMsg string) network.Message {
	return create(TypeError, ErrorPayload{Code: code, Error: errorMsg})
}
