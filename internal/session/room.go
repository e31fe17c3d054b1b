package session

import (
	"sync"
	"time"

	"dropfour/internal/game/board"
	"dropfour/internal/game/bot"
	"dropfour/internal/leaderboard"
	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

// Outcome é o estado terminal de uma sala. Sai de InProgress uma única vez.
type Outcome int

const (
	InProgress Outcome = iota
	WonBySlot0
	WonBySlot1
	Draw
)

func (o Outcome) String() string {
	switch o {
	case InProgress:
		return "in_progress"
	case WonBySlot0:
		return "won_by_slot0"
	case WonBySlot1:
		return "won_by_slot1"
	case Draw:
		return "draw"
	}
	return "unknown"
}

func wonBy(slot int) Outcome {
	if slot == 0 {
		return WonBySlot0
	}
	return WonBySlot1
}

// Room é uma partida. Todo o estado abaixo de mu só é lido ou alterado com mu travado.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu sync.Mutex

	players      [2]string
	participants [2]*PlayerSession // nil no slot do bot
	connected    [2]bool
	isBot        bool

	// disconnects conta as quedas de cada slot; o timer de forfeit só vale para a queda que o armou.
	disconnects [2]int

	board          board.Board
	turn           int
	outcome        Outcome
	moves          int
	resultRecorded bool
}

func newRoom(id string, player1, player2 string, isBot bool, now time.Time) *Room {
	return &Room{
		ID:        id,
		CreatedAt: now,
		players:   [2]string{player1, player2},
		isBot:     isBot,
		board:     board.New(),
		outcome:   InProgress,
	}
}

// slotOf retorna o slot humano do usuário, ou -1.
func (r *Room) slotOf(username string) int {
	for slot, name := range r.players {
		if name == username && name != bot.ID {
			return slot
		}
	}
	return -1
}

func (r *Room) isHuman(slot int) bool {
	return !(r.isBot && slot == 1)
}

// Snapshot devolve uma cópia do estado para leitura fora do mutex.
type Snapshot struct {
	ID        string
	Players   [2]string
	Connected [2]bool
	Board     board.Board
	Turn      int
	Outcome   Outcome
	Moves     int
	Bot       bool
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:        r.ID,
		Players:   r.players,
		Connected: r.connected,
		Board:     r.board,
		Turn:      r.turn,
		Outcome:   r.outcome,
		Moves:     r.moves,
		Bot:       r.isBot,
	}
}

func (r *Room) gamePayload() message.GamePayload {
	return message.GamePayload{
		SessionID:   r.ID,
		Board:       r.board,
		CurrentTurn: r.players[r.turn],
		Player1:     r.players[0],
		Player2:     r.players[1],
		Bot:         r.isBot,
	}
}

// winnerName segue o placar: nome do vencedor, "bot" ou "draw".
func (r *Room) winnerName() string {
	switch r.outcome {
	case WonBySlot0:
		return r.players[0]
	case WonBySlot1:
		return r.players[1]
	}
	return leaderboard.WinnerDraw
}

// broadcast envia para os participantes conectados. Chamado com mu travado, o que
// mantém a ordem das mensagens de uma mesma sala.
func (r *Room) broadcast(msg network.Message) {
	for slot, p := range r.participants {
		if p != nil && r.connected[slot] {
			p.send(msg)
		}
	}
}

// sendTo envia só para um slot, se houver alguém conectado nele.
func (r *Room) sendTo(slot int, msg network.Message) {
	if p := r.participants[slot]; p != nil && r.connected[slot] {
		p.send(msg)
	}
}
