package session

import (
	"strings"
	"sync"
	"unicode/utf8"

	"dropfour/internal/game/bot"
	"dropfour/internal/network"
)

// Estados da sessão do jogador. Cada estado tem seu próprio roteador de comandos.
const (
	stateLobby   = "lobby"
	stateInQueue = "in-queue"
	stateInMatch = "in-match"

	maxUsernameLength = 32
)

// Transport é o lado de saída de uma conexão. network.Client implementa;
// os testes usam um transporte falso que grava as mensagens.
type Transport interface {
	// Send não bloqueia e retorna false quando a conexão já foi fechada.
	Send(msg network.Message) bool
	Close()
	IsOpen() bool
}

// PlayerSession representa uma conexão e o que ela está fazendo no servidor.
// Os campos abaixo de mu mudam a partir do Hub e dos timers.
type PlayerSession struct {
	Transport Transport

	mu           sync.Mutex
	state        string
	username     string
	room         *Room
	slot         int
	disconnected bool
}

func NewPlayerSession(t Transport) *PlayerSession {
	return &PlayerSession{
		Transport: t,
		state:     stateLobby,
	}
}

func (p *PlayerSession) Username() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.username
}

func (p *PlayerSession) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// binding retorna a sala e o slot atuais; room é nil fora de partida.
func (p *PlayerSession) binding() (*Room, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room, p.slot
}

// bind associa o jogador a um slot e informa se ele ainda está conectado.
// Um jogador que caiu no meio do pareamento entra na sala já desconectado.
// Chamado com o mutex da sala travado.
func (p *PlayerSession) bind(r *Room, slot int) (connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = stateInMatch
	p.username = r.players[slot]
	p.room = r
	p.slot = slot
	return !p.disconnected
}

// release devolve o jogador ao lobby se ele ainda estiver ligado à sala r.
func (p *PlayerSession) release(r *Room) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.room == r {
		p.room = nil
		p.state = stateLobby
	}
}

func (p *PlayerSession) send(msg network.Message) {
	p.Transport.Send(msg)
}

// normalizeUsername remove espaços e valida o nome. "bot" é reservado ao oponente embutido.
func normalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > maxUsernameLength || strings.EqualFold(name, bot.ID) {
		return "", ErrInvalidUsername
	}
	return name, nil
}
