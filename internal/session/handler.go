package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"dropfour/internal/events"
	"dropfour/internal/leaderboard"
	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

const (
	DefaultPromotionDelay = 10 * time.Second
	DefaultForfeitDelay   = 30 * time.Second
	DefaultStoreTimeout   = 5 * time.Second
)

// CommandHandlerFunc é a assinatura de todo comando vindo do cliente.
type CommandHandlerFunc func(h *GameHandler, p *PlayerSession, msg network.Message)

// Config reúne os tempos do ciclo de vida. Zeros viram os valores padrão.
type Config struct {
	PromotionDelay time.Duration
	ForfeitDelay   time.Duration
	StoreTimeout   time.Duration
	Clock          clock.Clock
}

func (c Config) withDefaults() Config {
	if c.PromotionDelay <= 0 {
		c.PromotionDelay = DefaultPromotionDelay
	}
	if c.ForfeitDelay <= 0 {
		c.ForfeitDelay = DefaultForfeitDelay
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	return c
}

// GameHandler implementa network.EventHandler e orquestra fila, salas, timers e placar.
type GameHandler struct {
	cfg    Config
	logger *zap.SugaredLogger

	// sessions é acessado SOMENTE pela goroutine do Hub.
	sessions map[Transport]*PlayerSession

	registry   *Registry
	matchmaker *Matchmaker
	forfeits   *ForfeitTimers

	store     leaderboard.Store
	publisher events.Publisher

	// sideEffects acompanha as gravações disparadas no fim de cada partida.
	effectsMu   sync.Mutex
	closing     bool
	sideEffects sync.WaitGroup

	lobbyRouter map[string]CommandHandlerFunc
	queueRouter map[string]CommandHandlerFunc
	matchRouter map[string]CommandHandlerFunc
}

func NewGameHandler(cfg Config, store leaderboard.Store, publisher events.Publisher, logger *zap.SugaredLogger) *GameHandler {
	cfg = cfg.withDefaults()
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	h := &GameHandler{
		cfg:         cfg,
		logger:      logger.Named("session"),
		sessions:    make(map[Transport]*PlayerSession),
		registry:    NewRegistry(),
		forfeits:    NewForfeitTimers(cfg.Clock, cfg.ForfeitDelay),
		store:       store,
		publisher:   publisher,
		lobbyRouter: make(map[string]CommandHandlerFunc),
		queueRouter: make(map[string]CommandHandlerFunc),
		matchRouter: make(map[string]CommandHandlerFunc),
	}
	h.matchmaker = NewMatchmaker(cfg.Clock, cfg.PromotionDelay, h.pair, h.promote, logger.Named("matchmaker"))

	h.registerLobbyHandlers()
	h.registerQueueHandlers()
	h.registerMatchHandlers()
	return h
}

func (h *GameHandler) Registry() *Registry {
	return h.registry
}

func (h *GameHandler) Matchmaker() *Matchmaker {
	return h.matchmaker
}

func (h *GameHandler) ForfeitTimers() *ForfeitTimers {
	return h.forfeits
}

// --- network.EventHandler ---

func (h *GameHandler) OnConnect(c *network.Client) {
	h.Connect(c)
}

func (h *GameHandler) OnDisconnect(c *network.Client) {
	h.Disconnect(c)
}

func (h *GameHandler) OnMessage(c *network.Client, msg network.Message) {
	h.HandleMessage(c, msg)
}

// Connect cria a sessão do transporte. Chamado pela goroutine do Hub.
func (h *GameHandler) Connect(t Transport) *PlayerSession {
	p := NewPlayerSession(t)
	h.sessions[t] = p
	h.logger.Debugw("session created", "sessions", len(h.sessions))
	return p
}

// Disconnect encerra a sessão do transporte e aplica as regras de desconexão.
func (h *GameHandler) Disconnect(t Transport) {
	p, ok := h.sessions[t]
	if !ok {
		return
	}
	delete(h.sessions, t)
	h.disconnect(p)
	h.logger.Debugw("session removed", "sessions", len(h.sessions))
}

// HandleMessage escolhe o roteador pelo estado do jogador e despacha o comando.
func (h *GameHandler) HandleMessage(t Transport, msg network.Message) {
	p, ok := h.sessions[t]
	if !ok {
		return
	}

	if msg.Type == network.TypeMalformed {
		message.SendError(t, message.CodeInvalidPayload, "malformed message")
		return
	}

	var router map[string]CommandHandlerFunc
	switch state := p.State(); state {
	case stateLobby:
		router = h.lobbyRouter
	case stateInQueue:
		router = h.queueRouter
	case stateInMatch:
		router = h.matchRouter
	default:
		h.logger.Errorw("player in unknown state", "state", state)
		return
	}

	handler, found := router[msg.Type]
	if !found {
		message.SendError(t, message.CodeUnknownCommand, "unknown or invalid command for current state: %s", msg.Type)
		return
	}
	handler(h, p, msg)
}

// Shutdown para a fila e os timers e espera as gravações em andamento, até o ctx expirar.
func (h *GameHandler) Shutdown(ctx context.Context) error {
	h.matchmaker.Stop()
	h.forfeits.Stop()

	h.effectsMu.Lock()
	h.closing = true
	h.effectsMu.Unlock()

	done := make(chan struct{})
	go func() {
		h.sideEffects.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
