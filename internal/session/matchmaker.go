package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// waitingEntry é um jogador na fila, com o timer que o promove para uma partida contra o bot.
type waitingEntry struct {
	player     *PlayerSession
	username   string
	enqueuedAt time.Time
	timer      *clock.Timer
}

// Matchmaker é uma fila FIFO. Um recém-chegado é pareado com o jogador mais antigo;
// quem espera mais que o delay de promoção vai para uma partida contra o bot.
// Os callbacks são sempre chamados fora do mutex.
type Matchmaker struct {
	mu    sync.Mutex
	queue []*waitingEntry

	// promoting guarda quem já saiu da fila mas ainda não tem sala registrada.
	promoting map[string]*PlayerSession
	stopped   bool

	clock     clock.Clock
	delay     time.Duration
	onPair    func(newcomer, waiting *PlayerSession)
	onPromote func(p *PlayerSession)
	logger    *zap.SugaredLogger
}

func NewMatchmaker(clk clock.Clock, promotionDelay time.Duration,
	onPair func(newcomer, waiting *PlayerSession), onPromote func(p *PlayerSession),
	logger *zap.SugaredLogger) *Matchmaker {
	return &Matchmaker{
		promoting: make(map[string]*PlayerSession),
		clock:     clk,
		delay:     promotionDelay,
		onPair:    onPair,
		onPromote: onPromote,
		logger:    logger,
	}
}

// Enqueue pareia p com o jogador mais antigo da fila ou o coloca para esperar.
func (m *Matchmaker) Enqueue(p *PlayerSession) error {
	username := p.Username()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrShuttingDown
	}
	for _, e := range m.queue {
		if e.player == p || e.username == username {
			m.mu.Unlock()
			return ErrAlreadyQueued
		}
	}
	if _, ok := m.promoting[username]; ok {
		m.mu.Unlock()
		return ErrAlreadyQueued
	}

	if len(m.queue) > 0 {
		waiting := m.queue[0]
		m.queue = m.queue[1:]
		waiting.timer.Stop()
		m.mu.Unlock()

		m.logger.Infow("match found", "newcomer", username, "waiting", waiting.username,
			"waited", m.clock.Since(waiting.enqueuedAt))
		m.onPair(p, waiting.player)
		return nil
	}

	entry := &waitingEntry{player: p, username: username, enqueuedAt: m.clock.Now()}
	entry.timer = m.clock.AfterFunc(m.delay, func() { m.promote(entry) })
	m.queue = append(m.queue, entry)
	m.mu.Unlock()

	m.logger.Infow("player queued", "username", username)
	return nil
}

// promote roda na goroutine do timer. Só promove se a própria entrada ainda estiver na fila,
// então um jogador pareado ou que saiu (mesmo que tenha voltado) nunca é promovido por um timer velho.
// Até onPromote voltar, o nome continua bloqueado para novos Enqueue.
func (m *Matchmaker) promote(entry *waitingEntry) {
	m.mu.Lock()
	found := false
	for i, e := range m.queue {
		if e == entry {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			found = true
			break
		}
	}
	if found {
		m.promoting[entry.username] = entry.player
	}
	m.mu.Unlock()
	if !found {
		return
	}

	m.logger.Infow("promoting to bot game", "username", entry.username)
	m.onPromote(entry.player)

	m.mu.Lock()
	if m.promoting[entry.username] == entry.player {
		delete(m.promoting, entry.username)
	}
	m.mu.Unlock()
}

// RemoveIfPresent tira p da fila e cancela sua promoção.
func (m *Matchmaker) RemoveIfPresent(p *PlayerSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(p)
}

func (m *Matchmaker) removeLocked(p *PlayerSession) bool {
	for i, e := range m.queue {
		if e.player == p {
			e.timer.Stop()
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Matchmaker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Stop cancela todas as promoções pendentes. Enqueue passa a falhar.
func (m *Matchmaker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.queue {
		e.timer.Stop()
	}
	m.queue = nil
	m.stopped = true
}
