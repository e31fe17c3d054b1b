package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type forfeitKey struct {
	sessionID string
	slot      int
}

type forfeitEntry struct {
	timer *clock.Timer
}

// ForfeitTimers guarda um timer por (sessão, slot) enquanto o slot está desconectado.
type ForfeitTimers struct {
	mu      sync.Mutex
	timers  map[forfeitKey]*forfeitEntry
	stopped bool

	clock clock.Clock
	delay time.Duration
}

func NewForfeitTimers(clk clock.Clock, delay time.Duration) *ForfeitTimers {
	return &ForfeitTimers{
		timers: make(map[forfeitKey]*forfeitEntry),
		clock:  clk,
		delay:  delay,
	}
}

func (f *ForfeitTimers) Delay() time.Duration {
	return f.delay
}

// Arm agenda onExpire para depois do delay. onExpire roda sem nenhum lock deste tipo
// e precisa revalidar o estado da sala por conta própria.
func (f *ForfeitTimers) Arm(sessionID string, slot int, onExpire func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return ErrShuttingDown
	}
	k := forfeitKey{sessionID, slot}
	if _, ok := f.timers[k]; ok {
		return ErrTimerArmed
	}
	entry := &forfeitEntry{}
	entry.timer = f.clock.AfterFunc(f.delay, func() { f.fire(k, entry, onExpire) })
	f.timers[k] = entry
	return nil
}

// fire só chama onExpire se a própria entrada ainda estiver registrada.
// Um timer cancelado, ou substituído por um novo Arm, não faz nada.
func (f *ForfeitTimers) fire(k forfeitKey, entry *forfeitEntry, onExpire func()) {
	f.mu.Lock()
	if f.timers[k] != entry {
		f.mu.Unlock()
		return
	}
	delete(f.timers, k)
	f.mu.Unlock()

	onExpire()
}

func (f *ForfeitTimers) Cancel(sessionID string, slot int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelLocked(forfeitKey{sessionID, slot})
}

func (f *ForfeitTimers) CancelAll(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for slot := 0; slot < 2; slot++ {
		f.cancelLocked(forfeitKey{sessionID, slot})
	}
}

func (f *ForfeitTimers) cancelLocked(k forfeitKey) {
	if e, ok := f.timers[k]; ok {
		e.timer.Stop()
		delete(f.timers, k)
	}
}

func (f *ForfeitTimers) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *ForfeitTimers) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, e := range f.timers {
		e.timer.Stop()
		delete(f.timers, k)
	}
	f.stopped = true
}
