package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dropfour/internal/events"
	"dropfour/internal/leaderboard"
	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

const (
	testPromotionDelay = 10 * time.Second
	testForfeitDelay   = 30 * time.Second
	waitFor            = 2 * time.Second
	tick               = 5 * time.Millisecond
)

// fakeTransport grava tudo o que o servidor envia.
type fakeTransport struct {
	mu     sync.Mutex
	msgs   []network.Message
	closed bool
}

func (f *fakeTransport) Send(msg network.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeTransport) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeTransport) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Type
	}
	return out
}

func (f *fakeTransport) count(msgType string) int {
	n := 0
	for _, t := range f.types() {
		if t == msgType {
			n++
		}
	}
	return n
}

// last retorna a mensagem mais recente do tipo pedido.
func (f *fakeTransport) last(msgType string) (network.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].Type == msgType {
			return f.msgs[i], true
		}
	}
	return network.Message{}, false
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = nil
}

type harness struct {
	t       *testing.T
	h       *GameHandler
	clock   *clock.Mock
	store   *leaderboard.MemoryStore
	clients map[string]*fakeTransport
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mock := clock.NewMock()
	store := leaderboard.NewMemoryStore()
	h := NewGameHandler(Config{
		PromotionDelay: testPromotionDelay,
		ForfeitDelay:   testForfeitDelay,
		StoreTimeout:   time.Second,
		Clock:          mock,
	}, store, events.NopPublisher{}, zaptest.NewLogger(t).Sugar())
	return &harness{t: t, h: h, clock: mock, store: store, clients: make(map[string]*fakeTransport)}
}

func mustMessage(t *testing.T, msgType string, payload any) network.Message {
	t.Helper()
	msg, err := network.NewMessage(msgType, payload)
	require.NoError(t, err)
	return msg
}

// connect abre um transporte novo registrado sob label.
func (hs *harness) connect(label string) *fakeTransport {
	tr := &fakeTransport{}
	hs.h.Connect(tr)
	hs.clients[label] = tr
	return tr
}

func (hs *harness) join(label, username string) *fakeTransport {
	tr := hs.connect(label)
	hs.h.HandleMessage(tr, mustMessage(hs.t, "join", map[string]string{"username": username}))
	return tr
}

func (hs *harness) move(tr *fakeTransport, column int) {
	hs.h.HandleMessage(tr, mustMessage(hs.t, "move", map[string]int{"column": column}))
}

func (hs *harness) rejoin(tr *fakeTransport, sessionID, username string) {
	hs.h.HandleMessage(tr, mustMessage(hs.t, "rejoin", map[string]string{"sessionId": sessionID, "username": username}))
}

func decode[T any](t *testing.T, msg network.Message) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Payload, &out))
	return out
}

func lastGame(t *testing.T, tr *fakeTransport, msgType string) message.GamePayload {
	t.Helper()
	msg, ok := tr.last(msgType)
	require.True(t, ok, "no %s message, got %v", msgType, tr.types())
	return decode[message.GamePayload](t, msg)
}

func lastEnd(t *testing.T, tr *fakeTransport) message.EndPayload {
	t.Helper()
	msg, ok := tr.last(message.TypeEnd)
	require.True(t, ok, "no end message, got %v", tr.types())
	return decode[message.EndPayload](t, msg)
}

func lastError(t *testing.T, tr *fakeTransport) message.ErrorPayload {
	t.Helper()
	msg, ok := tr.last(message.TypeError)
	require.True(t, ok, "no error message, got %v", tr.types())
	return decode[message.ErrorPayload](t, msg)
}

// testPlayer cria uma sessão com nome, sem passar pelo handler.
func testPlayer(name string) *PlayerSession {
	p := NewPlayerSession(&fakeTransport{})
	p.username = name
	return p
}
