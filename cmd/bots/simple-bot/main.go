package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dropfour/internal/game/bot"
	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

func main() {
	addr := flag.String("addr", envOr("SERVER_ADDRESS", "localhost:8080"), "server host:port")
	name := flag.String("name", envOr("BOT_NAME", "player-"+uuid.NewString()[:8]), "username to join with")
	games := flag.Int("games", 0, "stop after this many games (0 plays forever)")
	flag.Parse()

	zl, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	logger := zl.Sugar().Named("simple-bot").With("name", *name)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatalw("could not connect to server", "url", u.String(), "error", err)
	}
	defer conn.Close()

	p := &player{conn: conn, name: *name, logger: logger}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		p.close()
	}()

	if err := p.join(); err != nil {
		logger.Fatalw("join failed", "error", err)
	}

	played := 0
	for {
		var msg network.Message
		if err := conn.ReadJSON(&msg); err != nil {
			logger.Infow("connection closed", "error", err)
			return
		}

		switch msg.Type {
		case message.TypeStart, message.TypeUpdate:
			var state message.GamePayload
			if err := msg.Decode(&state); err != nil {
				logger.Warnw("invalid game payload", "error", err)
				continue
			}
			if err := p.play(state); err != nil {
				logger.Warnw("move failed", "error", err)
			}

		case message.TypeEnd:
			var end message.EndPayload
			msg.Decode(&end)
			played++
			logger.Infow("game over", "session", end.SessionID, "winner", end.Winner, "reason", end.Reason, "played", played)
			if *games > 0 && played >= *games {
				return
			}
			// Pausa entre partidas para simular um jogador real.
			time.Sleep(time.Duration(1+rand.Intn(3)) * time.Second)
			if err := p.join(); err != nil {
				logger.Warnw("rejoin queue failed", "error", err)
				return
			}

		case message.TypeError:
			var e message.ErrorPayload
			msg.Decode(&e)
			logger.Warnw("server error", "code", e.Code, "error", e.Error)

		default:
			logger.Debugw("server message", "type", msg.Type)
		}
	}
}

type player struct {
	conn   *websocket.Conn
	name   string
	logger *zap.SugaredLogger

	// writeMu garante um único escritor na conexão: o loop principal e o handler de interrupção.
	writeMu sync.Mutex
}

func (p *player) write(msg network.Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.conn.WriteJSON(msg)
}

// close envia o frame de fechamento e derruba a conexão; o ReadJSON do loop principal falha e o bot sai.
func (p *player) close() {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	p.conn.Close()
}

func (p *player) join() error {
	msg, err := network.NewMessage("join", map[string]string{"username": p.name})
	if err != nil {
		return err
	}
	return p.write(msg)
}

// play só responde quando é a vez do bot; a coluna vem da mesma heurística do servidor.
func (p *player) play(state message.GamePayload) error {
	if state.CurrentTurn != p.name {
		return nil
	}
	opponent := state.Player1
	if opponent == p.name {
		opponent = state.Player2
	}

	col, err := bot.ChooseMoveFor(state.Board, p.name, opponent)
	if err != nil {
		return fmt.Errorf("no move for session %s: %w", state.SessionID, err)
	}
	msg, err := network.NewMessage("move", map[string]int{"column": col})
	if err != nil {
		return err
	}
	p.logger.Debugw("playing", "session", state.SessionID, "column", col)
	return p.write(msg)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
