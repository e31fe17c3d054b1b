package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dropfour/internal/leaderboard"
	"dropfour/internal/network"
	"dropfour/internal/services/cluster"
	"dropfour/internal/session/message"
)

const defaultAddresses = "localhost:8080"

var logger = zap.NewNop().Sugar()

// writeMu garante um único escritor na conexão: a goroutine do stdin e o fechamento em main.
var writeMu sync.Mutex

func writeJSON(conn *websocket.Conn, v any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteJSON(v)
}

// gameView guarda o que o terminal precisa para desenhar o tabuleiro e reconectar.
type gameView struct {
	mu        sync.Mutex
	username  string
	sessionID string
	player1   string
	player2   string
}

func main() {
	addrs := flag.String("addr", "", "comma separated server addresses (default SERVER_ADDRESSES or "+defaultAddresses+")")
	consulAddr := flag.String("consul", "", "discover the server through consul instead of -addr")
	service := flag.String("service", "dropfour-server", "consul service name")
	verbose := flag.Bool("v", false, "log connection details")
	flag.Parse()

	zcfg := zap.NewDevelopmentConfig()
	if !*verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	if zl, err := zcfg.Build(); err == nil {
		logger = zl.Sugar().Named("client")
	}

	addresses, err := resolveAddresses(*addrs, *consulAddr, *service)
	if err != nil {
		logger.Fatalf("failed to resolve server: %v", err)
	}

	conn, host := dialAny(addresses)
	if conn == nil {
		logger.Fatalf("could not connect to any server in %v", addresses)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	view := &gameView{}
	done := make(chan struct{})
	go readLoop(conn, view, done)

	quit := make(chan struct{})
	go func() {
		printHelp()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if !handleUserInput(conn, host, view, scanner.Text()) {
				close(quit)
				return
			}
		}
	}()

	select {
	case <-done:
		fmt.Println("Desconectado do servidor.")
	case <-quit:
	case <-interrupt:
	}
	writeMu.Lock()
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	writeMu.Unlock()
}

func resolveAddresses(addrs, consulAddr, service string) ([]string, error) {
	if consulAddr != "" {
		client, err := cluster.NewConsulClient(consulAddr, logger)
		if err != nil {
			return nil, err
		}
		addr, err := cluster.DiscoverAnyHealthy(client, service)
		if err != nil {
			return nil, err
		}
		return []string{addr}, nil
	}
	if addrs == "" {
		addrs = os.Getenv("SERVER_ADDRESSES")
	}
	if addrs == "" {
		addrs = defaultAddresses
	}
	return strings.Split(addrs, ","), nil
}

// dialAny tenta cada endereço até um aceitar o upgrade.
func dialAny(addresses []string) (*websocket.Conn, string) {
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
		conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
		if err == nil {
			fmt.Printf("Conectado a %s\n", u.String())
			return conn, addr
		}
		logger.Warnf("failed to connect to %s: %v", addr, err)
		if resp != nil {
			logger.Warnf("response status: %s", resp.Status)
		}
	}
	return nil, ""
}

func readLoop(conn *websocket.Conn, view *gameView, done chan struct{}) {
	defer close(done)
	for {
		var msg network.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warnf("read error: %v", err)
			}
			return
		}
		printServerMessage(view, msg)
	}
}

func printServerMessage(view *gameView, msg network.Message) {
	switch msg.Type {
	case message.TypeQueued:
		var p message.QueuedPayload
		msg.Decode(&p)
		fmt.Printf("\n%s\n", p.Message)

	case message.TypeStart, message.TypeUpdate:
		var p message.GamePayload
		if err := msg.Decode(&p); err != nil {
			fmt.Printf("\npayload inválido: %v\n", err)
			return
		}
		view.mu.Lock()
		view.sessionID, view.player1, view.player2 = p.SessionID, p.Player1, p.Player2
		me := view.username
		view.mu.Unlock()

		if msg.Type == message.TypeStart {
			fmt.Printf("\nPartida %s: %s (X) contra %s (O)\n", p.SessionID, p.Player1, p.Player2)
		}
		fmt.Printf("\n%s", p.Board.String(p.Player1, p.Player2))
		if p.CurrentTurn == me {
			fmt.Println("Sua vez: move <coluna>")
		} else {
			fmt.Printf("Vez de %s\n", p.CurrentTurn)
		}

	case message.TypeEnd:
		var p message.EndPayload
		msg.Decode(&p)
		view.mu.Lock()
		p1, p2 := view.player1, view.player2
		view.sessionID = ""
		view.mu.Unlock()
		fmt.Printf("\n%s", p.Board.String(p1, p2))
		fmt.Printf("Fim de jogo: vencedor=%s motivo=%s\n", p.Winner, p.Reason)

	case message.TypeOpponentDisconnected:
		var p message.OpponentPayload
		msg.Decode(&p)
		fmt.Printf("\n%s desconectou; vitória por W.O. em %ds\n", p.Player, p.ForfeitInSeconds)

	case message.TypeOpponentReconnected:
		var p message.OpponentPayload
		msg.Decode(&p)
		fmt.Printf("\n%s voltou\n", p.Player)

	case message.TypeError:
		var p message.ErrorPayload
		msg.Decode(&p)
		fmt.Printf("\nErro (%s): %s\n", p.Code, p.Error)

	default:
		fmt.Printf("\nInfo (%s): %s\n", msg.Type, string(msg.Payload))
	}
}

// handleUserInput retorna false quando o usuário pediu para sair.
func handleUserInput(conn *websocket.Conn, host string, view *gameView, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	var (
		msg network.Message
		err error
	)
	switch fields[0] {
	case "join":
		if len(fields) != 2 {
			fmt.Println("uso: join <nome>")
			return true
		}
		view.mu.Lock()
		view.username = fields[1]
		view.mu.Unlock()
		msg, err = network.NewMessage("join", map[string]string{"username": fields[1]})

	case "move":
		col, convErr := strconv.Atoi(safeField(fields, 1))
		if convErr != nil {
			fmt.Println("uso: move <coluna 0-6>")
			return true
		}
		msg, err = network.NewMessage("move", map[string]int{"column": col})

	case "rejoin":
		view.mu.Lock()
		sessionID, username := view.sessionID, view.username
		view.mu.Unlock()
		if len(fields) == 3 {
			sessionID, username = fields[1], fields[2]
			view.mu.Lock()
			view.username = username
			view.mu.Unlock()
		}
		if sessionID == "" || username == "" {
			fmt.Println("uso: rejoin <sessionId> <nome>")
			return true
		}
		msg, err = network.NewMessage("rejoin", map[string]string{"sessionId": sessionID, "username": username})

	case "top":
		printLeaderboard(host)
		return true

	case "help":
		printHelp()
		return true

	case "quit", "exit":
		return false

	default:
		fmt.Println("Comando desconhecido. Digite help.")
		return true
	}

	if err != nil {
		logger.Warnf("failed to encode command: %v", err)
		return true
	}
	if err := writeJSON(conn, msg); err != nil {
		logger.Warnf("failed to send command: %v", err)
	}
	return true
}

func printLeaderboard(host string) {
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/leaderboard?limit=10", host))
	if err != nil {
		fmt.Printf("Erro ao buscar o placar: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var entries []leaderboard.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		fmt.Printf("Resposta inválida do placar: %v\n", err)
		return
	}
	fmt.Println("\n--- Placar ---")
	for i, e := range entries {
		fmt.Printf("%2d. %-32s %d\n", i+1, e.Username, e.Wins)
	}
}

func safeField(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func printHelp() {
	fmt.Print(`
--- Drop Four ---
join <nome>               entra na fila
move <coluna>             solta uma peça (0-6)
rejoin [sessionId nome]   volta para uma partida
top                       mostra o placar
quit                      sai
`)
}
