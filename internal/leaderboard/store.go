package leaderboard

import (
	"context"
	"time"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000

	// WinnerDraw é o valor de GameRecord.Winner quando ninguém vence.
	WinnerDraw = "draw"
)

// Entry é uma linha do placar.
type Entry struct {
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
}

// GameRecord resume uma partida encerrada. É gravado pelo Store e publicado como evento.
type GameRecord struct {
	ID         string    `json:"id"`
	Player1    string    `json:"player1"`
	Player2    string    `json:"player2"`
	Winner     string    `json:"winner"`
	Reason     string    `json:"reason"`
	Moves      int       `json:"moves"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store é o backend de persistência do placar.
// Todas as implementações precisam ser seguras para uso concorrente.
type Store interface {
	EnsurePlayer(ctx context.Context, username string) error
	RecordWin(ctx context.Context, username string) error
	// Top retorna até limit entradas, ordenadas por vitórias (desc) e nome (asc).
	Top(ctx context.Context, limit int) ([]Entry, error)
	SaveGame(ctx context.Context, rec GameRecord) error
	Ping(ctx context.Context) error
	Close()
}

// clampLimit normaliza o limite pedido para o intervalo aceito.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
