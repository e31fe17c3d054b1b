package bot

import (
	"errors"

	"dropfour/internal/game/board"
)

// ID é o identificador do oponente embutido no tabuleiro e no placar.
const ID = "bot"

var ErrNoLegalMove = errors.New("no legal move: board is full")

// ChooseMove escolhe a jogada do bot contra o humano informado.
func ChooseMove(b board.Board, human string) (int, error) {
	return ChooseMoveFor(b, ID, human)
}

// ChooseMoveFor aplica a heurística do ponto de vista de self.
// Ordem de prioridade: vencer, bloquear, evitar entregar a vitória, centro, mais à esquerda.
// É uma função pura; o tabuleiro recebido nunca é alterado.
func ChooseMoveFor(b board.Board, self, opponent string) (int, error) {
	playable := b.PlayableColumns()
	if len(playable) == 0 {
		return -1, ErrNoLegalMove
	}

	for _, c := range playable {
		if b.WouldWin(c, self) {
			return c, nil
		}
	}

	for _, c := range playable {
		if b.WouldWin(c, opponent) {
			return c, nil
		}
	}

	candidates := safeColumns(b, playable, self, opponent)
	if len(candidates) == 0 {
		candidates = playable
	}

	for _, c := range candidates {
		if c == board.Center {
			return c, nil
		}
	}
	return candidates[0], nil
}

// safeColumns mantém as colunas onde, depois da jogada de self, o oponente
// não tem vitória imediata em nenhuma coluna.
func safeColumns(b board.Board, playable []int, self, opponent string) []int {
	safe := make([]int, 0, len(playable))
	for _, c := range playable {
		after := b
		if _, err := after.Drop(c, self); err != nil {
			continue
		}
		if !opponentCanWin(after, opponent) {
			safe = append(safe, c)
		}
	}
	return safe
}

func opponentCanWin(b board.Board, opponent string) bool {
	for _, c := range b.PlayableColumns() {
		if b.WouldWin(c, opponent) {
			return true
		}
	}
	return false
}
