package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	Rows  = 6
	Cols  = 7
	Cells = Rows * Cols // Um tabuleiro cheio sem vencedor é empate.

	// Center é a coluna preferida pelo bot quando nada mais decide a jogada.
	Center = Cols / 2

	winLength = 4
)

var (
	ErrColumnFull    = errors.New("column is full")
	ErrInvalidColumn = errors.New("column out of range")
)

// Board é a grade 6x7. A linha 0 é o topo; as peças "caem" até a maior linha livre.
// Uma célula vazia é "", qualquer outro valor é o identificador de um participante.
//
// Board é um array (tipo valor), então copiar o tabuleiro é só uma atribuição.
type Board [Rows][Cols]string

// directions cobre horizontal, vertical e as duas diagonais.
var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func New() Board {
	return Board{}
}

// Drop coloca a peça de player na menor célula livre da coluna e retorna a linha usada.
// Em caso de erro o tabuleiro não é alterado.
func (b *Board) Drop(col int, player string) (int, error) {
	if col < 0 || col >= Cols {
		return -1, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}
	for r := Rows - 1; r >= 0; r-- {
		if b[r][col] == "" {
			b[r][col] = player
			return r, nil
		}
	}
	return -1, ErrColumnFull
}

// HasFourInRow verifica todas as células do jogador nas quatro direções.
// Não assume a última jogada como origem, pois também é usado em tabuleiros hipotéticos.
func (b Board) HasFourInRow(player string) bool {
	if player == "" {
		return false
	}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b[r][c] != player {
				continue
			}
			for _, d := range directions {
				if b.lineFrom(r, c, d[0], d[1], player) {
					return true
				}
			}
		}
	}
	return false
}

func (b Board) lineFrom(r, c, dr, dc int, player string) bool {
	for k := 1; k < winLength; k++ {
		nr, nc := r+dr*k, c+dc*k
		if nr < 0 || nr >= Rows || nc < 0 || nc >= Cols || b[nr][nc] != player {
			return false
		}
	}
	return true
}

// WouldWin simula a jogada numa cópia. Coluna cheia ou inválida retorna false.
func (b Board) WouldWin(col int, player string) bool {
	scratch := b
	if _, err := scratch.Drop(col, player); err != nil {
		return false
	}
	return scratch.HasFourInRow(player)
}

// Playable informa se a célula do topo da coluna está livre.
func (b Board) Playable(col int) bool {
	return col >= 0 && col < Cols && b[0][col] == ""
}

// PlayableColumns retorna as colunas jogáveis em ordem crescente.
func (b Board) PlayableColumns() []int {
	cols := make([]int, 0, Cols)
	for c := 0; c < Cols; c++ {
		if b.Playable(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Count retorna quantas células estão ocupadas.
func (b Board) Count() int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b[r][c] != "" {
				n++
			}
		}
	}
	return n
}

func (b Board) Full() bool {
	return len(b.PlayableColumns()) == 0
}

// MarshalJSON codifica células vazias como null, o formato que os clientes renderizam.
func (b Board) MarshalJSON() ([]byte, error) {
	grid := make([][]*string, Rows)
	for r := 0; r < Rows; r++ {
		grid[r] = make([]*string, Cols)
		for c := 0; c < Cols; c++ {
			if b[r][c] != "" {
				v := b[r][c]
				grid[r][c] = &v
			}
		}
	}
	return json.Marshal(grid)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var grid [][]*string
	if err := json.Unmarshal(data, &grid); err != nil {
		return err
	}
	if len(grid) != Rows {
		return fmt.Errorf("board: expected %d rows, got %d", Rows, len(grid))
	}
	var out Board
	for r, row := range grid {
		if len(row) != Cols {
			return fmt.Errorf("board: row %d has %d cells, expected %d", r, len(row), Cols)
		}
		for c, cell := range row {
			if cell != nil {
				out[r][c] = *cell
			}
		}
	}
	*b = out
	return nil
}

// String desenha o tabuleiro em ASCII. Cada participante recebe um símbolo pela ordem
// em que aparece em marks; quem não estiver em marks vira '?'.
func (b Board) String(marks ...string) string {
	symbols := []byte{'X', 'O'}
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		sb.WriteByte('|')
		for c := 0; c < Cols; c++ {
			ch := byte('.')
			if cell := b[r][c]; cell != "" {
				ch = '?'
				for i, m := range marks {
					if m == cell && i < len(symbols) {
						ch = symbols[i]
					}
				}
			}
			sb.WriteByte(ch)
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	for c := 0; c < Cols; c++ {
		sb.WriteString(fmt.Sprintf(" %d", c))
	}
	sb.WriteString("\n")
	return sb.String()
}
