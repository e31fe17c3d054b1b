package session

import (
	"fmt"

	"dropfour/internal/game/board"
	"dropfour/internal/game/bot"
	"dropfour/internal/session/message"
)

// placeResult diz o que aconteceu depois de uma peça colocada.
type placeResult struct {
	outcome Outcome
	reason  string
}

// place coloca a peça do slot e avalia vitória e empate. mu travado.
// Em erro de coluna nada muda, nem o turno.
func (r *Room) place(slot, column int) (placeResult, error) {
	if _, err := r.board.Drop(column, r.players[slot]); err != nil {
		return placeResult{}, err
	}
	r.moves++

	if r.board.HasFourInRow(r.players[slot]) {
		return placeResult{outcome: wonBy(slot), reason: message.ReasonFourInARow}, nil
	}
	if r.moves == board.Cells {
		return placeResult{outcome: Draw, reason: message.ReasonDraw}, nil
	}
	r.turn = 1 - slot
	return placeResult{outcome: InProgress}, nil
}

// checkTurn valida se p pode jogar agora. mu travado.
func (r *Room) checkTurn(p *PlayerSession, slot int) error {
	if r.outcome != InProgress || slot < 0 || slot > 1 || r.participants[slot] != p {
		return ErrStaleMove
	}
	if r.turn != slot {
		return ErrOutOfTurn
	}
	return nil
}

// botReply escolhe e aplica a jogada do bot. mu travado.
func (r *Room) botReply() (placeResult, error) {
	col, err := bot.ChooseMove(r.board, r.players[0])
	if err != nil {
		return placeResult{}, err
	}
	res, err := r.place(1, col)
	if err != nil {
		return placeResult{}, fmt.Errorf("bot chose column %d: %w", col, err)
	}
	return res, nil
}
