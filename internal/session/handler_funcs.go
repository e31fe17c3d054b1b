package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"dropfour/internal/game/bot"
	"dropfour/internal/leaderboard"
	"dropfour/internal/session/message"
)

// Ordem de locks: Room.mu -> PlayerSession.mu -> Registry / ForfeitTimers / Matchmaker.
// Nenhum callback de timer segura o próprio mutex ao travar uma sala.

// Join coloca o jogador na fila. Se o usuário tem um slot desconectado numa partida viva,
// a conexão retoma esse slot em vez de entrar na fila.
func (h *GameHandler) Join(p *PlayerSession, rawUsername string) error {
	username, err := normalizeUsername(rawUsername)
	if err != nil {
		return err
	}

	switch p.State() {
	case stateInQueue:
		return ErrAlreadyQueued
	case stateInMatch:
		return ErrAlreadyPlaying
	}

	if room, ok := h.registry.FindByPlayer(username); ok {
		resumed, err := h.resumeDisconnected(p, room, username)
		if err != nil || resumed {
			return err
		}
	}

	p.mu.Lock()
	p.username = username
	p.state = stateInQueue
	p.mu.Unlock()

	if err := h.matchmaker.Enqueue(p); err != nil {
		p.mu.Lock()
		if p.state == stateInQueue {
			p.state = stateLobby
		}
		p.mu.Unlock()
		return err
	}

	// Se houve pareamento imediato, o jogador já recebeu start.
	if p.State() == stateInQueue {
		message.SendQueued(p.Transport, "Waiting for an opponent...")
	}
	return nil
}

func (h *GameHandler) resumeDisconnected(p *PlayerSession, room *Room, username string) (bool, error) {
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.outcome != InProgress {
		return false, nil
	}
	slot := room.slotOf(username)
	if slot < 0 {
		return false, nil
	}
	if room.connected[slot] {
		return false, ErrAlreadyPlaying
	}
	h.resumeLocked(p, room, slot)
	return true, nil
}

// Rejoin religa um transporte a um slot humano de uma partida viva.
// Erros vão só para quem pediu; a sala não é tocada.
func (h *GameHandler) Rejoin(p *PlayerSession, sessionID, rawUsername string) error {
	username, err := normalizeUsername(rawUsername)
	if err != nil {
		return err
	}

	room, ok := h.registry.Get(sessionID)
	if !ok {
		return ErrNoSuchSession
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.outcome != InProgress {
		return ErrNoSuchSession
	}
	slot := room.slotOf(username)
	if slot < 0 {
		return ErrNotAParticipant
	}
	if room.participants[slot] == p {
		p.send(message.CreateGameState(message.TypeUpdate, room.gamePayload()))
		return nil
	}

	switch p.State() {
	case stateInMatch:
		return ErrAlreadyPlaying
	case stateInQueue:
		// false aqui quer dizer que a promoção acabou de levar o jogador.
		if !h.matchmaker.RemoveIfPresent(p) {
			return ErrAlreadyPlaying
		}
	}

	h.resumeLocked(p, room, slot)
	return nil
}

// resumeLocked troca o transporte do slot por p. room.mu travado.
func (h *GameHandler) resumeLocked(p *PlayerSession, room *Room, slot int) {
	h.forfeits.Cancel(room.ID, slot)

	if old := room.participants[slot]; old != nil && old != p {
		old.release(room)
		if room.connected[slot] {
			// Outra aba assumiu o slot; a conexão antiga é derrubada.
			old.Transport.Close()
		}
	}

	room.participants[slot] = p
	room.connected[slot] = p.bind(room, slot)

	h.logger.Infow("player reconnected", "session", room.ID, "username", room.players[slot], "slot", slot)

	p.send(message.CreateGameState(message.TypeUpdate, room.gamePayload()))
	room.sendTo(1-slot, message.CreateOpponentReconnected(room.ID, room.players[slot]))
}

// Move aplica a jogada de p. Jogadas inválidas retornam erro e não mudam nada;
// quem chama só registra em debug.
func (h *GameHandler) Move(p *PlayerSession, column int) error {
	room, slot := p.binding()
	if room == nil {
		return ErrStaleMove
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if err := room.checkTurn(p, slot); err != nil {
		return err
	}
	res, err := room.place(slot, column)
	if err != nil {
		return err
	}

	// A resposta do bot entra antes do broadcast: o cliente recebe um único update.
	if res.outcome == InProgress && room.isBot && room.turn == 1 {
		res, err = room.botReply()
		if err != nil {
			h.logger.Errorw("bot failed to move", "session", room.ID, "error", err)
			if room.board.Full() {
				res = placeResult{outcome: Draw, reason: message.ReasonDraw}
			} else {
				room.turn = 0
				res = placeResult{outcome: InProgress}
			}
		}
	}

	if res.outcome != InProgress {
		h.finish(room, res.outcome, res.reason)
		return nil
	}
	room.broadcast(message.CreateGameState(message.TypeUpdate, room.gamePayload()))
	return nil
}

// pair é o callback do Matchmaker. O recém-chegado fica com o slot 0 e joga primeiro.
func (h *GameHandler) pair(newcomer, waiting *PlayerSession) {
	room := newRoom(uuid.NewString(), newcomer.Username(), waiting.Username(), false, h.cfg.Clock.Now())

	room.mu.Lock()
	defer room.mu.Unlock()

	h.seat(room, 0, newcomer)
	h.seat(room, 1, waiting)
	h.registry.Create(room)

	h.logger.Infow("game started", "session", room.ID, "player1", room.players[0], "player2", room.players[1])
	h.startLocked(room)
}

// promote é o callback do timer de promoção: partida contra o bot, humano no slot 0.
func (h *GameHandler) promote(p *PlayerSession) {
	room := newRoom(uuid.NewString(), p.Username(), bot.ID, true, h.cfg.Clock.Now())

	room.mu.Lock()
	defer room.mu.Unlock()

	h.seat(room, 0, p)
	h.registry.Create(room)

	h.logger.Infow("bot game started", "session", room.ID, "player1", room.players[0])
	h.startLocked(room)
}

func (h *GameHandler) seat(room *Room, slot int, p *PlayerSession) {
	room.participants[slot] = p
	room.connected[slot] = p.bind(room, slot)
}

// startLocked envia start e arma o forfeit de quem caiu durante o pareamento.
func (h *GameHandler) startLocked(room *Room) {
	room.broadcast(message.CreateGameState(message.TypeStart, room.gamePayload()))
	for slot := 0; slot < 2; slot++ {
		if room.isHuman(slot) && !room.connected[slot] {
			h.markDisconnectedLocked(room, slot)
		}
	}
}

// disconnect roda quando o transporte de p fecha.
func (h *GameHandler) disconnect(p *PlayerSession) {
	// Marcar e ler o vínculo no mesmo lock garante que pair/promote, se vierem depois,
	// vejam o jogador como desconectado.
	p.mu.Lock()
	p.disconnected = true
	room, slot := p.room, p.slot
	username := p.username
	p.mu.Unlock()

	if h.matchmaker.RemoveIfPresent(p) {
		h.logger.Infow("player left the queue", "username", username)
		return
	}
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.outcome != InProgress || room.participants[slot] != p || !room.connected[slot] {
		return
	}
	room.connected[slot] = false
	h.logger.Infow("player disconnected", "session", room.ID, "username", username, "slot", slot)
	h.markDisconnectedLocked(room, slot)
}

// markDisconnectedLocked arma o forfeit do slot e avisa o oponente. room.mu travado.
func (h *GameHandler) markDisconnectedLocked(room *Room, slot int) {
	room.disconnects[slot]++
	gen := room.disconnects[slot]
	onExpire := func() { h.forfeit(room, slot, gen) }

	err := h.forfeits.Arm(room.ID, slot, onExpire)
	if errors.Is(err, ErrTimerArmed) {
		h.forfeits.Cancel(room.ID, slot)
		err = h.forfeits.Arm(room.ID, slot, onExpire)
	}
	if err != nil {
		h.logger.Warnw("could not arm forfeit timer", "session", room.ID, "slot", slot, "error", err)
	}
	seconds := int(h.forfeits.Delay().Seconds())
	room.sendTo(1-slot, message.CreateOpponentDisconnected(room.ID, room.players[slot], seconds))
}

// forfeit roda na goroutine do timer e revalida tudo sob o mutex da sala.
// gen identifica a queda que armou o timer: um callback que perdeu a corrida para um
// rejoin seguido de nova queda não encurta a nova janela de reconexão.
func (h *GameHandler) forfeit(room *Room, slot int, gen int) {
	room.mu.Lock()
	defer room.mu.Unlock()

	if room.outcome != InProgress || room.connected[slot] || room.disconnects[slot] != gen {
		return
	}
	h.logger.Infow("player forfeited", "session", room.ID, "username", room.players[slot])
	h.finish(room, wonBy(1-slot), message.ReasonForfeit)
}

// finish é o único lugar que tira a sala de InProgress. room.mu travado.
func (h *GameHandler) finish(room *Room, outcome Outcome, reason string) {
	if room.outcome != InProgress || outcome == InProgress {
		return
	}
	room.outcome = outcome
	winner := room.winnerName()

	room.broadcast(message.CreateEnd(message.EndPayload{
		SessionID: room.ID,
		Board:     room.board,
		Winner:    winner,
		Reason:    reason,
	}))

	h.forfeits.CancelAll(room.ID)
	h.registry.Remove(room.ID)
	for _, p := range room.participants {
		if p != nil {
			p.release(room)
		}
	}

	h.logger.Infow("game finished", "session", room.ID, "winner", winner, "reason", reason, "moves", room.moves)

	if room.resultRecorded {
		return
	}
	room.resultRecorded = true

	rec := leaderboard.GameRecord{
		ID:         room.ID,
		Player1:    room.players[0],
		Player2:    room.players[1],
		Winner:     winner,
		Reason:     reason,
		Moves:      room.moves,
		StartedAt:  room.CreatedAt,
		FinishedAt: h.cfg.Clock.Now(),
	}
	h.spawn(func() { h.record(rec) })
}

// spawn roda um side effect acompanhado pelo WaitGroup. Depois do Shutdown nada novo começa.
func (h *GameHandler) spawn(fn func()) {
	h.effectsMu.Lock()
	if h.closing {
		h.effectsMu.Unlock()
		h.logger.Warn("shutting down, dropping game result side effects")
		return
	}
	h.sideEffects.Add(1)
	h.effectsMu.Unlock()

	go func() {
		defer h.sideEffects.Done()
		fn()
	}()
}

// record grava o placar e a partida e publica o evento. Falhas só geram log.
func (h *GameHandler) record(rec leaderboard.GameRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.StoreTimeout)
	defer cancel()

	log := h.logger.With("session", rec.ID, "winner", rec.Winner)

	if h.store != nil {
		if rec.Winner != leaderboard.WinnerDraw {
			if err := h.store.EnsurePlayer(ctx, rec.Winner); err != nil {
				log.Warnw("failed to ensure leaderboard entry", "error", err)
			}
			if err := h.store.RecordWin(ctx, rec.Winner); err != nil {
				log.Warnw("failed to record win", "error", err)
			}
		}
		if err := h.store.SaveGame(ctx, rec); err != nil {
			log.Warnw("failed to save game", "error", err)
		}
	}

	if err := h.publisher.PublishResult(ctx, rec); err != nil {
		log.Warnw("failed to publish game result", "error", err)
	}
}
