package session

import (
	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

func (h *GameHandler) registerQueueHandlers() {
	h.queueRouter["join"] = func(h *GameHandler, p *PlayerSession, _ network.Message) {
		message.SendError(p.Transport, message.CodeAlreadyQueued, "%s", ErrAlreadyQueued.Error())
	}
	h.queueRouter["rejoin"] = handleRejoin
	// A promoção pode ter acabado de tirar o jogador do lobby.
	h.queueRouter["move"] = handleStaleMove
}
