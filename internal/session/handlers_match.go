package session

import (
	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

type moveRequest struct {
	Column *int `json:"column"`
}

func (h *GameHandler) registerMatchHandlers() {
	h.matchRouter["move"] = handleMove
	h.matchRouter["join"] = func(h *GameHandler, p *PlayerSession, _ network.Message) {
		message.SendError(p.Transport, message.CodeAlreadyPlaying, "%s", ErrAlreadyPlaying.Error())
	}
	h.matchRouter["rejoin"] = func(h *GameHandler, p *PlayerSession, _ network.Message) {
		message.SendError(p.Transport, message.CodeAlreadyPlaying, "%s", ErrAlreadyPlaying.Error())
	}
}

func handleMove(h *GameHandler, p *PlayerSession, msg network.Message) {
	var req moveRequest
	if err := msg.Decode(&req); err != nil || req.Column == nil {
		message.SendError(p.Transport, message.CodeInvalidPayload, "move requires an integer column")
		return
	}
	if err := h.Move(p, *req.Column); err != nil {
		// Jogadas fora de turno, obsoletas ou em coluna cheia são descartadas sem resposta.
		h.logger.Debugw("move ignored", "username", p.Username(), "column", *req.Column, "reason", err)
	}
}

func handleStaleMove(h *GameHandler, p *PlayerSession, _ network.Message) {
	h.logger.Debugw("move ignored", "username", p.Username(), "reason", ErrStaleMove)
}
