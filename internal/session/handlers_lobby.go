package session

import (
	"errors"

	"dropfour/internal/network"
	"dropfour/internal/session/message"
)

type joinRequest struct {
	Username string `json:"username"`
}

type rejoinRequest struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
}

func (h *GameHandler) registerLobbyHandlers() {
	h.lobbyRouter["join"] = handleJoin
	h.lobbyRouter["rejoin"] = handleRejoin
	// Jogada chegando depois do fim da partida.
	h.lobbyRouter["move"] = handleStaleMove
}

func handleJoin(h *GameHandler, p *PlayerSession, msg network.Message) {
	var req joinRequest
	if err := msg.Decode(&req); err != nil {
		message.SendError(p.Transport, message.CodeInvalidPayload, "invalid join payload: %v", err)
		return
	}
	if err := h.Join(p, req.Username); err != nil {
		sendJoinError(p, err)
	}
}

func handleRejoin(h *GameHandler, p *PlayerSession, msg network.Message) {
	var req rejoinRequest
	if err := msg.Decode(&req); err != nil {
		message.SendError(p.Transport, message.CodeInvalidPayload, "invalid rejoin payload: %v", err)
		return
	}
	if err := h.Rejoin(p, req.SessionID, req.Username); err != nil {
		sendJoinError(p, err)
	}
}

// sendJoinError traduz os erros de Join e Rejoin para códigos do protocolo.
// Vai só para quem pediu.
func sendJoinError(p *PlayerSession, err error) {
	code := message.CodeInvalidPayload
	switch {
	case errors.Is(err, ErrInvalidUsername):
		code = message.CodeInvalidUsername
	case errors.Is(err, ErrAlreadyQueued):
		code = message.CodeAlreadyQueued
	case errors.Is(err, ErrAlreadyPlaying):
		code = message.CodeAlreadyPlaying
	case errors.Is(err, ErrNoSuchSession):
		code = message.CodeNoSuchSession
	case errors.Is(err, ErrNotAParticipant):
		code = message.CodeNotAParticipant
	case errors.Is(err, ErrShuttingDown):
		code = message.CodeShuttingDown
	}
	message.SendError(p.Transport, code, "%s", err.Error())
}
