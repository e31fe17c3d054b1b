package session

import (
	"sync"

	"dropfour/internal/game/bot"
)

// Registry guarda as salas vivas. Só armazena; nenhuma regra de jogo passa por aqui.
type Registry struct {
	sync.RWMutex
	rooms    map[string]*Room
	byPlayer map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
	}
}

// Create registra a sala e indexa os participantes humanos.
func (r *Registry) Create(room *Room) {
	r.Lock()
	defer r.Unlock()
	r.rooms[room.ID] = room
	for _, name := range room.players {
		if name != bot.ID {
			r.byPlayer[name] = room.ID
		}
	}
}

func (r *Registry) Get(id string) (*Room, bool) {
	r.RLock()
	defer r.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Remove apaga a sala. Entradas do índice só saem se ainda apontarem para ela.
func (r *Registry) Remove(id string) {
	r.Lock()
	defer r.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return
	}
	delete(r.rooms, id)
	for _, name := range room.players {
		if r.byPlayer[name] == id {
			delete(r.byPlayer, name)
		}
	}
}

// FindByPlayer retorna a sala viva em que o usuário ocupa um slot.
func (r *Registry) FindByPlayer(username string) (*Room, bool) {
	r.RLock()
	defer r.RUnlock()
	id, ok := r.byPlayer[username]
	if !ok {
		return nil, false
	}
	room, ok := r.rooms[id]
	return room, ok
}

func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.rooms)
}
