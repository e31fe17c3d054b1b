package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore guarda o placar em memória. Usado em desenvolvimento e nos testes.
type MemoryStore struct {
	mu    sync.Mutex
	wins  map[string]int64
	games []GameRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{wins: make(map[string]int64)}
}

func (s *MemoryStore) EnsurePlayer(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wins[username]; !ok {
		s.wins[username] = 0
	}
	return nil
}

func (s *MemoryStore) RecordWin(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wins[username]++
	return nil
}

func (s *MemoryStore) Top(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.wins))
	for name, wins := range s.wins {
		entries = append(entries, Entry{Username: name, Wins: wins})
	}
	s.mu.Unlock()

	sortEntries(entries)
	if limit = clampLimit(limit); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *MemoryStore) SaveGame(_ context.Context, rec GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, rec)
	return nil
}

// Games retorna uma cópia das partidas gravadas.
func (s *MemoryStore) Games() []GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GameRecord, len(s.games))
	copy(out, s.games)
	return out
}

// Wins retorna as vitórias de um jogador e se ele existe no placar.
func (s *MemoryStore) Wins(username string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wins[username]
	return w, ok
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Username < entries[j].Username
	})
}
