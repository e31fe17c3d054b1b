package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// failingStore simula um backend fora do ar.
type failingStore struct {
	MemoryStore
}

func (*failingStore) Top(context.Context, int) ([]Entry, error) {
	return nil, errors.New("connection refused")
}

func serve(t *testing.T, store Store, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := CreateLeaderboardHandler(store, time.Second, zaptest.NewLogger(t).Sugar())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLeaderboardHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the sorted board", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.EnsurePlayer(ctx, "alice"))
		require.NoError(t, store.RecordWin(ctx, "bob"))

		rec := serve(t, store, "/leaderboard")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, []Entry{{Username: "bob", Wins: 1}, {Username: "alice", Wins: 0}}, got)
	})

	t.Run("respects the limit", func(t *testing.T) {
		store := NewMemoryStore()
		for _, name := range []string{"a", "b", "c"} {
			require.NoError(t, store.RecordWin(ctx, name))
		}
		rec := serve(t, store, "/leaderboard?limit=2")
		var got []Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Len(t, got, 2)
	})

	t.Run("empty board is an empty array", func(t *testing.T) {
		rec := serve(t, NewMemoryStore(), "/leaderboard")
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := serve(t, NewMemoryStore(), "/leaderboard?limit=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure is a 500 with an empty array", func(t *testing.T) {
		rec := serve(t, &failingStore{}, "/leaderboard")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestAllowOrigin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := AllowOrigin("https://game.example")(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://game.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/leaderboard", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
