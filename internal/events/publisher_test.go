package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dropfour/internal/leaderboard"
)

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishResult(context.Background(), leaderboard.GameRecord{ID: "g1"}))
	p.Close()
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	p, err := NewNATSPublisher("nats://127.0.0.1:1", "", zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "nats://127.0.0.1:1")
}
