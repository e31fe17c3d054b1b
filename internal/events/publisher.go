package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"dropfour/internal/leaderboard"
)

const DefaultSubject = "dropfour.games.finished"

// Publisher anuncia o resultado de partidas encerradas para outros serviços.
type Publisher interface {
	PublishResult(ctx context.Context, rec leaderboard.GameRecord) error
	Close()
}

// NopPublisher é usado quando nenhum broker está configurado.
type NopPublisher struct{}

func (NopPublisher) PublishResult(context.Context, leaderboard.GameRecord) error { return nil }
func (NopPublisher) Close()                                                      {}

// NATSPublisher publica cada GameRecord como JSON num subject do NATS.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.SugaredLogger
}

func NewNATSPublisher(url, subject string, logger *zap.SugaredLogger) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("dropfour-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnw("disconnected from nats", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infow("reconnected to nats", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// PublishResult publica e faz flush, para que o erro de entrega apareça dentro do prazo do ctx.
func (p *NATSPublisher) PublishResult(ctx context.Context, rec leaderboard.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish game %s: %w", rec.ID, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush game %s: %w", rec.ID, err)
	}
	return nil
}

// Ping usado pelo health check.
func (p *NATSPublisher) Ping(context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats connection status: %s", p.conn.Status())
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warnw("failed to drain nats connection", "error", err)
		p.conn.Close()
	}
}
