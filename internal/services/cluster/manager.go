package cluster

import (
	"context"
	"sync"
	"time"

	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

const monitorInterval = 10 * time.Second

// ConsulManager mantém uma conexão com algum nó saudável do Consul e
// avisa os interessados quando precisa trocar de nó.
type ConsulManager struct {
	addrs  string
	logger *zap.SugaredLogger

	mu          sync.RWMutex
	client      *consul.Client
	currentAddr string
	onReconnect []func()
}

func NewConsulManager(addrs string, logger *zap.SugaredLogger) (*ConsulManager, error) {
	m := &ConsulManager{addrs: addrs, logger: logger.Named("consul")}
	if err := m.reconnect(); err != nil {
		return nil, err
	}
	return m, nil
}

// OnReconnect registra um callback chamado a cada reconexão bem-sucedida.
func (m *ConsulManager) OnReconnect(cb func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnect = append(m.onReconnect, cb)
}

func (m *ConsulManager) Client() *consul.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

func (m *ConsulManager) reconnect() error {
	client, addr, err := connectAny(m.addrs, m.logger)

	m.mu.Lock()
	m.client = client
	m.currentAddr = addr
	callbacks := append([]func(){}, m.onReconnect...)
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, cb := range callbacks {
		go cb()
	}
	return nil
}

// Monitor verifica o nó atual periodicamente até o ctx ser cancelado.
func (m *ConsulManager) Monitor(ctx context.Context) error {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		client := m.Client()
		if client != nil {
			if _, err := client.Status().Leader(); err == nil {
				continue
			} else {
				m.mu.RLock()
				m.logger.Warnw("consul health check failed, trying other nodes", "node", m.currentAddr, "error", err)
				m.mu.RUnlock()
			}
		}
		if err := m.reconnect(); err != nil {
			m.logger.Warnw("consul reconnect failed", "error", err)
		}
	}
}
