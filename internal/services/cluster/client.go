package cluster

import (
	"fmt"
	"strings"

	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// NewConsulClient tenta cada endereço da lista (separada por vírgula) até achar um agente
// que enxergue um líder.
func NewConsulClient(addrs string, logger *zap.SugaredLogger) (*consul.Client, error) {
	client, _, err := connectAny(addrs, logger)
	return client, err
}

func connectAny(addrs string, logger *zap.SugaredLogger) (*consul.Client, string, error) {
	for _, node := range strings.Split(addrs, ",") {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}
		cfg := consul.DefaultConfig()
		cfg.Address = node

		client, err := consul.NewClient(cfg)
		if err != nil {
			logger.Warnw("failed to create consul client", "node", node, "error", err)
			continue
		}
		if _, err := client.Status().Leader(); err != nil {
			logger.Warnw("consul node has no leader", "node", node, "error", err)
			continue
		}

		logger.Infow("connected to consul", "node", node)
		return client, node, nil
	}
	return nil, "", fmt.Errorf("no consul node available in %q", addrs)
}
