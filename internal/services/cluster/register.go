package cluster

import (
	"fmt"

	consul "github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

// ServiceRegistrar registra este processo no Consul com um health check HTTP em /health.
type ServiceRegistrar struct {
	manager   *ConsulManager
	serviceID string
	reg       *consul.AgentServiceRegistration
	logger    *zap.SugaredLogger
}

func NewServiceRegistrar(manager *ConsulManager, serviceName, advertisedHost string, servicePort int, logger *zap.SugaredLogger) (*ServiceRegistrar, error) {
	if serviceName == "" || advertisedHost == "" {
		return nil, fmt.Errorf("service name and advertised host are required")
	}
	serviceID := fmt.Sprintf("%s-%s", serviceName, advertisedHost)
	return &ServiceRegistrar{
		manager:   manager,
		serviceID: serviceID,
		reg: &consul.AgentServiceRegistration{
			ID:      serviceID,
			Name:    serviceName,
			Address: advertisedHost,
			Port:    servicePort,
			Tags:    []string{"websocket", "leaderboard"},
			Check: &consul.AgentServiceCheck{
				HTTP:                           fmt.Sprintf("http://%s:%d/health", advertisedHost, servicePort),
				Timeout:                        "5s",
				Interval:                       "10s",
				DeregisterCriticalServiceAfter: "1m",
			},
		},
		logger: logger.Named("registrar"),
	}, nil
}

func (r *ServiceRegistrar) ServiceID() string {
	return r.serviceID
}

// Register é idempotente; também é usado como callback de reconexão do ConsulManager.
func (r *ServiceRegistrar) Register() {
	client := r.manager.Client()
	if client == nil {
		r.logger.Warnw("no consul client, skipping registration", "service", r.serviceID)
		return
	}
	if err := client.Agent().ServiceRegister(r.reg); err != nil {
		r.logger.Errorw("failed to register service", "service", r.serviceID, "error", err)
		return
	}
	r.logger.Infow("service registered", "service", r.serviceID, "name", r.reg.Name, "port", r.reg.Port)
}

func (r *ServiceRegistrar) Deregister() error {
	client := r.manager.Client()
	if client == nil {
		return nil
	}
	if err := client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("deregister %s: %w", r.serviceID, err)
	}
	r.logger.Infow("service deregistered", "service", r.serviceID)
	return nil
}
