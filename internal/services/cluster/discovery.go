package cluster

import (
	"fmt"
	"math/rand"

	consul "github.com/hashicorp/consul/api"
)

// DiscoverAnyHealthy escolhe uma instância saudável do serviço ao acaso e retorna host:port.
// Usado pelos clientes para achar um servidor quando nenhum endereço foi informado.
func DiscoverAnyHealthy(client *consul.Client, serviceName string) (string, error) {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("query healthy %s instances: %w", serviceName, err)
	}
	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instance of %s", serviceName)
	}

	s := services[rand.Intn(len(services))]
	addr := s.Service.Address
	if addr == "" {
		addr = s.Node.Address
	}
	return fmt.Sprintf("%s:%d", addr, s.Service.Port), nil
}
