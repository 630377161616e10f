package main

import (
	"strconv"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
)

func registration(cfg *conf.Config) *api.AgentServiceRegistration {
	instance := cfg.Transports.HTTP.Advertised()

	reg := &api.AgentServiceRegistration{
		ID:      cfg.Name + "-" + instance.Host + "-" + strconv.Itoa(instance.Port),
		Name:    cfg.Name,
		Tags:    cfg.Registry.Tags,
		Address: instance.Host,
		Port:    instance.Port,
	}

	if cfg.BaseURL != "" {
		reg.Meta = map[string]string{"base_url": cfg.BaseURL}
	}

	if instance.Health.Enabled {
		path := instance.Health.Path
		if path == "" {
			path = "/health"
		}

		reg.Check = &api.AgentServiceCheck{
			HTTP:                           instance.URL() + path,
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}

	return reg
}

// register announces the HTTP instance to consul. The returned func removes
// it again.
func register(cfg *conf.Config, log *zap.Logger) (func(), error) {
	consulCfg := api.DefaultConfig()
	if cfg.Registry.Address != "" {
		consulCfg.Address = cfg.Registry.Address
	}

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, err
	}

	reg := registration(cfg)
	if err := client.Agent().ServiceRegister(reg); err != nil {
		return nil, err
	}

	log = log.With(
		zap.String("registry", "consul"),
		zap.String("service_id", reg.ID),
	)
	log.Info("service registered")

	return func() {
		if err := client.Agent().ServiceDeregister(reg.ID); err != nil {
			log.Error(err.Error())
			return
		}

		log.Info("service deregistered")
	}, nil
}
