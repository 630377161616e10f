package pubsub

import (
	"errors"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
)

type factory func(cfg conf.EventBus) (PubSub, error)

var factories = make(map[conf.TransportProvider]factory)

func AddFactory(provider conf.TransportProvider, factory factory) {
	factories[provider] = factory
}

func NewPubSub(cfg conf.EventBus) (PubSub, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, errors.New("provider not supported")
	}

	return factory(cfg)
}
