package events

import (
	"encoding/json"

	"github.com/nntruong1907/CT449-contactbook-backend/pubsub"
)

type DomainEvent interface {
	EventName() string
	Topic() string
}

type Publisher interface {
	Publish(e ...DomainEvent) error
}

// NewPublisher publishes events as JSON on their own topic.
func NewPublisher(ps pubsub.PubSub) Publisher {
	return &publisher{ps}
}

type publisher struct {
	pubSub pubsub.PubSub
}

func (p *publisher) Publish(events ...DomainEvent) error {
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		if err := p.pubSub.Publish(e.Topic(), data); err != nil {
			return err
		}
	}

	return nil
}
