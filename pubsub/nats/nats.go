package nats

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/pubsub"
)

func init() {
	pubsub.AddFactory(conf.NATS, NewPubSub)
}

// NewPubSub connects to cfg.URL. When a users stream is configured, events
// are published through JetStream so they survive subscriber downtime;
// otherwise core NATS is used.
func NewPubSub(cfg conf.EventBus) (pubsub.PubSub, error) {
	log := zap.L().With(
		zap.String("pubsub", "nats"),
	)

	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	ps := &pubSub{
		log:           log,
		nc:            nc,
		subscriptions: make(map[string]*nats.Subscription),
	}

	if stream := cfg.Users.Stream; stream.Name != "" {
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, err
		}

		ps.js = js

		if err := ps.addStream(stream.Name, stream.Config); err != nil {
			nc.Close()
			return nil, err
		}
	}

	return ps, nil
}

type pubSub struct {
	log           *zap.Logger
	nc            *nats.Conn
	js            nats.JetStreamContext
	subscriptions map[string]*nats.Subscription // map[topic]*nats.Subscription
	sync.Mutex
}

func (ps *pubSub) addStream(name string, raw json.RawMessage) error {
	cfg := new(nats.StreamConfig)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return err
		}
	}
	cfg.Name = name

	_, err := ps.js.StreamInfo(name)
	if err == nil {
		_, err = ps.js.UpdateStream(cfg)
		return err
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}

	_, err = ps.js.AddStream(cfg)
	return err
}

func (ps *pubSub) Publish(topic string, data []byte) error {
	if ps.js != nil {
		_, err := ps.js.Publish(topic, data)
		return err
	}

	return ps.nc.Publish(topic, data)
}

// Subscribe registers a core NATS subscription. Messages carrying a reply
// subject get a Response func that answers the requester.
func (ps *pubSub) Subscribe(topic string, callback pubsub.MessageHandler) error {
	sub, err := ps.nc.Subscribe(topic, func(m *nats.Msg) {
		msg := &pubsub.Message{
			Topic: m.Subject,
			Data:  m.Data,
		}

		if m.Reply != "" {
			msg.Response = m.Respond
		}

		if err := callback(context.Background(), msg); err != nil {
			ps.log.Error(err.Error(),
				zap.String("topic", m.Subject),
			)
		}
	})

	if err != nil {
		return err
	}

	ps.Lock()
	if old, ok := ps.subscriptions[topic]; ok {
		old.Unsubscribe()
	}
	ps.subscriptions[topic] = sub
	ps.Unlock()
	return nil
}

func (ps *pubSub) Close() error {
	ps.Lock()
	for _, sub := range ps.subscriptions {
		sub.Unsubscribe()
	}
	ps.subscriptions = make(map[string]*nats.Subscription)
	ps.Unlock()

	return ps.nc.Drain()
}
