package contactbook

import (
	"context"

	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend/events"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

// EventMiddleware announces committed writes on the event bus. A failed
// publish is logged; the write it describes has already happened.
func EventMiddleware(pub events.Publisher, log *zap.Logger) ServiceMiddleware {
	return func(next Service) Service {
		return &eventMiddleware{
			Service: next,
			pub:     pub,
			log: log.With(
				zap.String("service", "contactbook"),
				zap.String("middleware", "event"),
			),
		}
	}
}

type eventMiddleware struct {
	Service

	pub events.Publisher
	log *zap.Logger
}

func (mw *eventMiddleware) publish(e events.DomainEvent) {
	if err := mw.pub.Publish(e); err != nil {
		mw.log.Error(err.Error(),
			zap.String("event", e.EventName()),
			zap.String("topic", e.Topic()),
		)
	}
}

func (mw *eventMiddleware) Register(ctx context.Context, payload map[string]any) (*user.User, error) {
	u, err := mw.Service.Register(ctx, payload)
	if err != nil {
		return nil, err
	}

	mw.publish(user.NewUserRegisteredEvent(u))
	return u, nil
}

func (mw *eventMiddleware) Update(ctx context.Context, id string, payload map[string]any) (*user.User, error) {
	u, err := mw.Service.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	mw.publish(user.NewUserUpdatedEvent(u, user.ParseUpdate(payload)))
	return u, nil
}

func (mw *eventMiddleware) Delete(ctx context.Context, id string) (*user.User, error) {
	u, err := mw.Service.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	mw.publish(user.NewUserDeletedEvent(u))
	return u, nil
}

func (mw *eventMiddleware) DeleteAll(ctx context.Context) (int64, error) {
	count, err := mw.Service.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	mw.publish(user.NewUsersClearedEvent(count))
	return count, nil
}
