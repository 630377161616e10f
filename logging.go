package contactbook

import (
	"context"

	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			log.With(
				zap.String("service", "contactbook"),
				zap.String("middleware", "logging"),
			),
			next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

// failed logs caller mistakes at info and everything else at error.
func failed(log *zap.Logger, err error) {
	kind := user.KindOf(err)
	switch kind {
	case user.KindStorage, user.KindInternal:
		log.Error(err.Error(), zap.String("kind", string(kind)))
	default:
		log.Info(err.Error(), zap.String("kind", string(kind)))
	}
}

func (mw *loggingMiddleware) Register(ctx context.Context, payload map[string]any) (*user.User, error) {
	log := mw.log.With(
		zap.String("action", "register"),
	)

	u, err := mw.next.Register(ctx, payload)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("username", u.Username),
	)
	return u, nil
}

func (mw *loggingMiddleware) Login(ctx context.Context, credentials map[string]any) (*user.User, error) {
	log := mw.log.With(
		zap.String("action", "login"),
	)

	if username, ok := credentials["username"].(string); ok {
		log = log.With(zap.String("username", username))
	}

	u, err := mw.next.Login(ctx, credentials)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("user logged in", zap.String("user_id", u.ID))
	return u, nil
}

func (mw *loggingMiddleware) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	log := mw.log.With(
		zap.String("action", "find"),
	)

	users, err := mw.next.Find(ctx, filter)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("users found", zap.Int("count", len(users)))
	return users, nil
}

func (mw *loggingMiddleware) FindByName(ctx context.Context, name string) ([]*user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_by_name"),
		zap.String("name", name),
	)

	users, err := mw.next.FindByName(ctx, name)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("users found", zap.Int("count", len(users)))
	return users, nil
}

func (mw *loggingMiddleware) FindByAddress(ctx context.Context, address string) ([]*user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_by_address"),
		zap.String("address", address),
	)

	users, err := mw.next.FindByAddress(ctx, address)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("users found", zap.Int("count", len(users)))
	return users, nil
}

func (mw *loggingMiddleware) FindByID(ctx context.Context, id string) (*user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_by_id"),
		zap.String("user_id", id),
	)

	u, err := mw.next.FindByID(ctx, id)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("user found", zap.String("username", u.Username))
	return u, nil
}

func (mw *loggingMiddleware) FindFavorite(ctx context.Context) ([]*user.User, error) {
	log := mw.log.With(
		zap.String("action", "find_favorite"),
	)

	users, err := mw.next.FindFavorite(ctx)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("users found", zap.Int("count", len(users)))
	return users, nil
}

func (mw *loggingMiddleware) Update(ctx context.Context, id string, payload map[string]any) (*user.User, error) {
	log := mw.log.With(
		zap.String("action", "update"),
		zap.String("user_id", id),
	)

	u, err := mw.next.Update(ctx, id, payload)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("user updated", zap.String("username", u.Username))
	return u, nil
}

func (mw *loggingMiddleware) Delete(ctx context.Context, id string) (*user.User, error) {
	log := mw.log.With(
		zap.String("action", "delete"),
		zap.String("user_id", id),
	)

	u, err := mw.next.Delete(ctx, id)
	if err != nil {
		failed(log, err)
		return nil, err
	}

	log.Info("user deleted", zap.String("username", u.Username))
	return u, nil
}

func (mw *loggingMiddleware) DeleteAll(ctx context.Context) (int64, error) {
	log := mw.log.With(
		zap.String("action", "delete_all"),
	)

	count, err := mw.next.DeleteAll(ctx)
	if err != nil {
		failed(log, err)
		return 0, err
	}

	log.Info("users deleted", zap.Int64("count", count))
	return count, nil
}

func (mw *loggingMiddleware) CheckHealth(ctx context.Context) error {
	err := mw.next.CheckHealth(ctx)
	if err != nil {
		mw.log.Error(err.Error(), zap.String("action", "check_health"))
	}

	return err
}
