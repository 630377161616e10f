package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

const (
	keyPrefix     = "contactbook:users:"
	versionPrefix = "contactbook:versions:"
	epochKey      = "contactbook:epoch"
)

var errStale = errors.New("record changed while loading")

// userRepository keeps FindOne-by-id results in redis in front of another
// repository. Writes go straight through and evict what they touched.
//
// Every eviction bumps a per-id version, and every flush bumps the epoch. A
// miss only fills the cache when both are unchanged since before the load.
type userRepository struct {
	user.Repository

	log    *zap.Logger
	client *redis.Client
	ttl    time.Duration
}

func NewUserRepository(next user.Repository, cfg conf.Cache) (user.Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	repo := new(userRepository)
	repo.Repository = next
	repo.log = zap.L().With(
		zap.String("persistence", "cache"),
		zap.String("addr", cfg.Addr()),
	)
	repo.client = client
	repo.ttl = cfg.TTL

	return repo, nil
}

func key(id string) string {
	return keyPrefix + id
}

func versionKey(id string) string {
	return versionPrefix + id
}

type versionReader interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func version(ctx context.Context, r versionReader, id string) (string, error) {
	vals, err := r.MGet(ctx, versionKey(id), epochKey).Result()
	if err != nil {
		return "", err
	}

	return fmt.Sprint(vals...), nil
}

func (repo *userRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	if filter.ID == "" || filter != (user.Filter{ID: filter.ID}) {
		return repo.Repository.FindOne(ctx, filter)
	}

	if u, ok := repo.get(ctx, filter.ID); ok {
		return u, nil
	}

	seen, err := version(ctx, repo.client, filter.ID)
	if err != nil {
		repo.log.Warn(err.Error(), zap.String("action", "version"))
		return repo.Repository.FindOne(ctx, filter)
	}

	u, err := repo.Repository.FindOne(ctx, filter)
	if err != nil {
		return nil, err
	}

	repo.set(ctx, u, seen)
	return u, nil
}

func (repo *userRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	u, err := repo.Repository.FindOneAndUpdate(ctx, id, update)
	repo.evict(ctx, id)
	return u, err
}

func (repo *userRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	u, err := repo.Repository.FindOneAndDelete(ctx, id)
	repo.evict(ctx, id)
	return u, err
}

func (repo *userRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	count, err := repo.Repository.DeleteMany(ctx, filter)
	repo.flush(ctx)
	return count, err
}

func (repo *userRepository) Ping(ctx context.Context) error {
	if err := repo.client.Ping(ctx).Err(); err != nil {
		return user.StorageError(err)
	}

	return repo.Repository.Ping(ctx)
}

func (repo *userRepository) Close() error {
	return errors.Join(
		repo.client.Close(),
		repo.Repository.Close(),
	)
}

func (repo *userRepository) get(ctx context.Context, id string) (*user.User, bool) {
	bs, err := repo.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			repo.log.Warn(err.Error(), zap.String("action", "get"))
		}

		return nil, false
	}

	var u *user.User
	if err := json.Unmarshal(bs, &u); err != nil {
		repo.log.Warn(err.Error(), zap.String("action", "get"))
		return nil, false
	}

	return u, true
}

// set caches u unless its version moved away from seen.
func (repo *userRepository) set(ctx context.Context, u *user.User, seen string) {
	bs, err := json.Marshal(u)
	if err != nil {
		repo.log.Warn(err.Error(), zap.String("action", "set"))
		return
	}

	err = repo.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := version(ctx, tx, u.ID)
		if err != nil {
			return err
		}

		if current != seen {
			return errStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(u.ID), bs, repo.ttl)
			return nil
		})
		return err
	}, versionKey(u.ID), epochKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		repo.log.Debug("skip stale fill", zap.String("action", "set"), zap.String("id", u.ID))
	default:
		repo.log.Warn(err.Error(), zap.String("action", "set"))
	}
}

func (repo *userRepository) evict(ctx context.Context, id string) {
	_, err := repo.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key(id))
		pipe.Incr(ctx, versionKey(id))
		if repo.ttl > 0 {
			pipe.Expire(ctx, versionKey(id), repo.ttl)
		}
		return nil
	})
	if err != nil {
		repo.log.Error(err.Error(), zap.String("action", "evict"), zap.String("id", id))
	}
}

func (repo *userRepository) flush(ctx context.Context) {
	if err := repo.client.Incr(ctx, epochKey).Err(); err != nil {
		repo.log.Error(err.Error(), zap.String("action", "flush"))
	}

	iter := repo.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := repo.client.Del(ctx, iter.Val()).Err(); err != nil {
			repo.log.Error(err.Error(), zap.String("action", "flush"))
		}
	}

	if err := iter.Err(); err != nil {
		repo.log.Error(err.Error(), zap.String("action", "flush"))
	}
}
