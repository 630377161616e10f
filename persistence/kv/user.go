package kv

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

const (
	userPrefix     = "users:"
	usernamePrefix = "username:"

	maxConflictRetries = 3
)

type userRepository struct {
	db *badger.DB
}

func NewUserRepository(cfg conf.Persistence) (user.Repository, error) {
	opts := badger.DefaultOptions(cfg.Host + "/" + cfg.Name)
	if cfg.InMem {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	repo := new(userRepository)
	repo.db = db

	return repo, nil
}

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func usernameKey(username string) []byte {
	return []byte(usernamePrefix + username)
}

func (repo *userRepository) ValidID(id string) bool {
	return user.IsULID(id)
}

// update runs fn in a read-write transaction, retrying when badger reports a
// conflict with a concurrent writer.
func (repo *userRepository) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = repo.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}

	return user.StorageError(err)
}

func (repo *userRepository) Insert(ctx context.Context, u *user.User) error {
	id := user.NewID()

	return repo.update(func(txn *badger.Txn) error {
		_, err := txn.Get(usernameKey(u.Username))
		if err == nil {
			return user.ErrUserExists
		}

		if !errors.Is(err, badger.ErrKeyNotFound) {
			return user.StorageError(err)
		}

		u.ID = id

		return put(txn, u)
	})
}

func put(txn *badger.Txn, u *user.User) error {
	bs, err := json.Marshal(u)
	if err != nil {
		return err
	}

	if err := txn.Set(userKey(u.ID), bs); err != nil {
		return user.StorageError(err)
	}

	if err := txn.Set(usernameKey(u.Username), []byte(u.ID)); err != nil {
		return user.StorageError(err)
	}

	return nil
}

func get(txn *badger.Txn, id string) (*user.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, user.ErrUserNotFound
		}

		return nil, user.StorageError(err)
	}

	var u *user.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &u)
	}); err != nil {
		return nil, err
	}

	return u, nil
}

func (repo *userRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	var result *user.User

	err := repo.db.View(func(txn *badger.Txn) error {
		// indexed lookups
		switch {
		case filter.ID != "":
			u, err := get(txn, filter.ID)
			if err != nil {
				return err
			}

			if !filter.Match(u) {
				return user.ErrUserNotFound
			}

			result = u
			return nil

		case filter.Username != "":
			item, err := txn.Get(usernameKey(filter.Username))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return user.ErrUserNotFound
				}

				return user.StorageError(err)
			}

			id, err := item.ValueCopy(nil)
			if err != nil {
				return user.StorageError(err)
			}

			u, err := get(txn, string(id))
			if err != nil {
				return err
			}

			if !filter.Match(u) {
				return user.ErrUserNotFound
			}

			result = u
			return nil
		}

		users, err := scan(txn, filter, 1)
		if err != nil {
			return err
		}

		if len(users) == 0 {
			return user.ErrUserNotFound
		}

		result = users[0]
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (repo *userRepository) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	var users []*user.User

	err := repo.db.View(func(txn *badger.Txn) error {
		var err error
		users, err = scan(txn, filter, 0)
		return err
	})

	if err != nil {
		return nil, err
	}

	return users, nil
}

// scan walks every record in key order. A positive limit stops early.
func scan(txn *badger.Txn, filter user.Filter, limit int) ([]*user.User, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(userPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	users := make([]*user.User, 0)
	for it.Rewind(); it.Valid(); it.Next() {
		var u *user.User
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		}); err != nil {
			return nil, err
		}

		if !filter.Match(u) {
			continue
		}

		users = append(users, u)
		if limit > 0 && len(users) >= limit {
			break
		}
	}

	return users, nil
}

func (repo *userRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	var result *user.User

	err := repo.update(func(txn *badger.Txn) error {
		u, err := get(txn, id)
		if err != nil {
			return err
		}

		if username, ok := update.Set[user.FieldUsername]; ok && username != u.Username {
			_, err := txn.Get(usernameKey(username))
			if err == nil {
				return user.ErrUserExists
			}

			if !errors.Is(err, badger.ErrKeyNotFound) {
				return user.StorageError(err)
			}

			if err := txn.Delete(usernameKey(u.Username)); err != nil {
				return user.StorageError(err)
			}
		}

		u.Apply(update)

		if err := put(txn, u); err != nil {
			return err
		}

		result = u
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (repo *userRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	var result *user.User

	err := repo.update(func(txn *badger.Txn) error {
		u, err := get(txn, id)
		if err != nil {
			return err
		}

		if err := remove(txn, u); err != nil {
			return err
		}

		result = u
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func (repo *userRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	var count int64

	err := repo.update(func(txn *badger.Txn) error {
		count = 0

		users, err := scan(txn, filter, 0)
		if err != nil {
			return err
		}

		for _, u := range users {
			if err := remove(txn, u); err != nil {
				return err
			}
			count++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

func remove(txn *badger.Txn, u *user.User) error {
	if err := txn.Delete(userKey(u.ID)); err != nil {
		return user.StorageError(err)
	}

	if err := txn.Delete(usernameKey(u.Username)); err != nil {
		return user.StorageError(err)
	}

	return nil
}

func (repo *userRepository) Ping(ctx context.Context) error {
	if repo.db.IsClosed() {
		return user.StorageError(errors.New("badger closed"))
	}

	return nil
}

func (repo *userRepository) DB() *badger.DB {
	return repo.db
}

func (repo *userRepository) Close() error {
	return repo.db.Close()
}
