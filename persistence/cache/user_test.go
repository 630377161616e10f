package cache

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/inmem"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/repotest"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

func testConfig() conf.Cache {
	cfg := conf.Cache{
		Host: "localhost",
		Port: 6379,
		DB:   15,
	}

	if host, ok := os.LookupEnv("REDIS_HOST"); ok {
		cfg.Host = host
	}

	return cfg
}

func TestUserRepositoryTestSuite(t *testing.T) {
	suite.Run(t, &repotest.UserRepositorySuite{
		NewRepository: func() (user.Repository, error) {
			next, _ := inmem.NewUserRepository()
			return NewUserRepository(next, testConfig())
		},
	})
}

func TestFindOneServesFromCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	next, _ := inmem.NewUserRepository()

	users, err := NewUserRepository(next, testConfig())
	if err != nil {
		t.Skip(err.Error())
	}
	defer users.Close()

	u := user.NewUser(user.Fields{
		user.FieldUsername: "alice",
		user.FieldName:     "Alice",
	})
	if !assert.NoError(users.Insert(ctx, u)) {
		return
	}

	_, err = users.FindOne(ctx, user.Filter{ID: u.ID})
	assert.NoError(err)

	// change the record behind the cache's back
	renamed := user.Update{Set: user.Fields{user.FieldName: "Alice Nguyen"}}
	_, err = next.FindOneAndUpdate(ctx, u.ID, renamed)
	assert.NoError(err)

	cached, err := users.FindOne(ctx, user.Filter{ID: u.ID})
	if assert.NoError(err) {
		assert.Equal("Alice", cached.Name)
	}

	// a write through the cache evicts the entry
	_, err = users.FindOneAndUpdate(ctx, u.ID, user.Update{Set: user.Fields{user.FieldPhone: "0909"}})
	assert.NoError(err)

	fresh, err := users.FindOne(ctx, user.Filter{ID: u.ID})
	if assert.NoError(err) {
		assert.Equal("Alice Nguyen", fresh.Name)
		assert.Equal("0909", fresh.Phone)
	}

	_, err = users.FindOneAndDelete(ctx, u.ID)
	assert.NoError(err)

	_, err = users.FindOne(ctx, user.Filter{ID: u.ID})
	assert.ErrorIs(err, user.ErrUserNotFound)
}

// slowRepository runs onFind once, after the wrapped lookup has read its row.
type slowRepository struct {
	user.Repository
	onFind func()
}

func (repo *slowRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	u, err := repo.Repository.FindOne(ctx, filter)
	if fn := repo.onFind; fn != nil {
		repo.onFind = nil
		fn()
	}

	return u, err
}

func TestFindOneSkipsStaleFill(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	inner, _ := inmem.NewUserRepository()
	next := &slowRepository{Repository: inner}

	users, err := NewUserRepository(next, testConfig())
	if err != nil {
		t.Skip(err.Error())
	}
	defer users.Close()

	u := user.NewUser(user.Fields{
		user.FieldUsername: "alice",
		user.FieldName:     "Alice",
	})
	if !assert.NoError(users.Insert(ctx, u)) {
		return
	}

	// a write lands between the miss's load and its fill
	next.onFind = func() {
		renamed := user.Update{Set: user.Fields{user.FieldName: "Alice Nguyen"}}
		_, err := users.FindOneAndUpdate(ctx, u.ID, renamed)
		assert.NoError(err)
	}

	old, err := users.FindOne(ctx, user.Filter{ID: u.ID})
	if assert.NoError(err) {
		assert.Equal("Alice", old.Name)
	}

	fresh, err := users.FindOne(ctx, user.Filter{ID: u.ID})
	if assert.NoError(err) {
		assert.Equal("Alice Nguyen", fresh.Name)
	}

	// a flush during the load blocks the fill as well
	_, err = users.FindOneAndUpdate(ctx, u.ID, user.Update{Set: user.Fields{user.FieldPhone: "0909"}})
	assert.NoError(err)

	next.onFind = func() {
		_, err := users.DeleteMany(ctx, user.Filter{})
		assert.NoError(err)
	}

	_, err = users.FindOne(ctx, user.Filter{ID: u.ID})
	assert.NoError(err)

	_, err = users.FindOne(ctx, user.Filter{ID: u.ID})
	assert.ErrorIs(err, user.ErrUserNotFound)
}
