package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

func TestNewUserRepository(t *testing.T) {
	assert := assert.New(t)

	cases := []conf.Persistence{
		{Driver: conf.InMem},
		{Driver: conf.BadgerDB, Name: "contactbook", InMem: true},
		{Driver: conf.SQLite, Name: "factory_" + user.NewID(), InMem: true},
	}

	for _, cfg := range cases {
		users, err := NewUserRepository(cfg)
		if !assert.NoError(err, cfg.Driver.String()) {
			continue
		}

		assert.NoError(users.Ping(context.Background()), cfg.Driver.String())
		assert.NoError(users.Close(), cfg.Driver.String())
	}
}

func TestNewUserRepositoryUnknownDriver(t *testing.T) {
	_, err := NewUserRepository(conf.Persistence{Driver: conf.PersistenceDriver(-1)})
	assert.ErrorIs(t, err, ErrDriverNotSupported)
}
