package kv

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/repotest"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

func TestUserRepositoryTestSuite(t *testing.T) {
	cfg := conf.Persistence{
		Driver: conf.BadgerDB,
		Name:   "contactbook",
		InMem:  true,
	}

	suite.Run(t, &repotest.UserRepositorySuite{
		NewRepository: func() (user.Repository, error) {
			return NewUserRepository(cfg)
		},
	})
}
