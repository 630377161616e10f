package persistence

import (
	"errors"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/db"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/document"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/inmem"
	"github.com/nntruong1907/CT449-contactbook-backend/persistence/kv"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

var ErrDriverNotSupported = errors.New("driver not supported")

func NewUserRepository(cfg conf.Persistence) (user.Repository, error) {
	switch cfg.Driver {
	case conf.MongoDB:
		return document.NewUserRepository(cfg)
	case conf.SQLite:
		return db.NewUserRepository(cfg)
	case conf.BadgerDB:
		return kv.NewUserRepository(cfg)
	case conf.InMem:
		return inmem.NewUserRepository()
	default:
		return nil, ErrDriverNotSupported
	}
}
