package contactbook

import (
	"context"
	"errors"
	"time"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type Service interface {
	Register(ctx context.Context, payload map[string]any) (*user.User, error)
	Login(ctx context.Context, credentials map[string]any) (*user.User, error)

	Find(ctx context.Context, filter user.Filter) ([]*user.User, error)
	FindByName(ctx context.Context, name string) ([]*user.User, error)
	FindByAddress(ctx context.Context, address string) ([]*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindFavorite(ctx context.Context) ([]*user.User, error)

	Update(ctx context.Context, id string, payload map[string]any) (*user.User, error)
	Delete(ctx context.Context, id string) (*user.User, error)
	DeleteAll(ctx context.Context) (int64, error)

	CheckHealth(ctx context.Context) error
}

type ServiceMiddleware func(Service) Service

type service struct {
	users  user.Repository
	hasher user.Hasher
}

func NewService(users user.Repository, hasher user.Hasher) Service {
	svc := new(service)
	svc.users = users
	svc.hasher = hasher
	return svc
}

func (svc *service) Register(ctx context.Context, payload map[string]any) (*user.User, error) {
	fields := user.Sanitize(payload)

	switch {
	case fields[user.FieldName] == "":
		return nil, user.ErrNameRequired
	case fields[user.FieldUsername] == "":
		return nil, user.ErrUsernameRequired
	case fields[user.FieldPassword] == "":
		return nil, user.ErrPasswordRequired
	}

	_, err := svc.users.FindOne(ctx, user.Filter{Username: fields[user.FieldUsername]})
	if err == nil {
		return nil, user.ErrUserExists
	}

	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	hash, err := svc.hasher.Hash(ctx, fields[user.FieldPassword])
	if err != nil {
		return nil, err
	}
	fields[user.FieldPassword] = hash

	u := user.NewUser(fields)

	// a concurrent registration may still win; the store reports it as ErrUserExists
	if err := svc.users.Insert(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (svc *service) Login(ctx context.Context, credentials map[string]any) (*user.User, error) {
	fields := user.Sanitize(credentials)

	username := fields[user.FieldUsername]
	if username == "" {
		return nil, user.ErrUsernameRequired
	}

	password := fields[user.FieldPassword]
	if password == "" {
		return nil, user.ErrPasswordRequired
	}

	u, err := svc.users.FindOne(ctx, user.Filter{Username: username})
	if err != nil {
		return nil, err
	}

	if err := svc.hasher.Compare(ctx, u.Password, password); err != nil {
		return nil, err
	}

	return u, nil
}

func (svc *service) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	return svc.users.Find(ctx, filter)
}

func (svc *service) FindByName(ctx context.Context, name string) ([]*user.User, error) {
	return svc.users.Find(ctx, user.Filter{Name: name})
}

func (svc *service) FindByAddress(ctx context.Context, address string) ([]*user.User, error) {
	return svc.users.Find(ctx, user.Filter{Address: address})
}

func (svc *service) FindByID(ctx context.Context, id string) (*user.User, error) {
	if !svc.users.ValidID(id) {
		return nil, user.ErrUserNotFound
	}

	return svc.users.FindOne(ctx, user.Filter{ID: id})
}

func (svc *service) FindFavorite(ctx context.Context) ([]*user.User, error) {
	return svc.users.Find(ctx, user.FavoriteFilter())
}

func (svc *service) Update(ctx context.Context, id string, payload map[string]any) (*user.User, error) {
	update := user.ParseUpdate(payload)
	if update.IsEmpty() {
		return nil, user.ErrEmptyUpdate
	}

	if !svc.users.ValidID(id) {
		return nil, user.ErrUserNotFound
	}

	if update.Set.Has(user.FieldUsername) && update.Set[user.FieldUsername] == "" {
		return nil, user.ErrUsernameRequired
	}

	if password, ok := update.Set[user.FieldPassword]; ok {
		if password == "" {
			return nil, user.ErrPasswordRequired
		}

		hash, err := svc.hasher.Hash(ctx, password)
		if err != nil {
			return nil, err
		}

		update.Set[user.FieldPassword] = hash
	}

	update.Time = time.Now()

	return svc.users.FindOneAndUpdate(ctx, id, update)
}

func (svc *service) Delete(ctx context.Context, id string) (*user.User, error) {
	if !svc.users.ValidID(id) {
		return nil, user.ErrUserNotFound
	}

	return svc.users.FindOneAndDelete(ctx, id)
}

func (svc *service) DeleteAll(ctx context.Context) (int64, error) {
	return svc.users.DeleteMany(ctx, user.Filter{})
}

func (svc *service) CheckHealth(ctx context.Context) error {
	return svc.users.Ping(ctx)
}
