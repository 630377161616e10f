package inmem

import (
	"context"
	"sync"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type userRepository struct {
	users     map[string]*user.User // map[ID]*user.User
	usernames map[string]string     // map[Username]ID
	order     []string
	sync.RWMutex
}

func NewUserRepository() (user.Repository, error) {
	repo := new(userRepository)
	repo.users = make(map[string]*user.User)
	repo.usernames = make(map[string]string)
	repo.order = make([]string, 0)
	return repo, nil
}

func (repo *userRepository) ValidID(id string) bool {
	return user.IsULID(id)
}

func (repo *userRepository) Insert(ctx context.Context, u *user.User) error {
	repo.Lock()
	defer repo.Unlock()

	if _, ok := repo.usernames[u.Username]; ok {
		return user.ErrUserExists
	}

	u.ID = user.NewID()

	stored := new(user.User)
	*stored = *u

	repo.users[u.ID] = stored
	repo.usernames[u.Username] = u.ID
	repo.order = append(repo.order, u.ID)

	return nil
}

func (repo *userRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	repo.RLock()
	defer repo.RUnlock()

	users := repo.scan(filter)
	if len(users) == 0 {
		return nil, user.ErrUserNotFound
	}

	return users[0], nil
}

func (repo *userRepository) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	repo.RLock()
	defer repo.RUnlock()

	return repo.scan(filter), nil
}

// scan returns copies of matching records in insertion order.
func (repo *userRepository) scan(filter user.Filter) []*user.User {
	if filter.ID != "" {
		u, ok := repo.users[filter.ID]
		if !ok || !filter.Match(u) {
			return []*user.User{}
		}

		return []*user.User{clone(u)}
	}

	result := make([]*user.User, 0)
	for _, id := range repo.order {
		u := repo.users[id]
		if filter.Match(u) {
			result = append(result, clone(u))
		}
	}

	return result
}

func (repo *userRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	repo.Lock()
	defer repo.Unlock()

	u, ok := repo.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}

	if username, ok := update.Set[user.FieldUsername]; ok && username != u.Username {
		if _, taken := repo.usernames[username]; taken {
			return nil, user.ErrUserExists
		}

		delete(repo.usernames, u.Username)
		repo.usernames[username] = id
	}

	u.Apply(update)
	return clone(u), nil
}

func (repo *userRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	repo.Lock()
	defer repo.Unlock()

	u, ok := repo.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}

	repo.remove(u)
	return u, nil
}

func (repo *userRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	repo.Lock()
	defer repo.Unlock()

	var count int64
	for _, u := range repo.scan(filter) {
		repo.remove(repo.users[u.ID])
		count++
	}

	return count, nil
}

func (repo *userRepository) remove(u *user.User) {
	delete(repo.users, u.ID)
	delete(repo.usernames, u.Username)

	for i, id := range repo.order {
		if id == u.ID {
			repo.order = append(repo.order[:i], repo.order[i+1:]...)
			break
		}
	}
}

func (repo *userRepository) Ping(ctx context.Context) error {
	return nil
}

func (repo *userRepository) Close() error {
	return nil
}

func clone(u *user.User) *user.User {
	out := new(user.User)
	*out = *u
	return out
}
