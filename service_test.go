package contactbook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/nntruong1907/CT449-contactbook-backend/persistence/inmem"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

// countingRepository records how often the data operations were reached.
type countingRepository struct {
	user.Repository
	calls int
}

func (repo *countingRepository) Insert(ctx context.Context, u *user.User) error {
	repo.calls++
	return repo.Repository.Insert(ctx, u)
}

func (repo *countingRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	repo.calls++
	return repo.Repository.FindOne(ctx, filter)
}

func (repo *countingRepository) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	repo.calls++
	return repo.Repository.Find(ctx, filter)
}

func (repo *countingRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	repo.calls++
	return repo.Repository.FindOneAndUpdate(ctx, id, update)
}

func (repo *countingRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	repo.calls++
	return repo.Repository.FindOneAndDelete(ctx, id)
}

func (repo *countingRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	repo.calls++
	return repo.Repository.DeleteMany(ctx, filter)
}

type serviceTestSuite struct {
	suite.Suite
	svc   Service
	users *countingRepository
	ctx   context.Context
}

func (suite *serviceTestSuite) SetupTest() {
	users, err := inmem.NewUserRepository()
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.users = &countingRepository{Repository: users}
	suite.svc = NewService(suite.users, user.NewBcryptHasher(bcrypt.MinCost, 2))
	suite.ctx = context.Background()
}

func (suite *serviceTestSuite) register(name, username, password string) *user.User {
	u, err := suite.svc.Register(suite.ctx, map[string]any{
		"name":     name,
		"username": username,
		"password": password,
	})
	if err != nil {
		suite.FailNow(err.Error())
	}

	return u
}

func (suite *serviceTestSuite) TestRegisterAndLogin() {
	u := suite.register("Alice", "alice", "secret")

	suite.Equal("alice", u.Username)
	suite.NotEqual("secret", u.Password)
	suite.NoError(bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secret")))

	logged, err := suite.svc.Login(suite.ctx, map[string]any{
		"username": "alice",
		"password": "secret",
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(u.ID, logged.ID)
	suite.Equal(u.Password, logged.Password)
}

func (suite *serviceTestSuite) TestRegisterDropsUnknownFields() {
	u, err := suite.svc.Register(suite.ctx, map[string]any{
		"name":     "Alice",
		"username": "alice",
		"password": "secret",
		"phone":    909123456,
		"email":    nil,
		"isAdmin":  true,
		"favorite": true,
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("909123456", u.Phone)
	suite.Empty(u.Email)
	suite.False(u.Favorite)
}

func (suite *serviceTestSuite) TestRegisterMissingFields() {
	cases := []struct {
		payload map[string]any
		err     error
	}{
		{map[string]any{"username": "alice", "password": "secret"}, user.ErrNameRequired},
		{map[string]any{"name": "Alice", "password": "secret"}, user.ErrUsernameRequired},
		{map[string]any{"name": "Alice", "username": "alice"}, user.ErrPasswordRequired},
		{map[string]any{"name": "Alice", "username": "alice", "password": ""}, user.ErrPasswordRequired},
	}

	for _, c := range cases {
		_, err := suite.svc.Register(suite.ctx, c.payload)
		suite.ErrorIs(err, c.err)
		suite.ErrorIs(err, user.ErrBadInput)
	}

	suite.Zero(suite.users.calls)
}

func (suite *serviceTestSuite) TestRegisterDuplicateUsername() {
	suite.register("Alice", "alice", "secret")

	_, err := suite.svc.Register(suite.ctx, map[string]any{
		"name":     "Another Alice",
		"username": "alice",
		"password": "other",
	})
	suite.ErrorIs(err, user.ErrUserExists)
	suite.Equal(user.KindConflict, user.KindOf(err))
}

func (suite *serviceTestSuite) TestLoginWrongPassword() {
	suite.register("Alice", "alice", "secret")

	_, err := suite.svc.Login(suite.ctx, map[string]any{
		"username": "alice",
		"password": "wrong",
	})
	suite.ErrorIs(err, user.ErrInvalidCredentials)
	suite.NotErrorIs(err, user.ErrUserNotFound)
}

func (suite *serviceTestSuite) TestLoginUnknownUsername() {
	_, err := suite.svc.Login(suite.ctx, map[string]any{
		"username": "nobody",
		"password": "secret",
	})
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *serviceTestSuite) TestLoginMissingCredentials() {
	_, err := suite.svc.Login(suite.ctx, map[string]any{"username": "alice"})
	suite.ErrorIs(err, user.ErrBadInput)
}

func (suite *serviceTestSuite) TestFindByName() {
	suite.register("Alice", "alice", "secret")
	suite.register("Bob", "bob", "secret")

	users, err := suite.svc.FindByName(suite.ctx, "ali")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("Alice", users[0].Name)
	}

	users, err = suite.svc.FindByName(suite.ctx, "a.*")
	suite.NoError(err)
	suite.Empty(users)
}

func (suite *serviceTestSuite) TestFindByAddress() {
	suite.svc.Register(suite.ctx, map[string]any{
		"name":     "Alice",
		"username": "alice",
		"password": "secret",
		"address":  "12 Ly Tu Trong, Can Tho",
	})
	suite.register("Bob", "bob", "secret")

	users, err := suite.svc.FindByAddress(suite.ctx, "CAN THO")
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("alice", users[0].Username)
	}
}

func (suite *serviceTestSuite) TestFindAll() {
	suite.register("Alice", "alice", "secret")
	suite.register("Bob", "bob", "secret")

	users, err := suite.svc.Find(suite.ctx, user.Filter{})
	suite.NoError(err)
	suite.Len(users, 2)
}

func (suite *serviceTestSuite) TestFindByID() {
	u := suite.register("Alice", "alice", "secret")

	found, err := suite.svc.FindByID(suite.ctx, u.ID)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("alice", found.Username)
}

func (suite *serviceTestSuite) TestFindByInvalidID() {
	_, err := suite.svc.FindByID(suite.ctx, "not-a-valid-id")
	suite.ErrorIs(err, user.ErrUserNotFound)
	suite.Zero(suite.users.calls)
}

func (suite *serviceTestSuite) TestFindFavorite() {
	alice := suite.register("Alice", "alice", "secret")
	suite.register("Bob", "bob", "secret")

	_, err := suite.svc.Update(suite.ctx, alice.ID, map[string]any{"favorite": true})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	users, err := suite.svc.FindFavorite(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("alice", users[0].Username)
	}
}

func (suite *serviceTestSuite) TestUpdate() {
	u := suite.register("Alice", "alice", "secret")

	updated, err := suite.svc.Update(suite.ctx, u.ID, map[string]any{
		"email":   "alice@example.com",
		"unknown": "dropped",
	})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("alice@example.com", updated.Email)
	suite.Equal("Alice", updated.Name)
	suite.Equal(u.Password, updated.Password)
	suite.False(updated.UpdatedAt.Before(u.UpdatedAt))
}

func (suite *serviceTestSuite) TestUpdateRehashesPassword() {
	u := suite.register("Alice", "alice", "secret")

	updated, err := suite.svc.Update(suite.ctx, u.ID, map[string]any{"password": "changed"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.NotEqual("changed", updated.Password)

	_, err = suite.svc.Login(suite.ctx, map[string]any{"username": "alice", "password": "changed"})
	suite.NoError(err)

	_, err = suite.svc.Login(suite.ctx, map[string]any{"username": "alice", "password": "secret"})
	suite.ErrorIs(err, user.ErrInvalidCredentials)
}

func (suite *serviceTestSuite) TestPasswordTooLong() {
	long := strings.Repeat("x", 73)

	_, err := suite.svc.Register(suite.ctx, map[string]any{
		"name":     "Alice",
		"username": "alice",
		"password": long,
	})
	suite.ErrorIs(err, user.ErrPasswordTooLong)
	suite.Equal(user.KindBadInput, user.KindOf(err))

	u := suite.register("Alice", "alice", "secret")

	_, err = suite.svc.Update(suite.ctx, u.ID, map[string]any{"password": long})
	suite.ErrorIs(err, user.ErrBadInput)

	_, err = suite.svc.Login(suite.ctx, map[string]any{"username": "alice", "password": "secret"})
	suite.NoError(err)
}

func (suite *serviceTestSuite) TestUpdateEmptyPayload() {
	u := suite.register("Alice", "alice", "secret")
	calls := suite.users.calls

	_, err := suite.svc.Update(suite.ctx, u.ID, map[string]any{})
	suite.ErrorIs(err, user.ErrEmptyUpdate)
	suite.ErrorIs(err, user.ErrBadInput)

	_, err = suite.svc.Update(suite.ctx, u.ID, map[string]any{"isAdmin": true})
	suite.ErrorIs(err, user.ErrBadInput)

	suite.Equal(calls, suite.users.calls)
}

func (suite *serviceTestSuite) TestUpdateInvalidID() {
	_, err := suite.svc.Update(suite.ctx, "not-a-valid-id", map[string]any{"name": "X"})
	suite.ErrorIs(err, user.ErrUserNotFound)
	suite.Zero(suite.users.calls)
}

func (suite *serviceTestSuite) TestUpdateMissing() {
	_, err := suite.svc.Update(suite.ctx, user.NewID(), map[string]any{"name": "X"})
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *serviceTestSuite) TestUpdateUsernameTaken() {
	suite.register("Alice", "alice", "secret")
	bob := suite.register("Bob", "bob", "secret")

	_, err := suite.svc.Update(suite.ctx, bob.ID, map[string]any{"username": "alice"})
	suite.ErrorIs(err, user.ErrUserExists)
}

func (suite *serviceTestSuite) TestDelete() {
	u := suite.register("Alice", "alice", "secret")

	removed, err := suite.svc.Delete(suite.ctx, u.ID)
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.Equal(u.ID, removed.ID)

	_, err = suite.svc.Delete(suite.ctx, u.ID)
	suite.ErrorIs(err, user.ErrUserNotFound)

	_, err = suite.svc.Delete(suite.ctx, "not-a-valid-id")
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *serviceTestSuite) TestDeleteAll() {
	suite.register("Alice", "alice", "secret")
	suite.register("Bob", "bob", "secret")
	suite.register("Carol", "carol", "secret")

	count, err := suite.svc.DeleteAll(suite.ctx)
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.Equal(int64(3), count)

	users, err := suite.svc.Find(suite.ctx, user.Filter{})
	suite.NoError(err)
	suite.Empty(users)
}

func (suite *serviceTestSuite) TestCheckHealth() {
	suite.NoError(suite.svc.CheckHealth(suite.ctx))
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(serviceTestSuite))
}

// unavailableRepository fails every data operation the way a dead store would.
type unavailableRepository struct{}

var errConnRefused = errors.New("connection refused")

func (unavailableRepository) ValidID(id string) bool { return user.IsULID(id) }

func (unavailableRepository) Insert(ctx context.Context, u *user.User) error {
	return user.StorageError(errConnRefused)
}

func (unavailableRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	return nil, user.StorageError(errConnRefused)
}

func (unavailableRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	return nil, user.StorageError(errConnRefused)
}

func (unavailableRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	return 0, user.StorageError(errConnRefused)
}

func (unavailableRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	return nil, user.StorageError(errConnRefused)
}

func (unavailableRepository) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	return nil, user.StorageError(errConnRefused)
}

func (unavailableRepository) Ping(ctx context.Context) error {
	return user.StorageError(errConnRefused)
}

func (unavailableRepository) Close() error { return nil }

func TestStorageFailureIsNeverNotFound(t *testing.T) {
	assert := assert.New(t)

	svc := NewService(unavailableRepository{}, user.NewBcryptHasher(bcrypt.MinCost, 1))
	ctx := context.Background()
	id := user.NewID()

	check := func(err error) {
		assert.ErrorIs(err, user.ErrStorageUnavailable)
		assert.NotErrorIs(err, user.ErrUserNotFound)
		assert.Equal(user.KindStorage, user.KindOf(err))
	}

	_, err := svc.Register(ctx, map[string]any{"name": "Alice", "username": "alice", "password": "secret"})
	check(err)

	_, err = svc.Login(ctx, map[string]any{"username": "alice", "password": "secret"})
	check(err)

	_, err = svc.FindByID(ctx, id)
	check(err)

	_, err = svc.FindByName(ctx, "ali")
	check(err)

	_, err = svc.Update(ctx, id, map[string]any{"name": "X"})
	check(err)

	_, err = svc.Delete(ctx, id)
	check(err)

	_, err = svc.DeleteAll(ctx)
	check(err)

	check(svc.CheckHealth(ctx))
}
