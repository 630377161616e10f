// Package repotest holds the behaviour every user.Repository engine must
// share. Engine packages run it from their own tests.
package repotest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type UserRepositorySuite struct {
	suite.Suite
	NewRepository func() (user.Repository, error)

	users user.Repository
	alice *user.User
	bob   *user.User
}

func (suite *UserRepositorySuite) SetupTest() {
	users, err := suite.NewRepository()
	if err != nil {
		suite.T().Skip(err.Error())
		return
	}

	ctx := context.Background()
	if _, err := users.DeleteMany(ctx, user.Filter{}); err != nil {
		suite.Fail(err.Error())
		return
	}

	alice := user.NewUser(user.Fields{
		user.FieldUsername: "alice",
		user.FieldPassword: "$2a$10$hash",
		user.FieldName:     "Alice Nguyen",
		user.FieldAddress:  "12 Ly Tu Trong, Can Tho",
	})

	bob := user.NewUser(user.Fields{
		user.FieldUsername: "bob",
		user.FieldPassword: "$2a$10$hash",
		user.FieldName:     "Bob (a.k.a. B*)",
		user.FieldAddress:  "3/2 Street, Ninh Kieu",
	})
	bob.Favorite = true

	for _, u := range []*user.User{alice, bob} {
		if err := users.Insert(ctx, u); err != nil {
			suite.Fail(err.Error())
			return
		}
	}

	suite.users = users
	suite.alice = alice
	suite.bob = bob
}

func (suite *UserRepositorySuite) TearDownTest() {
	if suite.users != nil {
		suite.users.Close()
	}
}

func (suite *UserRepositorySuite) TestInsertAssignsValidID() {
	suite.NotEmpty(suite.alice.ID)
	suite.True(suite.users.ValidID(suite.alice.ID))
	suite.NotEqual(suite.alice.ID, suite.bob.ID)
}

func (suite *UserRepositorySuite) TestInsertDuplicateUsername() {
	dup := user.NewUser(user.Fields{
		user.FieldUsername: "alice",
		user.FieldName:     "Another Alice",
	})

	err := suite.users.Insert(context.Background(), dup)
	suite.ErrorIs(err, user.ErrUserExists)
}

func (suite *UserRepositorySuite) TestConcurrentInsertSameUsername() {
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			u := user.NewUser(user.Fields{
				user.FieldUsername: "carol",
				user.FieldName:     "Carol",
			})

			err := suite.users.Insert(ctx, u)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case user.KindOf(err) == user.KindConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, succeeded)
	suite.Equal(7, conflicts)
}

func (suite *UserRepositorySuite) TestFindOneByUsername() {
	u, err := suite.users.FindOne(context.Background(), user.Filter{Username: "alice"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal(suite.alice.ID, u.ID)
	suite.Equal("Alice Nguyen", u.Name)
	suite.Equal("$2a$10$hash", u.Password)
}

func (suite *UserRepositorySuite) TestFindOneByID() {
	u, err := suite.users.FindOne(context.Background(), user.Filter{ID: suite.bob.ID})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("bob", u.Username)
	suite.True(u.Favorite)
}

func (suite *UserRepositorySuite) TestFindOneNotFound() {
	_, err := suite.users.FindOne(context.Background(), user.Filter{Username: "nobody"})
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *UserRepositorySuite) TestFindAll() {
	users, err := suite.users.Find(context.Background(), user.Filter{})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Len(users, 2)
}

func (suite *UserRepositorySuite) TestFindByNameSubstringIgnoresCase() {
	users, err := suite.users.Find(context.Background(), user.Filter{Name: "ALI"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("alice", users[0].Username)
	}
}

func (suite *UserRepositorySuite) TestFindByNameMatchesMetacharactersLiterally() {
	ctx := context.Background()

	users, err := suite.users.Find(ctx, user.Filter{Name: "(a.k.a. b*)"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("bob", users[0].Username)
	}

	users, err = suite.users.Find(ctx, user.Filter{Name: ".*"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Empty(users)
}

func (suite *UserRepositorySuite) TestFindByAddress() {
	users, err := suite.users.Find(context.Background(), user.Filter{Address: "ninh kieu"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("bob", users[0].Username)
	}
}

func (suite *UserRepositorySuite) TestFindFavorite() {
	users, err := suite.users.Find(context.Background(), user.FavoriteFilter())
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	if suite.Len(users, 1) {
		suite.Equal("bob", users[0].Username)
	}
}

func (suite *UserRepositorySuite) TestFindOneAndUpdate() {
	favorite := true
	update := user.Update{
		Set: user.Fields{
			user.FieldEmail: "alice@example.com",
			user.FieldPhone: "0909123456",
		},
		Favorite: &favorite,
		Time:     suite.alice.UpdatedAt.Add(1),
	}

	u, err := suite.users.FindOneAndUpdate(context.Background(), suite.alice.ID, update)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("alice@example.com", u.Email)
	suite.Equal("0909123456", u.Phone)
	suite.Equal("Alice Nguyen", u.Name)
	suite.True(u.Favorite)

	stored, err := suite.users.FindOne(context.Background(), user.Filter{ID: suite.alice.ID})
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	suite.Equal("alice@example.com", stored.Email)
}

func (suite *UserRepositorySuite) TestFindOneAndUpdateUsername() {
	ctx := context.Background()

	update := user.Update{Set: user.Fields{user.FieldUsername: "bob"}}
	_, err := suite.users.FindOneAndUpdate(ctx, suite.alice.ID, update)
	suite.ErrorIs(err, user.ErrUserExists)

	update = user.Update{Set: user.Fields{user.FieldUsername: "alice2"}}
	_, err = suite.users.FindOneAndUpdate(ctx, suite.alice.ID, update)
	if err != nil {
		suite.Fail(err.Error())
		return
	}

	u, err := suite.users.FindOne(ctx, user.Filter{Username: "alice2"})
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.Equal(suite.alice.ID, u.ID)

	_, err = suite.users.FindOne(ctx, user.Filter{Username: "alice"})
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *UserRepositorySuite) TestFindOneAndUpdateMissing() {
	missing := suite.alice.ID
	suite.users.FindOneAndDelete(context.Background(), missing)

	update := user.Update{Set: user.Fields{user.FieldName: "X"}}
	_, err := suite.users.FindOneAndUpdate(context.Background(), missing, update)
	suite.ErrorIs(err, user.ErrUserNotFound)
}

func (suite *UserRepositorySuite) TestFindOneAndDelete() {
	ctx := context.Background()

	u, err := suite.users.FindOneAndDelete(ctx, suite.bob.ID)
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.Equal("bob", u.Username)

	_, err = suite.users.FindOneAndDelete(ctx, suite.bob.ID)
	suite.ErrorIs(err, user.ErrUserNotFound)

	// the username is free again
	again := user.NewUser(user.Fields{user.FieldUsername: "bob", user.FieldName: "Bob"})
	suite.NoError(suite.users.Insert(ctx, again))
}

func (suite *UserRepositorySuite) TestDeleteMany() {
	ctx := context.Background()

	count, err := suite.users.DeleteMany(ctx, user.Filter{})
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.Equal(int64(2), count)

	users, err := suite.users.Find(ctx, user.Filter{})
	if err != nil {
		suite.Fail(err.Error())
		return
	}
	suite.Empty(users)
}

func (suite *UserRepositorySuite) TestPing() {
	suite.NoError(suite.users.Ping(context.Background()))
}
