package user

import "context"

type Repository interface {
	// ValidID reports whether id has the engine's identifier format.
	ValidID(id string) bool

	// Command
	Insert(ctx context.Context, u *User) error
	FindOneAndUpdate(ctx context.Context, id string, update Update) (*User, error)
	FindOneAndDelete(ctx context.Context, id string) (*User, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)

	// Query
	FindOne(ctx context.Context, filter Filter) (*User, error)
	Find(ctx context.Context, filter Filter) ([]*User, error)

	Ping(ctx context.Context) error
	Close() error
}
