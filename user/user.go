package user

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a fresh ULID token for engines that assign their own ids.
func NewID() string {
	return ulid.Make().String()
}

// IsULID reports whether id is a canonical 26-character ULID.
func IsULID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"password,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser builds an unsaved record from sanitized fields. The password
// field must already hold a hash.
func NewUser(fields Fields) *User {
	now := time.Now()

	u := &User{
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.apply(fields)

	return u
}

func (u *User) apply(fields Fields) {
	for field, value := range fields {
		switch field {
		case FieldUsername:
			u.Username = value
		case FieldPassword:
			u.Password = value
		case FieldName:
			u.Name = value
		case FieldEmail:
			u.Email = value
		case FieldAddress:
			u.Address = value
		case FieldPhone:
			u.Phone = value
		}
	}
}

// Apply performs the partial replacement described by update in place.
func (u *User) Apply(update Update) {
	u.apply(update.Set)

	if update.Favorite != nil {
		u.Favorite = *update.Favorite
	}

	u.UpdatedAt = update.Time
}

// Public returns a copy without the password hash, safe to hand to clients.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}

	out := new(User)
	*out = *u
	out.Password = ""

	return out
}

// PublicAll strips the password hash from every record.
func PublicAll(users []*User) []*User {
	out := make([]*User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}
