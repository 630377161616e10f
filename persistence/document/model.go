package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username,omitempty"`
	Password  string             `bson:"password,omitempty"`
	Name      string             `bson:"name,omitempty"`
	Email     string             `bson:"email,omitempty"`
	Address   string             `bson:"address,omitempty"`
	Phone     string             `bson:"phone,omitempty"`
	Favorite  bool               `bson:"favorite,omitempty"`
	CreatedAt time.Time          `bson:"createdAt,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt,omitempty"`
}

func newDocument(u *user.User) *userDocument {
	return &userDocument{
		Username:  u.Username,
		Password:  u.Password,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Phone:     u.Phone,
		Favorite:  u.Favorite,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d *userDocument) reconstitute() *user.User {
	return &user.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Password:  d.Password,
		Name:      d.Name,
		Email:     d.Email,
		Address:   d.Address,
		Phone:     d.Phone,
		Favorite:  d.Favorite,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
