package db

import (
	"time"

	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type User struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	Password  string
	Name      string
	Email     string
	Address   string
	Phone     string
	Favorite  bool `gorm:"index"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func NewUser(u *user.User) *User {
	return &User{
		ID:        u.ID,
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

func (u *User) reconstitute() *user.User {
	return &user.User{
		ID:        u.ID,
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
