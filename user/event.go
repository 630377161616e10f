package user

import (
	"strings"
	"time"

	"github.com/nntruong1907/CT449-contactbook-backend/events"
)

type EventName int

const (
	Unknown EventName = iota
	UserRegistered
	UserUpdated
	UserDeleted
	UsersCleared
)

func ParseEventName(s string) EventName {
	switch s {
	case "user_registered":
		return UserRegistered
	case "user_updated":
		return UserUpdated
	case "user_deleted":
		return UserDeleted
	case "users_cleared":
		return UsersCleared
	default:
		return Unknown
	}
}

func (name EventName) String() string {
	switch name {
	case UserRegistered:
		return "user_registered"
	case UserUpdated:
		return "user_updated"
	case UserDeleted:
		return "user_deleted"
	case UsersCleared:
		return "users_cleared"
	default:
		return ""
	}
}

func (name EventName) MarshalJSON() ([]byte, error) {
	return []byte(`"` + name.String() + `"`), nil
}

type Event struct {
	Domain    string    `json:"domain"`
	Name      EventName `json:"name"`
	UserID    string    `json:"user_id,omitempty"`
	OccuredAt time.Time `json:"occured_at"`
}

func NewEvent(name EventName, id string) *Event {
	return &Event{
		Domain:    "contactbook:users",
		Name:      name,
		UserID:    id,
		OccuredAt: time.Now(),
	}
}

func (e *Event) EventName() string {
	return e.Name.String()
}

// Topic is users.<id>.<action>, e.g. users.01HV....registered.
func (e *Event) Topic() string {
	id := e.UserID
	if id == "" {
		id = "all"
	}

	name := e.Name.String()
	name = strings.TrimPrefix(name, "user_")
	name = strings.TrimPrefix(name, "users_")
	return "users." + id + "." + name
}

type UserRegisteredEvent struct {
	*Event
	User *User `json:"user"`
}

func NewUserRegisteredEvent(u *User) events.DomainEvent {
	return &UserRegisteredEvent{
		Event: NewEvent(UserRegistered, u.ID),
		User:  u.Public(),
	}
}

type UserUpdatedEvent struct {
	*Event
	Fields   []Field `json:"fields"`
	Favorite *bool   `json:"favorite,omitempty"`
}

func NewUserUpdatedEvent(u *User, update Update) events.DomainEvent {
	fields := make([]Field, 0, len(update.Set))
	for _, f := range AllowedFields {
		if update.Set.Has(f) {
			fields = append(fields, f)
		}
	}

	return &UserUpdatedEvent{
		Event:    NewEvent(UserUpdated, u.ID),
		Fields:   fields,
		Favorite: update.Favorite,
	}
}

type UserDeletedEvent struct {
	*Event
}

func NewUserDeletedEvent(u *User) events.DomainEvent {
	return &UserDeletedEvent{
		Event: NewEvent(UserDeleted, u.ID),
	}
}

type UsersClearedEvent struct {
	*Event
	Count int64 `json:"count"`
}

func NewUsersClearedEvent(count int64) events.DomainEvent {
	return &UsersClearedEvent{
		Event: NewEvent(UsersCleared, ""),
		Count: count,
	}
}
