package user

import "strings"

// Filter selects records. Zero-valued members do not constrain the match;
// Name and Address are case-insensitive substring matches on literal text.
type Filter struct {
	ID       string
	Username string
	Name     string
	Address  string
	Favorite *bool
}

func FavoriteFilter() Filter {
	favorite := true
	return Filter{Favorite: &favorite}
}

func (f Filter) IsEmpty() bool {
	return f.ID == "" && f.Username == "" && f.Name == "" && f.Address == "" && f.Favorite == nil
}

// Match evaluates the filter in process, for engines without a query language.
func (f Filter) Match(u *User) bool {
	if f.ID != "" && u.ID != f.ID {
		return false
	}

	if f.Username != "" && u.Username != f.Username {
		return false
	}

	if f.Name != "" && !containsFold(u.Name, f.Name) {
		return false
	}

	if f.Address != "" && !containsFold(u.Address, f.Address) {
		return false
	}

	if f.Favorite != nil && u.Favorite != *f.Favorite {
		return false
	}

	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
