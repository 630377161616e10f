package user

import (
	"strconv"
	"time"
)

type Field string

const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldAddress  Field = "address"
	FieldPhone    Field = "phone"

	fieldFavorite = "favorite"
)

// AllowedFields is the set of caller-settable record fields.
var AllowedFields = []Field{
	FieldUsername,
	FieldPassword,
	FieldName,
	FieldEmail,
	FieldAddress,
	FieldPhone,
}

// Fields holds the recognized, present fields of a payload.
type Fields map[Field]string

func (fields Fields) Has(f Field) bool {
	_, ok := fields[f]
	return ok
}

// Sanitize reduces an arbitrary payload to the allowed fields that carry a
// value. Unknown keys, nil values and nested structures are dropped.
func Sanitize(payload map[string]any) Fields {
	fields := make(Fields)

	for _, f := range AllowedFields {
		raw, ok := payload[string(f)]
		if !ok {
			continue
		}

		if value, ok := scalar(raw); ok {
			fields[f] = value
		}
	}

	return fields
}

func scalar(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// Update is a partial replacement of a stored record.
type Update struct {
	Set      Fields
	Favorite *bool
	Time     time.Time
}

// ParseUpdate extracts the sanitized fields and the optional favorite flag
// from an update payload.
func ParseUpdate(payload map[string]any) Update {
	update := Update{
		Set: Sanitize(payload),
	}

	if favorite, ok := payload[fieldFavorite].(bool); ok {
		update.Favorite = &favorite
	}

	return update
}

func (update Update) IsEmpty() bool {
	return len(update.Set) == 0 && update.Favorite == nil
}
