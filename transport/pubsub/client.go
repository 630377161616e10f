package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/nats-io/nats.go"

	"github.com/nntruong1907/CT449-contactbook-backend"
	"github.com/nntruong1907/CT449-contactbook-backend/model"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

const requestTimeout = 5000 * time.Millisecond

// RemoteError is a failure reported by the serving instance. It unwraps to
// the matching user sentinel so callers can keep using errors.Is.
type RemoteError struct {
	Kind user.Kind
	Msg  string
}

func (e *RemoteError) Error() string {
	return e.Msg
}

func (e *RemoteError) Unwrap() error {
	switch e.Kind {
	case user.KindBadInput:
		return user.ErrBadInput
	case user.KindNotFound:
		return user.ErrUserNotFound
	case user.KindInvalidCredentials:
		return user.ErrInvalidCredentials
	case user.KindConflict:
		return user.ErrUserExists
	case user.KindStorage:
		return user.ErrStorageUnavailable
	default:
		return nil
	}
}

// MakeClientEndpoints calls the endpoints served under prefix by another
// instance.
func MakeClientEndpoints(nc *nats.Conn, prefix string) *contactbook.EndpointSet {
	subject := func(s string) string {
		return prefix + "." + s
	}

	return &contactbook.EndpointSet{
		Register: ClientEndpoint(nc, subject(SubjectRegister), func(request any) (any, error) {
			req, ok := request.(contactbook.RegisterRequest)
			if !ok {
				return nil, contactbook.ErrInvalidRequest
			}
			return req.Payload, nil
		}, decodeUser),

		Login: ClientEndpoint(nc, subject(SubjectLogin), func(request any) (any, error) {
			req, ok := request.(contactbook.LoginRequest)
			if !ok {
				return nil, contactbook.ErrInvalidRequest
			}
			return req.Credentials, nil
		}, decodeUser),

		Find: ClientEndpoint(nc, subject(SubjectFind), func(request any) (any, error) {
			req, ok := request.(contactbook.FindRequest)
			if !ok {
				return nil, contactbook.ErrInvalidRequest
			}
			return req, nil
		}, decodeUsers),

		FindByID: ClientEndpoint(nc, subject(SubjectFindByID), func(request any) (any, error) {
			req, ok := request.(contactbook.FindByIDRequest)
			if !ok {
				return nil, contactbook.ErrInvalidRequest
			}
			return IDRequest{ID: req.ID}, nil
		}, decodeUser),

		Update: ClientEndpoint(nc, subject(SubjectUpdate), func(request any) (any, error) {
			req, ok := request.(contactbook.UpdateRequest)
			if !ok {
				return nil, contactbook.ErrInvalidRequest
			}
			return UpdateRequest{ID: req.ID, Data: req.Payload}, nil
		}, decodeUser),

		Delete: ClientEndpoint(nc, subject(SubjectDelete), func(request any) (any, error) {
			req, ok := request.(contactbook.DeleteRequest)
			if !ok {
				return nil, contactbook.ErrInvalidRequest
			}
			return IDRequest{ID: req.ID}, nil
		}, decodeUser),

		DeleteAll: ClientEndpoint(nc, subject(SubjectDeleteAll), nil, func(raw json.RawMessage) (any, error) {
			var resp contactbook.DeleteAllResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, err
			}
			return resp, nil
		}),

		FindFavorite: ClientEndpoint(nc, subject(SubjectFavorite), nil, decodeUsers),
	}
}

func decodeUser(raw json.RawMessage) (any, error) {
	var u *user.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	return u, nil
}

func decodeUsers(raw json.RawMessage) (any, error) {
	var users []*user.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ClientEndpoint sends the encoded request to subject and decodes the
// Result it gets back. A nil encode sends an empty body.
func ClientEndpoint(nc *nats.Conn, subject string,
	encode func(request any) (any, error),
	decode func(raw json.RawMessage) (any, error),
) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		var data []byte
		if encode != nil {
			body, err := encode(request)
			if err != nil {
				return nil, err
			}

			data, err = json.Marshal(body)
			if err != nil {
				return nil, err
			}
		}

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, requestTimeout)
			defer cancel()
		}

		msg, err := nc.RequestWithContext(ctx, subject, data)
		if err != nil {
			if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, context.DeadlineExceeded) {
				return nil, user.StorageError(err)
			}
			return nil, err
		}

		var result *model.Result
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			return nil, err
		}

		if result.Status != model.SUCCESS {
			return nil, &RemoteError{
				Kind: user.Kind(result.Kind),
				Msg:  result.Msg,
			}
		}

		return decode(result.Raw)
	}
}
