package pubsub

import (
	"context"
	"encoding/json"

	"github.com/go-kit/kit/endpoint"

	"github.com/nntruong1907/CT449-contactbook-backend"
	"github.com/nntruong1907/CT449-contactbook-backend/model"
	"github.com/nntruong1907/CT449-contactbook-backend/pubsub"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

const (
	SubjectRegister  = "register"
	SubjectLogin     = "login"
	SubjectFind      = "find"
	SubjectFindByID  = "findById"
	SubjectUpdate    = "update"
	SubjectDelete    = "delete"
	SubjectDeleteAll = "deleteAll"
	SubjectFavorite  = "favorite"
)

type IDRequest struct {
	ID string `json:"id"`
}

type UpdateRequest struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

type decodeFunc func(data []byte) (any, error)

// handler answers a request message with a model.Result. Records never
// leave with their password hash.
func handler(endpoint endpoint.Endpoint, decode decodeFunc, msg string) pubsub.MessageHandler {
	return func(ctx context.Context, m *pubsub.Message) error {
		var result *model.Result

		req, err := decode(m.Data)
		if err != nil {
			result = model.FailureResult(err, string(user.KindBadInput))
		} else if resp, err := endpoint(ctx, req); err != nil {
			result = model.FailureResult(err, string(user.KindOf(err)))
		} else {
			result = model.SuccessResult(msg)
			result.Data = public(resp)
		}

		if m.Response == nil {
			return nil
		}

		bs, err := result.Bytes()
		if err != nil {
			return err
		}

		return m.Response(bs)
	}
}

func public(resp any) any {
	switch v := resp.(type) {
	case *user.User:
		return v.Public()
	case []*user.User:
		return user.PublicAll(v)
	default:
		return v
	}
}

func decodePayload(data []byte) (map[string]any, error) {
	payload := make(map[string]any)
	if len(data) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func RegisterHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, func(data []byte) (any, error) {
		payload, err := decodePayload(data)
		if err != nil {
			return nil, err
		}

		return contactbook.RegisterRequest{Payload: payload}, nil
	}, "user registered")
}

func LoginHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, func(data []byte) (any, error) {
		credentials, err := decodePayload(data)
		if err != nil {
			return nil, err
		}

		return contactbook.LoginRequest{Credentials: credentials}, nil
	}, "user logged in")
}

func FindHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, func(data []byte) (any, error) {
		var req contactbook.FindRequest
		if len(data) == 0 {
			return req, nil
		}

		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}

		return req, nil
	}, "users found")
}

func FindByIDHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, func(data []byte) (any, error) {
		var req IDRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}

		return contactbook.FindByIDRequest{ID: req.ID}, nil
	}, "user found")
}

func UpdateHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, func(data []byte) (any, error) {
		var req UpdateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}

		return contactbook.UpdateRequest{ID: req.ID, Payload: req.Data}, nil
	}, "user updated")
}

func DeleteHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, func(data []byte) (any, error) {
		var req IDRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}

		return contactbook.DeleteRequest{ID: req.ID}, nil
	}, "user deleted")
}

func noRequest(data []byte) (any, error) {
	return nil, nil
}

func DeleteAllHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, noRequest, "users deleted")
}

func FindFavoriteHandler(endpoint endpoint.Endpoint) pubsub.MessageHandler {
	return handler(endpoint, noRequest, "favorite users found")
}

// Serve subscribes every endpoint under prefix, e.g. contactbook.users.login.
func Serve(ps pubsub.PubSub, prefix string, endpoints *contactbook.EndpointSet) error {
	handlers := map[string]pubsub.MessageHandler{
		SubjectRegister:  RegisterHandler(endpoints.Register),
		SubjectLogin:     LoginHandler(endpoints.Login),
		SubjectFind:      FindHandler(endpoints.Find),
		SubjectFindByID:  FindByIDHandler(endpoints.FindByID),
		SubjectUpdate:    UpdateHandler(endpoints.Update),
		SubjectDelete:    DeleteHandler(endpoints.Delete),
		SubjectDeleteAll: DeleteAllHandler(endpoints.DeleteAll),
		SubjectFavorite:  FindFavoriteHandler(endpoints.FindFavorite),
	}

	for subject, h := range handlers {
		if err := ps.Subscribe(prefix+"."+subject, h); err != nil {
			return err
		}
	}

	return nil
}
